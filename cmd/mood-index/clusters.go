package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/classify"
	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
)

func clusters(ctx context.Context, args []string) error {
	c := newCommand("clusters")
	var sf storageFlags
	sf.register(c)
	buildID := c.fs.String("build", "", "build id (default latest)")
	k := c.fs.Int("k", 8, "number of clusters")

	cfg, err := c.parse(args, sf.apply)
	if err != nil {
		return err
	}

	b, err := loadBundle(ctx, cfg, *buildID)
	if err != nil {
		return err
	}
	groups, err := b.Features.Partition(*k)
	if err != nil {
		return fmt.Errorf("partitioning: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "CLUSTER\tSONGS\tMOOD")
	for _, name := range catalog.FeatureNames {
		fmt.Fprintf(tw, "\t%s", name)
	}
	fmt.Fprintln(tw)

	for i, g := range groups {
		fmt.Fprintf(tw, "%d\t%d\t%s", i, len(g.Members), clusterMood(g))
		for _, v := range g.Centroid {
			fmt.Fprintf(tw, "\t%.3f", v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// clusterMood labels a cluster with the top mood of its centroid.
func clusterMood(g featurestore.Cluster) classify.Mood {
	res := classify.ClassifyMood(catalog.Denormalize(g.Centroid))
	return res.Tags[0]
}
