package featurestore

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

// ErrTooFewSongs is returned when a partition asks for more clusters than
// there are songs.
var ErrTooFewSongs = errors.New("fewer songs than clusters")

// Cluster is a group of songs close together in feature space.
type Cluster struct {
	Centroid catalog.FeatureVector
	Members  []int // ascending song ids
}

// songObservation adapts a stored vector to clusters.Observation.
type songObservation struct {
	id     int
	coords clusters.Coordinates
}

func (o songObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o songObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Partition groups every song into k clusters with k-means. Clusters are
// returned largest first; empty clusters are dropped.
func (s *Store) Partition(k int) ([]Cluster, error) {
	if k <= 0 {
		return nil, fmt.Errorf("partition into %d clusters: k must be positive", k)
	}
	if len(s.vectors) < k {
		return nil, fmt.Errorf("%w: %d songs, %d clusters", ErrTooFewSongs, len(s.vectors), k)
	}

	obs := make(clusters.Observations, len(s.vectors))
	for id, v := range s.vectors {
		coords := make(clusters.Coordinates, len(v))
		copy(coords, v[:])
		obs[id] = songObservation{id: id, coords: coords}
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("running k-means: %w", err)
	}

	out := make([]Cluster, 0, len(result))
	for _, c := range result {
		if len(c.Observations) == 0 {
			continue
		}
		var cl Cluster
		copy(cl.Centroid[:], c.Center)
		for _, o := range c.Observations {
			if so, ok := o.(songObservation); ok {
				cl.Members = append(cl.Members, so.id)
			}
		}
		slices.Sort(cl.Members)
		out = append(out, cl)
	}

	slices.SortFunc(out, func(a, b Cluster) int {
		if c := cmp.Compare(len(b.Members), len(a.Members)); c != 0 {
			return c
		}
		return cmp.Compare(a.Members[0], b.Members[0])
	})
	return out, nil
}
