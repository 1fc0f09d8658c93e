package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/config"
	"github.com/justestif/go-spotify-mood-index/internal/index"
	"github.com/justestif/go-spotify-mood-index/internal/logging"
	"github.com/justestif/go-spotify-mood-index/internal/pipeline"
)

func build(ctx context.Context, args []string) error {
	c := newCommand("build")
	var sf storageFlags
	sf.register(c)
	input := c.fs.String("input", "", "catalog CSV to read (default input.path)")
	lenient := c.fs.Bool("lenient", false, "skip malformed rows instead of failing")
	concurrency := c.fs.Int("concurrency", 0, "classification workers, 0 for one per CPU")
	metricsFile := c.fs.String("metrics", "", "write build metrics to this node_exporter textfile")

	cfg, err := c.parse(args, func(cfg *config.Config, set map[string]bool) {
		sf.apply(cfg, set)
		if set["input"] {
			cfg.Input.Path = *input
		}
		if set["lenient"] {
			cfg.Input.Lenient = *lenient
		}
		if set["concurrency"] {
			cfg.Pipeline.Concurrency = *concurrency
		}
		if set["metrics"] {
			cfg.Metrics.Textfile = *metricsFile
		}
	})
	if err != nil {
		return err
	}
	if cfg.Input.Path == "" {
		return errors.New("build: -input or input.path is required")
	}

	records, skipped, err := readCatalog(cfg)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logging.Component("pipeline"))}
	if cfg.Pipeline.Concurrency > 0 {
		opts = append(opts, pipeline.WithConcurrency(cfg.Pipeline.Concurrency))
	}
	svc := pipeline.New(opts...)
	svc.Metrics().SongsSkipped.Add(float64(skipped))

	res, err := svc.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	bundle := artifact.NewBundle(res.Index, res.Features)
	if err := repo.Save(ctx, bundle); err != nil {
		return fmt.Errorf("saving build: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := svc.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}

	logging.Info().
		Str("build_id", bundle.BuildID.String()).
		Str("driver", cfg.Storage.Driver).
		Int("songs", res.Features.Len()).
		Int("skipped", skipped).
		Int("moods", res.Index.Len(index.Mood)).
		Int("genres", res.Index.Len(index.Genre)).
		Msg("saved build")
	fmt.Println(bundle.BuildID)
	return nil
}

// readCatalog reads every record of the configured input.
func readCatalog(cfg *config.Config) ([]catalog.SongRecord, int, error) {
	f, err := os.Open(cfg.Input.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	r, err := catalog.NewReader(f,
		catalog.WithLenient(cfg.Input.Lenient),
		catalog.WithLogger(logging.Component("catalog")),
	)
	if err != nil {
		return nil, 0, err
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("reading catalog: %w", err)
	}
	return records, r.Skipped(), nil
}
