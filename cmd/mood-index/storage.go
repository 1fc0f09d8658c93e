package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/config"
	"github.com/justestif/go-spotify-mood-index/internal/db"
	"github.com/justestif/go-spotify-mood-index/internal/logging"
	"github.com/justestif/go-spotify-mood-index/internal/sqlite"
)

// openRepository opens the build store selected by storage.driver. The
// returned func releases it.
func openRepository(ctx context.Context, cfg *config.Config) (artifact.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		return artifact.NewDir(cfg.Output.Dir), func() {}, nil

	case config.DriverPostgres:
		pg, err := db.New(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg.Builds(), pg.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logging.Warn().Err(err).Msg("closing sqlite store")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// loadBundle loads a build by id, or the latest build when id is empty.
func loadBundle(ctx context.Context, cfg *config.Config, id string) (*artifact.Bundle, error) {
	buildID := uuid.Nil
	if id != "" {
		var err error
		if buildID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing build id: %w", err)
		}
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeRepo()

	b, err := repo.Load(ctx, buildID)
	if err != nil {
		return nil, fmt.Errorf("loading build: %w", err)
	}
	logging.Debug().Str("build_id", b.BuildID.String()).Int("songs", b.Features.Len()).Msg("loaded build")
	return b, nil
}

// storageFlags registers the flags shared by every command that reads or
// writes builds.
type storageFlags struct {
	dir, driver string
}

func (s *storageFlags) register(c *command) {
	c.fs.StringVar(&s.dir, "dir", "", "artifact directory for the json driver")
	c.fs.StringVar(&s.driver, "driver", "", "storage driver: json, postgres or sqlite")
}

func (s *storageFlags) apply(cfg *config.Config, set map[string]bool) {
	if set["dir"] {
		cfg.Output.Dir = s.dir
	}
	if set["driver"] {
		cfg.Storage.Driver = s.driver
	}
}
