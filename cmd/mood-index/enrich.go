package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/classify"
	"github.com/justestif/go-spotify-mood-index/internal/config"
	"github.com/justestif/go-spotify-mood-index/internal/logging"
)

func enrich(ctx context.Context, args []string) error {
	c := newCommand("enrich")
	input := c.fs.String("input", "", "catalog CSV to read (default input.path)")
	output := c.fs.String("output", "-", "enriched CSV to write, - for stdout")
	lenient := c.fs.Bool("lenient", false, "skip malformed rows instead of failing")

	cfg, err := c.parse(args, func(cfg *config.Config, set map[string]bool) {
		if set["input"] {
			cfg.Input.Path = *input
		}
		if set["lenient"] {
			cfg.Input.Lenient = *lenient
		}
	})
	if err != nil {
		return err
	}
	if cfg.Input.Path == "" {
		return errors.New("enrich: -input or input.path is required")
	}

	src, err := os.Open(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer src.Close()

	r, err := catalog.NewReader(src,
		catalog.WithLenient(cfg.Input.Lenient),
		catalog.WithLogger(logging.Component("catalog")),
	)
	if err != nil {
		return err
	}

	dst, closeDst, err := create(*output)
	if err != nil {
		return err
	}
	w, err := catalog.NewEnrichWriter(dst, r.Header())
	if err != nil {
		closeDst()
		return err
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			closeDst()
			return err
		}
		row, err := r.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			closeDst()
			return err
		}

		tags := classify.Classify(row.Record.Features)
		if err := w.Write(row, classify.JoinMoods(tags.Moods), classify.JoinTimes(tags.Times)); err != nil {
			closeDst()
			return err
		}
		n++
	}

	if err := w.Flush(); err != nil {
		closeDst()
		return err
	}
	if err := closeDst(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	logging.Info().Int("songs", n).Int("skipped", r.Skipped()).Msg("enriched catalog")
	return nil
}
