package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/lastfm"
	"github.com/justestif/go-spotify-mood-index/internal/logging"
	"github.com/justestif/go-spotify-mood-index/internal/spotify"
)

func fetch(ctx context.Context, args []string) error {
	c := newCommand("fetch")
	playlist := c.fs.String("playlist", "", "Spotify playlist id")
	output := c.fs.String("output", "-", "catalog CSV to write, - for stdout")

	cfg, err := c.parse(args, nil)
	if err != nil {
		return err
	}
	if *playlist == "" {
		return errors.New("fetch: -playlist is required")
	}
	if err := cfg.RequireSpotify(); err != nil {
		return err
	}

	opts := []spotify.Option{
		spotify.WithRateLimit(cfg.Spotify.RequestsPerSecond),
		spotify.WithDefaultGenre(cfg.Spotify.DefaultGenre),
		spotify.WithLogger(logging.Component("spotify")),
	}
	if cfg.LastFM.APIKey != "" {
		opts = append(opts, spotify.WithGenreFallback(
			lastfm.NewClient(cfg.LastFM.APIKey, lastfm.WithLogger(logging.Component("lastfm"))),
		))
	}

	client, err := spotify.NewWithCredentials(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, opts...)
	if err != nil {
		return err
	}

	records, err := client.FetchPlaylist(ctx, *playlist)
	if err != nil {
		return err
	}

	dst, closeDst, err := create(*output)
	if err != nil {
		return err
	}
	w, err := catalog.NewRecordWriter(dst)
	if err != nil {
		closeDst()
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			closeDst()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		closeDst()
		return err
	}
	if err := closeDst(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	logging.Info().Str("playlist", *playlist).Int("songs", len(records)).Msg("fetched playlist")
	return nil
}
