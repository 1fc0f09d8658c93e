package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/justestif/go-spotify-mood-index/internal/classify"
	"github.com/justestif/go-spotify-mood-index/internal/config"
	"github.com/justestif/go-spotify-mood-index/internal/index"
	"github.com/justestif/go-spotify-mood-index/internal/logging"
	"github.com/justestif/go-spotify-mood-index/internal/recommend"
)

func search(ctx context.Context, args []string) error {
	c := newCommand("search")
	var sf storageFlags
	sf.register(c)
	buildID := c.fs.String("build", "", "build id (default latest)")
	facetName := c.fs.String("facet", index.Track.String(), "facet to search: time, mood, artist, album, track or genre")

	cfg, err := c.parse(args, sf.apply)
	if err != nil {
		return err
	}
	facet, err := index.ParseFacet(*facetName)
	if err != nil {
		return err
	}
	query := strings.Join(c.fs.Args(), " ")
	if query == "" {
		return errors.New("usage: mood-index search [flags] $query")
	}

	b, err := loadBundle(ctx, cfg, *buildID)
	if err != nil {
		return err
	}
	e := recommend.New(b, recommend.WithLogger(logging.Component("recommend")))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSPOTIFY ID")
	for _, id := range e.Lookup(facet, query) {
		spotifyID, _ := b.Features.SpotifyID(id)
		fmt.Fprintf(tw, "%d\t%s\n", id, spotifyID)
	}
	return tw.Flush()
}

func recommendCmd(ctx context.Context, args []string) error {
	c := newCommand("recommend")
	var sf storageFlags
	sf.register(c)
	buildID := c.fs.String("build", "", "build id (default latest)")
	mood := c.fs.String("mood", "", "mood, e.g. energetic")
	timeOfDay := c.fs.String("time", "", "time of day: morning, afternoon, evening or night")
	maxResults := c.fs.Int("n", 0, "number of tracks (default recommend.max_results)")
	var artists, genres stringList
	c.fs.Var(&artists, "artist", "favourite artist, repeatable")
	c.fs.Var(&genres, "genre", "favourite genre, repeatable")

	cfg, err := c.parse(args, func(cfg *config.Config, set map[string]bool) {
		sf.apply(cfg, set)
		if set["n"] {
			cfg.Recommend.MaxResults = *maxResults
		}
	})
	if err != nil {
		return err
	}
	if *mood == "" || *timeOfDay == "" {
		return errors.New("recommend: -mood and -time are required")
	}
	if _, err := classify.ParseMood(strings.ToLower(*mood)); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if _, err := classify.ParseTimeOfDay(strings.ToLower(*timeOfDay)); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	b, err := loadBundle(ctx, cfg, *buildID)
	if err != nil {
		return err
	}
	e := recommend.New(b, recommend.WithLogger(logging.Component("recommend")))

	ids := e.Recommend(recommend.Request{
		Mood:            *mood,
		Time:            *timeOfDay,
		FavoriteArtists: artists,
		FavoriteGenres:  genres,
		MaxResults:      cfg.Recommend.MaxResults,
	})
	for _, id := range ids {
		fmt.Printf("https://open.spotify.com/track/%s\n", id)
	}
	return nil
}
