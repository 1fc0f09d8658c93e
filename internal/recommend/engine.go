// Package recommend answers mood and time queries against a built index.
package recommend

import (
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
	"github.com/justestif/go-spotify-mood-index/internal/tokenize"
)

// DefaultMaxResults is the number of tracks a recommendation returns when
// the request does not say.
const DefaultMaxResults = 15

// Request is a recommendation query.
type Request struct {
	Mood            string
	Time            string
	FavoriteArtists []string
	FavoriteGenres  []string
	MaxResults      int
}

// Engine queries one build.
type Engine struct {
	index    *index.Table
	features *featurestore.Store
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the query logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine over a loaded bundle.
func New(b *artifact.Bundle, opts ...Option) *Engine {
	e := &Engine{
		index:    b.Index,
		features: b.Features,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates returns songs tagged with both mood and time, in mood-list
// order. Tags are matched case-insensitively.
func (e *Engine) Candidates(mood, time string) []int {
	moodIDs := e.index.Postings(index.Mood, strings.ToLower(mood))
	timeIDs := e.index.Postings(index.Time, strings.ToLower(time))
	return intersect(moodIDs, timeIDs)
}

// NarrowByPreferences keeps the candidates by a favourite artist or in a
// favourite genre, but only when at least maxResults of them survive.
// Otherwise, or with no matching preferences, candidates are returned as is.
func (e *Engine) NarrowByPreferences(candidates []int, artists, genres []string, maxResults int) []int {
	preferred := make(map[int]bool)
	for _, a := range artists {
		for _, id := range e.index.Postings(index.Artist, strings.ToLower(a)) {
			preferred[id] = true
		}
	}
	for _, g := range genres {
		for _, id := range e.index.Postings(index.Genre, strings.ToLower(g)) {
			preferred[id] = true
		}
	}
	if len(preferred) == 0 {
		return candidates
	}

	var narrowed []int
	for _, id := range candidates {
		if preferred[id] {
			narrowed = append(narrowed, id)
		}
	}
	if len(narrowed) >= maxResults {
		return narrowed
	}
	return candidates
}

// Rank orders candidates by similarity to the mood's ideal vector, highest
// first. Ties keep candidate order.
func (e *Engine) Rank(candidates []int, mood string) []featurestore.Neighbor {
	if candidates == nil {
		candidates = []int{}
	}
	return e.features.Nearest(IdealVector(strings.ToLower(mood)), 0, candidates)
}

// Recommend returns up to MaxResults distinct Spotify track ids for the
// request, best match first.
func (e *Engine) Recommend(req Request) []string {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	candidates := e.Candidates(req.Mood, req.Time)
	narrowed := e.NarrowByPreferences(candidates, req.FavoriteArtists, req.FavoriteGenres, maxResults)
	ranked := e.Rank(narrowed, req.Mood)

	seen := make(map[string]bool, maxResults)
	out := make([]string, 0, min(maxResults, len(ranked)))
	for _, n := range ranked {
		if len(out) == maxResults {
			break
		}
		if seen[n.SpotifyID] {
			continue
		}
		seen[n.SpotifyID] = true
		out = append(out, n.SpotifyID)
	}

	e.logger.Debug().
		Str("mood", req.Mood).
		Str("time", req.Time).
		Int("candidates", len(candidates)).
		Int("narrowed", len(narrowed)).
		Int("results", len(out)).
		Msg("recommendation")
	return out
}

// SearchTracks returns songs whose track name contains every token of query,
// in id order.
func (e *Engine) SearchTracks(query string) []int {
	tokens := tokenize.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	ids := e.index.Postings(index.Track, tokens[0])
	for _, tok := range tokens[1:] {
		if len(ids) == 0 {
			break
		}
		ids = intersect(ids, e.index.Postings(index.Track, tok))
	}
	// A name repeating a token posts the song twice.
	return slices.Compact(slices.Clone(ids))
}

// Lookup returns the songs stored under key in facet f, in id order. Track
// keys are tokenized like SearchTracks; genres match verbatim and every
// other facet matches case-insensitively.
func (e *Engine) Lookup(f index.Facet, key string) []int {
	switch f {
	case index.Track:
		return e.SearchTracks(key)
	case index.Genre:
		key = strings.TrimSpace(key)
	default:
		key = index.NormalizeName(key)
	}
	return slices.Compact(slices.Clone(e.index.Postings(f, key)))
}

// intersect returns the elements of a that are also in b, in a's order.
func intersect(a, b []int) []int {
	in := make(map[int]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	out := []int{}
	for _, id := range a {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}
