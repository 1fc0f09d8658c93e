// Package featurestore holds the normalized feature vector and Spotify id of
// every song, indexed by song identifier.
package featurestore

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/goccy/go-json"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

// Common errors.
var (
	ErrIdentifierOutOfOrder = errors.New("identifier out of order")
	ErrMisaligned           = errors.New("vectors and spotify ids differ in length")
)

// Builder appends songs in identifier order.
type Builder struct {
	vectors    []catalog.FeatureVector
	spotifyIDs []string
}

// NewBuilder returns a Builder with room for capacity songs.
func NewBuilder(capacity int) *Builder {
	return &Builder{
		vectors:    make([]catalog.FeatureVector, 0, capacity),
		spotifyIDs: make([]string, 0, capacity),
	}
}

// Add normalizes f and stores it at position id.
func (b *Builder) Add(id int, spotifyID string, f catalog.AudioFeatures) error {
	return b.AddVector(id, spotifyID, catalog.Normalize(f))
}

// AddVector stores an already normalized vector at position id. id must equal
// the number of songs added so far.
func (b *Builder) AddVector(id int, spotifyID string, v catalog.FeatureVector) error {
	if id != len(b.vectors) {
		return fmt.Errorf("%w: got %d, want %d", ErrIdentifierOutOfOrder, id, len(b.vectors))
	}
	b.vectors = append(b.vectors, v)
	b.spotifyIDs = append(b.spotifyIDs, spotifyID)
	return nil
}

// Len returns the number of songs added.
func (b *Builder) Len() int {
	return len(b.vectors)
}

// Build returns the Store and resets the builder.
func (b *Builder) Build() *Store {
	s := &Store{vectors: b.vectors, spotifyIDs: b.spotifyIDs}
	b.vectors, b.spotifyIDs = nil, nil
	return s
}

// Store is a built feature store. vectors[i] and spotifyIDs[i] describe song i.
type Store struct {
	vectors    []catalog.FeatureVector
	spotifyIDs []string
}

// Len returns the number of songs.
func (s *Store) Len() int {
	return len(s.vectors)
}

// Vector returns the feature vector of song id.
func (s *Store) Vector(id int) (catalog.FeatureVector, bool) {
	if id < 0 || id >= len(s.vectors) {
		return catalog.FeatureVector{}, false
	}
	return s.vectors[id], true
}

// SpotifyID returns the Spotify track id of song id.
func (s *Store) SpotifyID(id int) (string, bool) {
	if id < 0 || id >= len(s.spotifyIDs) {
		return "", false
	}
	return s.spotifyIDs[id], true
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero
// norm.
func Cosine(a, b catalog.FeatureVector) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 || math.IsNaN(denom) {
		return 0
	}
	return dot / denom
}

// Neighbor is a song ranked by similarity to a query vector.
type Neighbor struct {
	ID         int
	SpotifyID  string
	Similarity float64
}

// Nearest ranks songs by cosine similarity to query, highest first. Only
// candidates are considered when it is non-nil; unknown ids are ignored.
// k <= 0 returns every ranked song. Equal similarities keep candidate order.
func (s *Store) Nearest(query catalog.FeatureVector, k int, candidates []int) []Neighbor {
	if candidates == nil {
		candidates = make([]int, len(s.vectors))
		for i := range candidates {
			candidates[i] = i
		}
	}

	out := make([]Neighbor, 0, len(candidates))
	for _, id := range candidates {
		v, ok := s.Vector(id)
		if !ok {
			continue
		}
		out = append(out, Neighbor{ID: id, SpotifyID: s.spotifyIDs[id], Similarity: Cosine(query, v)})
	}
	slices.SortStableFunc(out, func(a, b Neighbor) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

type storeJSON struct {
	Vectors    []catalog.FeatureVector `json:"vectors"`
	SpotifyIDs []string                `json:"spotify_ids"`
}

// MarshalJSON writes {"vectors": [...], "spotify_ids": [...]}.
func (s *Store) MarshalJSON() ([]byte, error) {
	out := storeJSON{Vectors: s.vectors, SpotifyIDs: s.spotifyIDs}
	if out.Vectors == nil {
		out.Vectors = []catalog.FeatureVector{}
	}
	if out.SpotifyIDs == nil {
		out.SpotifyIDs = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (s *Store) UnmarshalJSON(data []byte) error {
	var in storeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding feature store: %w", err)
	}
	if len(in.Vectors) != len(in.SpotifyIDs) {
		return fmt.Errorf("%w: %d vectors, %d spotify ids", ErrMisaligned, len(in.Vectors), len(in.SpotifyIDs))
	}
	s.vectors, s.spotifyIDs = in.Vectors, in.SpotifyIDs
	return nil
}
