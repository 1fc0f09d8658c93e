// Package artifacttest provides fixtures shared by the bundle repository tests.
package artifacttest

import (
	"slices"
	"testing"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
)

// Bundle returns a small bundle whose facet keys are deliberately not in
// sorted order and whose vectors need full float64 precision.
func Bundle(t testing.TB) *artifact.Bundle {
	t.Helper()

	ib := index.NewBuilder()
	ib.AddSong(0, index.SongFacets{
		Times: []string{"night", "afternoon"}, Moods: []string{"party", "energetic"},
		Artists: []string{"Zed", "Ada"}, Album: "Loud", Tokens: []string{"fire", "fire"}, Genre: "techno",
	})
	ib.AddSong(1, index.SongFacets{
		Times: []string{"evening"}, Moods: []string{"neutral"},
		Artists: []string{"Ada"}, Album: "Quiet", Genre: "ambient",
	})
	ib.AddSong(2, index.SongFacets{
		Times: []string{"night"}, Moods: []string{"calm"},
		Artists: []string{"Ünal"}, Album: "Quiet", Tokens: []string{"sleep"}, Genre: "techno",
	})

	fb := featurestore.NewBuilder(3)
	features := []catalog.AudioFeatures{
		{Danceability: 0.1 + 0.2, Energy: 1.0 / 3.0, Loudness: -4.2, Tempo: 250},
		{Danceability: 0.0, Energy: 0.12345678901234567, Loudness: 3.5, Tempo: 12},
		{Valence: 0.999999999999, Acousticness: 1e-9, Loudness: -60, Tempo: 50},
	}
	for i, f := range features {
		if err := fb.Add(i, []string{"0aYF", "1bZG", "2cAH"}[i], f); err != nil {
			t.Fatalf("adding song %d: %v", i, err)
		}
	}
	return artifact.NewBundle(ib.Build(), fb.Build())
}

// AssertEqual fails t unless got holds the same build as want, with facet
// keys and postings in the same order and bit-identical vectors.
func AssertEqual(t testing.TB, want, got *artifact.Bundle) {
	t.Helper()

	if got.BuildID != want.BuildID {
		t.Errorf("build id = %s, want %s", got.BuildID, want.BuildID)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	for _, f := range index.Facets {
		wantKeys, gotKeys := want.Index.Keys(f), got.Index.Keys(f)
		if !slices.Equal(gotKeys, wantKeys) {
			t.Errorf("%v keys = %q, want %q", f, gotKeys, wantKeys)
			continue
		}
		for _, k := range wantKeys {
			if g, w := got.Index.Postings(f, k), want.Index.Postings(f, k); !slices.Equal(g, w) {
				t.Errorf("%v[%q] = %v, want %v", f, k, g, w)
			}
		}
	}

	if got.Features.Len() != want.Features.Len() {
		t.Fatalf("feature store has %d songs, want %d", got.Features.Len(), want.Features.Len())
	}
	for i := range want.Features.Len() {
		wv, _ := want.Features.Vector(i)
		gv, _ := got.Features.Vector(i)
		if gv != wv {
			t.Errorf("vector %d = %v, want %v", i, gv, wv)
		}
		ws, _ := want.Features.SpotifyID(i)
		gs, _ := got.Features.SpotifyID(i)
		if gs != ws {
			t.Errorf("spotify id %d = %q, want %q", i, gs, ws)
		}
	}
}
