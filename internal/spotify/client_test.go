package spotify

import (
	"context"
	json "github.com/goccy/go-json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

func TestWiden(t *testing.T) {
	tests := []struct {
		in   float32
		want float64
	}{
		{0.8, 0.8},
		{-5.5, -5.5},
		{120.017, 120.017},
		{0, 0},
	}
	for _, tt := range tests {
		if got := widen(tt.in); got != tt.want {
			t.Errorf("widen(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBatches(t *testing.T) {
	ids := make([]spotify.ID, 250)
	got := batches(ids, 100)
	if len(got) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(got))
	}
	for i, want := range []int{100, 100, 50} {
		if len(got[i]) != want {
			t.Errorf("len(batch %d) = %d, want %d", i, len(got[i]), want)
		}
	}
	if got := batches(nil, 100); len(got) != 0 {
		t.Errorf("batches(nil) = %v, want empty", got)
	}
}

func TestPrimaryGenre(t *testing.T) {
	tests := []struct {
		name   string
		genres []string
		want   string
	}{
		{"first genre", []string{"indie rock", "rock"}, "indie rock"},
		{"no genres", nil, "unknown"},
		{"empty genre", []string{""}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primaryGenre(tt.genres, "unknown"); got != tt.want {
				t.Errorf("primaryGenre() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertTrack(t *testing.T) {
	track := spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:   "t1",
			Name: "Song",
			Artists: []spotify.SimpleArtist{
				{Name: "A", ID: "a1"},
				{Name: "B", ID: "b1"},
			},
		},
		Album: spotify.SimpleAlbum{Name: "Album"},
	}
	f := catalog.AudioFeatures{Danceability: 0.5, Tempo: 100}

	got := convertTrack(3, track, f, "pop")
	if got.ID != 3 || got.TrackID != "t1" || got.TrackName != "Song" || got.AlbumName != "Album" {
		t.Errorf("convertTrack() = %+v", got)
	}
	if len(got.Artists) != 2 || got.Artists[0] != "A" || got.Artists[1] != "B" {
		t.Errorf("Artists = %v, want [A B]", got.Artists)
	}
	if got.Genre != "pop" {
		t.Errorf("Genre = %q, want pop", got.Genre)
	}
	if got.Features != f {
		t.Errorf("Features = %+v, want %+v", got.Features, f)
	}
}

func TestNewWithCredentials_Missing(t *testing.T) {
	_, err := NewWithCredentials(context.Background(), "", "secret")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("err = %v, want ErrMissingCredentials", err)
	}
}

// newTestServer serves a two-track playlist, audio features for one of
// them, and artist genres.
func newTestServer(t *testing.T, artistCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/playlists/pl/tracks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"items": []any{
				map[string]any{"is_local": false, "track": map[string]any{
					"type": "track", "id": "t1", "name": "First",
					"artists": []any{map[string]any{"id": "a1", "name": "Artist One"}},
					"album":   map[string]any{"name": "Album One"},
				}},
				map[string]any{"is_local": true, "track": map[string]any{
					"type": "track", "id": "", "name": "Local File",
				}},
				map[string]any{"is_local": false, "track": map[string]any{
					"type": "track", "id": "t2", "name": "Second",
					"artists": []any{map[string]any{"id": "a2", "name": "Artist Two"}},
					"album":   map[string]any{"name": "Album Two"},
				}},
				map[string]any{"is_local": false, "track": map[string]any{
					"type": "track", "id": "t3", "name": "Third",
					"artists": []any{map[string]any{"id": "a2", "name": "Artist Two"}},
					"album":   map[string]any{"name": "Album Two"},
				}},
			},
			"next": "",
		})
	})

	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		var out []any
		for _, id := range ids {
			if id == "t2" {
				out = append(out, nil)
				continue
			}
			out = append(out, map[string]any{
				"id": id, "danceability": 0.8, "energy": 0.9, "loudness": -5.0,
				"speechiness": 0.05, "acousticness": 0.1, "instrumentalness": 0.0,
				"valence": 0.6, "tempo": 180.0,
			})
		}
		writeJSON(t, w, map[string]any{"audio_features": out})
	})

	mux.HandleFunc("/artists", func(w http.ResponseWriter, r *http.Request) {
		artistCalls.Add(1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		var out []any
		for _, id := range ids {
			genres := []string{}
			if id == "a1" {
				genres = []string{"dance pop", "pop"}
			}
			out = append(out, map[string]any{"id": id, "name": id, "genres": genres})
		}
		writeJSON(t, w, map[string]any{"artists": out})
	})

	return httptest.NewServer(mux)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestFetchPlaylist(t *testing.T) {
	var artistCalls atomic.Int32
	srv := newTestServer(t, &artistCalls)
	defer srv.Close()

	api := spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/"))
	c := New(api, WithRateLimit(1000), WithDefaultGenre("misc"))

	records, err := c.FetchPlaylist(context.Background(), "pl")
	if err != nil {
		t.Fatalf("FetchPlaylist() error = %v", err)
	}

	// t2 has no audio features and the local file is skipped.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	first, second := records[0], records[1]
	if first.ID != 0 || first.TrackID != "t1" || first.Genre != "dance pop" {
		t.Errorf("records[0] = %+v, want id 0, t1, dance pop", first)
	}
	if second.ID != 1 || second.TrackID != "t3" || second.Genre != "misc" {
		t.Errorf("records[1] = %+v, want id 1, t3, misc", second)
	}
	if first.Features.Tempo != 180 || first.Features.Danceability != 0.8 {
		t.Errorf("records[0].Features = %+v", first.Features)
	}

	// Artist genres are cached between fetches.
	if _, err := c.FetchPlaylist(context.Background(), "pl"); err != nil {
		t.Fatalf("second FetchPlaylist() error = %v", err)
	}
	if got := artistCalls.Load(); got != 1 {
		t.Errorf("artist requests = %d, want 1", got)
	}
}

type stubGenres struct {
	genres map[string]string
	err    error
	calls  int
}

func (s *stubGenres) ArtistGenre(_ context.Context, artist string) (string, error) {
	s.calls++
	return s.genres[artist], s.err
}

func TestGenreOf(t *testing.T) {
	artist := spotify.SimpleArtist{Name: "Artist", ID: "a"}

	tests := []struct {
		name      string
		genres    []string
		fallback  *stubGenres
		want      string
		wantCalls int
	}{
		{"spotify genre wins", []string{"rock"}, &stubGenres{genres: map[string]string{"Artist": "jazz"}}, "rock", 0},
		{"fallback used", nil, &stubGenres{genres: map[string]string{"Artist": "jazz"}}, "jazz", 1},
		{"fallback empty", nil, &stubGenres{}, "misc", 1},
		{"fallback error", nil, &stubGenres{err: errors.New("boom")}, "misc", 1},
		{"no fallback", nil, nil, "misc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithDefaultGenre("misc")}
			if tt.fallback != nil {
				opts = append(opts, WithGenreFallback(tt.fallback))
			}
			c := New(nil, opts...)

			if got := c.genreOf(context.Background(), artist, tt.genres); got != tt.want {
				t.Errorf("genreOf() = %q, want %q", got, tt.want)
			}
			if tt.fallback != nil && tt.fallback.calls != tt.wantCalls {
				t.Errorf("fallback calls = %d, want %d", tt.fallback.calls, tt.wantCalls)
			}
		})
	}
}
