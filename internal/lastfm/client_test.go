package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func artistResponse(tags ...string) artistTagsResponse {
	var resp artistTagsResponse
	resp.TopTags.Tag = []Tag{}
	for _, name := range tags {
		resp.TopTags.Tag = append(resp.TopTags.Tag, Tag{Name: name})
	}
	return resp
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-key", WithBaseURL(srv.URL))
	c.retryDelays = []time.Duration{time.Millisecond, time.Millisecond}
	return c
}

func respond(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestArtistGenre(t *testing.T) {
	tests := []struct {
		name     string
		response any
		want     string
		wantErr  error
	}{
		{
			name:     "first tag",
			response: artistResponse("Electronic", "house"),
			want:     "electronic",
		},
		{
			name:     "listener tags skipped",
			response: artistResponse("seen live", " Indie Rock "),
			want:     "indie rock",
		},
		{
			name:     "no tags",
			response: artistResponse(),
			want:     "",
		},
		{
			name:     "invalid API key",
			response: apiError{Error: errCodeInvalidAPIKey, Message: "Invalid API key"},
			wantErr:  ErrInvalidAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("method") != "artist.getTopTags" {
					t.Errorf("method = %q, want artist.getTopTags", q.Get("method"))
				}
				if q.Get("api_key") != "test-key" {
					t.Errorf("api_key = %q, want test-key", q.Get("api_key"))
				}
				respond(t, w, tt.response)
			})

			got, err := c.ArtistGenre(context.Background(), "Some Artist")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ArtistGenre() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ArtistGenre() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArtistGenre_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		respond(t, w, artistResponse("jazz"))
	})

	for _, name := range []string{"Miles Davis", "miles davis ", "MILES DAVIS"} {
		got, err := c.ArtistGenre(context.Background(), name)
		if err != nil {
			t.Fatalf("ArtistGenre(%q) error = %v", name, err)
		}
		if got != "jazz" {
			t.Errorf("ArtistGenre(%q) = %q, want jazz", name, got)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestArtistGenre_RateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			respond(t, w, apiError{Error: errCodeRateLimited, Message: "Rate limit exceeded"})
			return
		}
		respond(t, w, artistResponse("soul"))
	})

	got, err := c.ArtistGenre(context.Background(), "Aretha Franklin")
	if err != nil {
		t.Fatalf("ArtistGenre() error = %v", err)
	}
	if got != "soul" {
		t.Errorf("ArtistGenre() = %q, want soul", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}

func TestArtistGenre_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		respond(t, w, apiError{Error: errCodeRateLimited, Message: "Rate limit exceeded"})
	})

	_, err := c.ArtistGenre(context.Background(), "Anyone")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("ArtistGenre() error = %v, want ErrRateLimited", err)
	}
	// One attempt plus one retry per delay.
	if n := calls.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}

func TestArtistGenre_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, apiError{Error: errCodeRateLimited, Message: "Rate limit exceeded"})
	})
	c.retryDelays = []time.Duration{time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.ArtistGenre(ctx, "Anyone")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ArtistGenre() error = %v, want context.Canceled", err)
	}
}

func TestTopGenre(t *testing.T) {
	tests := []struct {
		name string
		tags []Tag
		want string
	}{
		{"empty", nil, ""},
		{"only listener tags", []Tag{{Name: "seen live"}, {Name: "Favorites"}}, ""},
		{"blank names skipped", []Tag{{Name: "  "}, {Name: "Trip-Hop"}}, "trip-hop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := topGenre(tt.tags); got != tt.want {
				t.Errorf("topGenre() = %q, want %q", got, tt.want)
			}
		})
	}
}
