// Package spotify fetches catalog records from the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond paces API calls when no limit is configured.
const DefaultRequestsPerSecond = 5

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("missing Spotify client id or secret")

// GenreSource resolves a genre by artist name. It is consulted for artists
// Spotify lists no genres for.
type GenreSource interface {
	ArtistGenre(ctx context.Context, artist string) (string, error)
}

// Client wraps the Spotify API client with paced, batched lookups.
type Client struct {
	api          *spotify.Client
	limiter      *rate.Limiter
	defaultGenre string
	fallback     GenreSource
	logger       zerolog.Logger

	// Artist genres by artist id.
	genres   map[spotify.ID][]string
	genresMu sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps API calls per second. Non-positive values are ignored.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithDefaultGenre sets the genre of tracks whose primary artist has none.
func WithDefaultGenre(genre string) Option {
	return func(c *Client) {
		c.defaultGenre = genre
	}
}

// WithGenreFallback sets where genres come from when Spotify has none.
func WithGenreFallback(g GenreSource) Option {
	return func(c *Client) {
		c.fallback = g
	}
}

// WithLogger sets the progress logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:          api,
		limiter:      rate.NewLimiter(DefaultRequestsPerSecond, 1),
		defaultGenre: "unknown",
		logger:       zerolog.Nop(),
		genres:       make(map[spotify.ID][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithCredentials authenticates with the client-credentials flow, which
// gives access to public catalog data only.
func NewWithCredentials(ctx context.Context, clientID, clientSecret string, opts ...Option) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	if _, err := cfg.Token(ctx); err != nil {
		return nil, fmt.Errorf("getting client credentials token: %w", err)
	}
	return New(spotify.New(cfg.Client(ctx)), opts...), nil
}

// wait blocks until the limiter allows another request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}
