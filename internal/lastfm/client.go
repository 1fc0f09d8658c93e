// Package lastfm looks up artist genres from Last.fm top tags. It fills in
// genres for artists that Spotify has none for.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	baseURL   = "http://ws.audioscrobbler.com/2.0/"
	userAgent = "mood-index/1.0"
)

// Last.fm API error codes.
const (
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Tags that describe the listener rather than the music.
var ignoredTags = map[string]bool{
	"seen live": true,
	"favorites": true,
}

// Client is a Last.fm API client with an in-memory genre cache.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
	logger      zerolog.Logger

	// Genre by normalized artist name. "" records an artist without tags.
	cache   map[string]string
	cacheMu sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Last.fm client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		logger:      zerolog.Nop(),
		cache:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ArtistGenre returns the artist's most popular Last.fm tag, lowercased, or
// "" when the artist has no usable tags.
func (c *Client) ArtistGenre(ctx context.Context, artist string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(artist))

	c.cacheMu.RLock()
	genre, ok := c.cache[key]
	c.cacheMu.RUnlock()
	if ok {
		return genre, nil
	}

	tags, err := c.artistTags(ctx, artist)
	if err != nil {
		return "", err
	}
	genre = topGenre(tags)

	c.cacheMu.Lock()
	c.cache[key] = genre
	c.cacheMu.Unlock()

	c.logger.Debug().Str("artist", artist).Str("genre", genre).Msg("resolved artist genre")
	return genre, nil
}

// topGenre picks the first tag that names a genre.
func topGenre(tags []Tag) string {
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" || ignoredTags[name] {
			continue
		}
		return name
	}
	return ""
}

func (c *Client) artistTags(ctx context.Context, artist string) ([]Tag, error) {
	params := url.Values{
		"method":      {"artist.getTopTags"},
		"artist":      {artist},
		"autocorrect": {"1"},
		"format":      {"json"},
		"api_key":     {c.apiKey},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching artist tags: %w", err)
	}

	var resp artistTagsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing artist tags response: %w", err)
	}
	return resp.TopTags.Tag, nil
}

// doRequest performs a GET request, retrying with backoff while rate limited.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			c.logger.Debug().Int("attempt", attempt).Msg("rate limited, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}
	return body, nil
}
