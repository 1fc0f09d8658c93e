package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

const maxArtistsPerRequest = 50

// FetchArtistGenres returns the genres of each artist. Results are cached
// for the lifetime of the client, so only unseen artists are requested.
func (c *Client) FetchArtistGenres(ctx context.Context, ids []spotify.ID) (map[spotify.ID][]string, error) {
	out := make(map[spotify.ID][]string, len(ids))
	var missing []spotify.ID
	seen := make(map[spotify.ID]bool, len(ids))

	c.genresMu.RLock()
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if g, ok := c.genres[id]; ok {
			out[id] = g
		} else {
			missing = append(missing, id)
		}
	}
	c.genresMu.RUnlock()

	for _, batch := range batches(missing, maxArtistsPerRequest) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		artists, err := c.api.GetArtists(ctx, batch...)
		if err != nil {
			return nil, fmt.Errorf("fetching artists: %w", err)
		}

		c.genresMu.Lock()
		for _, a := range artists {
			if a == nil {
				continue
			}
			genres := a.Genres
			if genres == nil {
				genres = []string{}
			}
			c.genres[a.ID] = genres
			out[a.ID] = genres
		}
		c.genresMu.Unlock()
	}
	return out, nil
}

// primaryGenre returns the first genre, or fallback when there is none.
func primaryGenre(genres []string, fallback string) string {
	if len(genres) == 0 || genres[0] == "" {
		return fallback
	}
	return genres[0]
}
