package spotify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

const maxTracksPerRequest = 100

// FetchAudioFeatures retrieves audio features for the given track ids.
// Batches requests to max 100 tracks per request per Spotify API limits.
// Tracks without available audio features are missing from the result.
func (c *Client) FetchAudioFeatures(ctx context.Context, ids []spotify.ID) (map[spotify.ID]catalog.AudioFeatures, error) {
	out := make(map[spotify.ID]catalog.AudioFeatures, len(ids))

	for i, batch := range batches(ids, maxTracksPerRequest) {
		start := i*maxTracksPerRequest + 1
		end := start + len(batch) - 1
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		c.logger.Debug().Int("from", start).Int("to", end).Int("total", len(ids)).Msg("fetching audio features")
		features, err := c.api.GetAudioFeatures(ctx, batch...)
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", start, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue // Track has no audio features
			}
			out[f.ID] = convertAudioFeatures(f)
		}
	}
	return out, nil
}

// convertAudioFeatures copies the scored features of f.
func convertAudioFeatures(f *spotify.AudioFeatures) catalog.AudioFeatures {
	return catalog.AudioFeatures{
		Danceability:     widen(f.Danceability),
		Energy:           widen(f.Energy),
		Loudness:         widen(f.Loudness),
		Speechiness:      widen(f.Speechiness),
		Acousticness:     widen(f.Acousticness),
		Instrumentalness: widen(f.Instrumentalness),
		Valence:          widen(f.Valence),
		Tempo:            widen(f.Tempo),
	}
}

// widen converts the API's float32 to the float64 with the same shortest
// decimal form, so 0.8 stays 0.8 rather than 0.800000011920929.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}

// batches splits ids into chunks of at most size.
func batches(ids []spotify.ID, size int) [][]spotify.ID {
	var out [][]spotify.ID
	for i := 0; i < len(ids); i += size {
		out = append(out, ids[i:min(i+size, len(ids))])
	}
	return out
}
