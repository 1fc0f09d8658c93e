package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

const maxItemsPerPage = 100

// PlaylistTracks returns the tracks of a playlist in playlist order.
// Local files, episodes and unavailable tracks are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.FullTrack, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(maxItemsPerPage))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist items: %w", err)
	}

	var tracks []spotify.FullTrack
	for {
		for _, item := range page.Items {
			if item.IsLocal || item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			tracks = append(tracks, *item.Track.Track)
		}
		c.logger.Debug().Int("tracks", len(tracks)).Msg("fetched playlist page")

		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next page: %w", err)
		}
	}
	return tracks, nil
}

// FetchPlaylist builds catalog records for every track of a playlist that
// has audio features. Ids are assigned densely in playlist order.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) ([]catalog.SongRecord, error) {
	tracks, err := c.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return c.Records(ctx, tracks)
}

// Records looks up audio features and primary-artist genres for tracks and
// converts them. Tracks without features or artists are dropped.
func (c *Client) Records(ctx context.Context, tracks []spotify.FullTrack) ([]catalog.SongRecord, error) {
	ids := make([]spotify.ID, len(tracks))
	var artistIDs []spotify.ID
	for i, t := range tracks {
		ids[i] = t.ID
		if len(t.Artists) > 0 {
			artistIDs = append(artistIDs, t.Artists[0].ID)
		}
	}

	features, err := c.FetchAudioFeatures(ctx, ids)
	if err != nil {
		return nil, err
	}
	genres, err := c.FetchArtistGenres(ctx, artistIDs)
	if err != nil {
		return nil, err
	}

	records := make([]catalog.SongRecord, 0, len(tracks))
	for _, t := range tracks {
		f, ok := features[t.ID]
		if !ok || len(t.Artists) == 0 {
			c.logger.Debug().Str("track_id", t.ID.String()).Msg("skipping track without audio features")
			continue
		}
		genre := c.genreOf(ctx, t.Artists[0], genres[t.Artists[0].ID])
		records = append(records, convertTrack(len(records), t, f, genre))
	}

	c.logger.Info().Int("tracks", len(tracks)).Int("records", len(records)).Msg("fetched catalog records")
	return records, nil
}

// genreOf returns the first Spotify genre of artist, then the fallback
// source's genre, then the default genre.
func (c *Client) genreOf(ctx context.Context, artist spotify.SimpleArtist, genres []string) string {
	if g := primaryGenre(genres, ""); g != "" || c.fallback == nil {
		return primaryGenre(genres, c.defaultGenre)
	}
	g, err := c.fallback.ArtistGenre(ctx, artist.Name)
	if err != nil {
		c.logger.Warn().Err(err).Str("artist", artist.Name).Msg("genre fallback failed")
		return c.defaultGenre
	}
	return primaryGenre([]string{g}, c.defaultGenre)
}

// convertTrack converts a Spotify track to a catalog record.
func convertTrack(id int, t spotify.FullTrack, f catalog.AudioFeatures, genre string) catalog.SongRecord {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}
	return catalog.SongRecord{
		ID:        id,
		TrackID:   t.ID.String(),
		TrackName: t.Name,
		AlbumName: t.Album.Name,
		Artists:   artists,
		Genre:     genre,
		Features:  f,
	}
}
