package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
)

// BuildRepository handles build database operations.
type BuildRepository struct {
	pool *pgxpool.Pool
}

var _ artifact.Repository = (*BuildRepository)(nil)

// Save stores a bundle in one transaction.
func (r *BuildRepository) Save(ctx context.Context, b *artifact.Bundle) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO builds (id, created_at, songs) VALUES ($1, $2, $3)`,
		b.BuildID, b.CreatedAt, b.Features.Len(),
	)
	if err != nil {
		return fmt.Errorf("inserting build: %w", err)
	}

	var rows [][]any
	for _, f := range index.Facets {
		ord := 0
		b.Index.Each(f, func(term string, ids []int) {
			songIDs := make([]int32, len(ids))
			for i, id := range ids {
				songIDs[i] = int32(id)
			}
			rows = append(rows, []any{b.BuildID, f.String(), term, ord, songIDs})
			ord++
		})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"postings"},
		[]string{"build_id", "facet", "term", "term_ord", "song_ids"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copying postings: %w", err)
	}

	if err := insertVectors(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertVectors writes the feature store with one unnest batch.
func insertVectors(ctx context.Context, tx pgx.Tx, b *artifact.Bundle) error {
	n := b.Features.Len()
	if n == 0 {
		return nil
	}

	songIDs := make([]int32, n)
	spotifyIDs := make([]string, n)
	var cols [catalog.Dimensions][]float64
	for d := range cols {
		cols[d] = make([]float64, n)
	}
	for i := range n {
		v, _ := b.Features.Vector(i)
		songIDs[i] = int32(i)
		spotifyIDs[i], _ = b.Features.SpotifyID(i)
		for d := range cols {
			cols[d][i] = v[d]
		}
	}

	query := `
		INSERT INTO feature_vectors (build_id, song_id, spotify_id, danceability, energy, loudness,
			speechiness, acousticness, instrumentalness, valence, tempo)
		SELECT $1::uuid, * FROM unnest($2::int[], $3::text[], $4::float8[], $5::float8[], $6::float8[],
			$7::float8[], $8::float8[], $9::float8[], $10::float8[], $11::float8[])
	`
	_, err := tx.Exec(ctx, query, b.BuildID, songIDs, spotifyIDs,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6], cols[7])
	if err != nil {
		return fmt.Errorf("batch inserting feature vectors: %w", err)
	}
	return nil
}

// Latest returns the id of the most recent build.
func (r *BuildRepository) Latest(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM builds ORDER BY created_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("querying latest build: %w", err)
	}
	return id, nil
}

// Load reads a build. uuid.Nil loads the most recent one.
func (r *BuildRepository) Load(ctx context.Context, buildID uuid.UUID) (*artifact.Bundle, error) {
	if buildID == uuid.Nil {
		id, err := r.Latest(ctx)
		if err != nil {
			return nil, err
		}
		buildID = id
	}

	var createdAt time.Time
	err := r.pool.QueryRow(ctx, `SELECT created_at FROM builds WHERE id = $1`, buildID).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying build: %w", err)
	}

	idx, err := r.loadIndex(ctx, buildID)
	if err != nil {
		return nil, err
	}
	features, err := r.loadFeatures(ctx, buildID)
	if err != nil {
		return nil, err
	}
	return &artifact.Bundle{BuildID: buildID, CreatedAt: createdAt.UTC(), Index: idx, Features: features}, nil
}

func (r *BuildRepository) loadIndex(ctx context.Context, buildID uuid.UUID) (*index.Table, error) {
	ib := index.NewBuilder()
	for _, f := range index.Facets {
		rows, err := r.pool.Query(ctx, `
			SELECT term, song_ids FROM postings
			WHERE build_id = $1 AND facet = $2
			ORDER BY term_ord
		`, buildID, f.String())
		if err != nil {
			return nil, fmt.Errorf("querying %s postings: %w", f, err)
		}

		var term string
		var songIDs []int32
		_, err = pgx.ForEachRow(rows, []any{&term, &songIDs}, func() error {
			for _, id := range songIDs {
				ib.AddPosting(f, term, int(id))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s postings: %w", f, err)
		}
	}
	return ib.Build(), nil
}

func (r *BuildRepository) loadFeatures(ctx context.Context, buildID uuid.UUID) (*featurestore.Store, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT song_id, spotify_id, danceability, energy, loudness, speechiness,
			acousticness, instrumentalness, valence, tempo
		FROM feature_vectors
		WHERE build_id = $1
		ORDER BY song_id
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying feature vectors: %w", err)
	}
	defer rows.Close()

	fb := featurestore.NewBuilder(0)
	for rows.Next() {
		var id int32
		var spotifyID string
		var v catalog.FeatureVector
		if err := rows.Scan(&id, &spotifyID, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7]); err != nil {
			return nil, fmt.Errorf("scanning feature vector: %w", err)
		}
		if err := fb.AddVector(int(id), spotifyID, v); err != nil {
			return nil, fmt.Errorf("loading feature vector: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature vectors: %w", err)
	}
	return fb.Build(), nil
}

// Delete removes a build and everything stored under it.
func (r *BuildRepository) Delete(ctx context.Context, buildID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM builds WHERE id = $1`, buildID)
	if err != nil {
		return fmt.Errorf("deleting build: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
