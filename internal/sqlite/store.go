// Package sqlite persists index builds in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
)

//go:embed schema.sql
var schema string

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound matches artifact.ErrNotFound.
var ErrNotFound = fmt.Errorf("sqlite: %w", artifact.ErrNotFound)

// Store implements artifact.Repository on SQLite.
type Store struct {
	db *sql.DB
}

var _ artifact.Repository = (*Store)(nil)

// Open opens the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a bundle in one transaction.
func (s *Store) Save(ctx context.Context, b *artifact.Bundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, created_at, songs) VALUES (?, ?, ?)`,
		b.BuildID.String(), b.CreatedAt.UTC().Format(timeLayout), b.Features.Len(),
	)
	if err != nil {
		return fmt.Errorf("inserting build: %w", err)
	}

	postingStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO postings (build_id, facet, term, term_ord, position, song_id) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing posting insert: %w", err)
	}
	defer postingStmt.Close()

	for _, f := range index.Facets {
		ord := 0
		var insertErr error
		b.Index.Each(f, func(term string, ids []int) {
			for pos, id := range ids {
				if insertErr != nil {
					return
				}
				_, insertErr = postingStmt.ExecContext(ctx, b.BuildID.String(), f.String(), term, ord, pos, id)
			}
			ord++
		})
		if insertErr != nil {
			return fmt.Errorf("inserting %s postings: %w", f, insertErr)
		}
	}

	vectorStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feature_vectors (build_id, song_id, spotify_id, danceability, energy, loudness,
			speechiness, acousticness, instrumentalness, valence, tempo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing vector insert: %w", err)
	}
	defer vectorStmt.Close()

	for i := range b.Features.Len() {
		v, _ := b.Features.Vector(i)
		spotifyID, _ := b.Features.SpotifyID(i)
		_, err := vectorStmt.ExecContext(ctx, b.BuildID.String(), i, spotifyID,
			v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7])
		if err != nil {
			return fmt.Errorf("inserting feature vector %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Latest returns the id of the most recent build.
func (s *Store) Latest(ctx context.Context) (uuid.UUID, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM builds ORDER BY created_at DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("querying latest build: %w", err)
	}
	return uuid.Parse(raw)
}

// Load reads a build. uuid.Nil loads the most recent one.
func (s *Store) Load(ctx context.Context, buildID uuid.UUID) (*artifact.Bundle, error) {
	if buildID == uuid.Nil {
		id, err := s.Latest(ctx)
		if err != nil {
			return nil, err
		}
		buildID = id
	}

	var rawCreated string
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM builds WHERE id = ?`, buildID.String()).Scan(&rawCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying build: %w", err)
	}
	createdAt, err := time.Parse(timeLayout, rawCreated)
	if err != nil {
		return nil, fmt.Errorf("parsing build time: %w", err)
	}

	idx, err := s.loadIndex(ctx, buildID)
	if err != nil {
		return nil, err
	}
	features, err := s.loadFeatures(ctx, buildID)
	if err != nil {
		return nil, err
	}
	return &artifact.Bundle{BuildID: buildID, CreatedAt: createdAt, Index: idx, Features: features}, nil
}

func (s *Store) loadIndex(ctx context.Context, buildID uuid.UUID) (*index.Table, error) {
	ib := index.NewBuilder()
	for _, f := range index.Facets {
		err := func() error {
			rows, err := s.db.QueryContext(ctx, `
				SELECT term, song_id FROM postings
				WHERE build_id = ? AND facet = ?
				ORDER BY term_ord, position
			`, buildID.String(), f.String())
			if err != nil {
				return fmt.Errorf("querying %s postings: %w", f, err)
			}
			defer rows.Close()

			for rows.Next() {
				var term string
				var id int
				if err := rows.Scan(&term, &id); err != nil {
					return fmt.Errorf("scanning %s posting: %w", f, err)
				}
				ib.AddPosting(f, term, id)
			}
			return rows.Err()
		}()
		if err != nil {
			return nil, err
		}
	}
	return ib.Build(), nil
}

func (s *Store) loadFeatures(ctx context.Context, buildID uuid.UUID) (*featurestore.Store, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, spotify_id, danceability, energy, loudness, speechiness,
			acousticness, instrumentalness, valence, tempo
		FROM feature_vectors
		WHERE build_id = ?
		ORDER BY song_id
	`, buildID.String())
	if err != nil {
		return nil, fmt.Errorf("querying feature vectors: %w", err)
	}
	defer rows.Close()

	fb := featurestore.NewBuilder(0)
	for rows.Next() {
		var id int
		var spotifyID string
		var v catalog.FeatureVector
		if err := rows.Scan(&id, &spotifyID, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7]); err != nil {
			return nil, fmt.Errorf("scanning feature vector: %w", err)
		}
		if err := fb.AddVector(id, spotifyID, v); err != nil {
			return nil, fmt.Errorf("loading feature vector: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature vectors: %w", err)
	}
	return fb.Build(), nil
}
