package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/artifact/artifacttest"
)

// openTestDB connects to MOOD_INDEX_TEST_POSTGRES_URL or skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("MOOD_INDEX_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("MOOD_INDEX_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestBuildRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t).Builds()

	want := artifacttest.Bundle(t)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, want.BuildID) })

	got, err := repo.Load(ctx, want.BuildID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	artifacttest.AssertEqual(t, want, got)
}

func TestBuildRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t).Builds()

	_, err := repo.Load(ctx, uuid.New())
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
