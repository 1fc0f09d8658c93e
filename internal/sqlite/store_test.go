package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-mood-index/internal/artifact"
	"github.com/justestif/go-spotify-mood-index/internal/artifact/artifacttest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	want := artifacttest.Bundle(t)
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx, want.BuildID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	artifacttest.AssertEqual(t, want, got)
}

func TestStoreLoadLatest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	older := artifacttest.Bundle(t)
	older.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := artifacttest.Bundle(t)
	newer.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, b := range []*artifact.Bundle{newer, older} {
		if err := s.Save(ctx, b); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	got, err := s.Load(ctx, uuid.Nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BuildID != newer.BuildID {
		t.Errorf("latest build = %s, want %s", got.BuildID, newer.BuildID)
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Load(ctx, uuid.Nil); !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("Load(empty) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Load(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(unknown) error = %v, want ErrNotFound", err)
	}
}
