package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
)

// File names inside a bundle directory.
const (
	IndexFile    = "index.json"
	FeaturesFile = "fstore.json"
	ManifestFile = "manifest.json"
)

// Manifest describes the bundle stored in a directory.
type Manifest struct {
	BuildID   uuid.UUID      `json:"build_id"`
	CreatedAt time.Time      `json:"created_at"`
	Songs     int            `json:"songs"`
	FacetKeys map[string]int `json:"facet_keys"`
}

// Dir stores one bundle as JSON files in a directory. Saving replaces the
// previous bundle.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path. The directory is created on Save.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Save writes the index and feature store, then the manifest. Each file is
// replaced atomically.
func (d *Dir) Save(_ context.Context, b *Bundle) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}

	data, err := json.Marshal(b.Index)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(d.path, IndexFile), data); err != nil {
		return err
	}

	data, err = json.Marshal(b.Features)
	if err != nil {
		return fmt.Errorf("encoding feature store: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(d.path, FeaturesFile), data); err != nil {
		return err
	}

	m := Manifest{
		BuildID:   b.BuildID,
		CreatedAt: b.CreatedAt,
		Songs:     b.Features.Len(),
		FacetKeys: make(map[string]int, len(index.Facets)),
	}
	for _, f := range index.Facets {
		m.FacetKeys[f.String()] = b.Index.Len(f)
	}
	data, err = json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(d.path, ManifestFile), data)
}

// Load reads the stored bundle. A non-nil buildID must match the manifest.
func (d *Dir) Load(_ context.Context, buildID uuid.UUID) (*Bundle, error) {
	var m Manifest
	if err := readJSON(filepath.Join(d.path, ManifestFile), &m); err != nil {
		return nil, err
	}
	if buildID != uuid.Nil && buildID != m.BuildID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, buildID)
	}

	b := &Bundle{
		BuildID:   m.BuildID,
		CreatedAt: m.CreatedAt,
		Index:     &index.Table{},
		Features:  &featurestore.Store{},
	}
	if err := readJSON(filepath.Join(d.path, IndexFile), b.Index); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(d.path, FeaturesFile), b.Features); err != nil {
		return nil, err
	}
	return b, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s missing", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp_"+filepath.Base(path)+"_*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
