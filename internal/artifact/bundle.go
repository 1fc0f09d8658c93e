// Package artifact packages a built index and feature store and stores them
// as JSON files.
package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
)

// ErrNotFound is returned when no stored build matches.
var ErrNotFound = errors.New("build not found")

// Bundle is the output of one build.
type Bundle struct {
	BuildID   uuid.UUID
	CreatedAt time.Time
	Index     *index.Table
	Features  *featurestore.Store
}

// NewBundle wraps built structures under a fresh build id.
func NewBundle(idx *index.Table, features *featurestore.Store) *Bundle {
	return &Bundle{
		BuildID:   uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Index:     idx,
		Features:  features,
	}
}

// Repository saves and loads bundles. Load with uuid.Nil returns the most
// recent build.
type Repository interface {
	Save(ctx context.Context, b *Bundle) error
	Load(ctx context.Context, buildID uuid.UUID) (*Bundle, error)
}
