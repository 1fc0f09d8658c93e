// Package catalog defines song records and reads and writes the catalog CSV.
package catalog

import (
	"errors"
	"fmt"

	"github.com/justestif/go-spotify-mood-index/internal/validation"
)

// Common errors.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrIdentifierGap  = errors.New("identifier gap or duplicate")
)

// SongRecord is one catalog entry. ID is dense and assigned in ingestion
// order starting at 0.
type SongRecord struct {
	ID        int
	TrackID   string   `validate:"required"`
	TrackName string   `validate:"required"`
	AlbumName string   `validate:"required"`
	Artists   []string `validate:"min=1,dive,required"`
	Genre     string   `validate:"required"`
	Features  AudioFeatures
}

// RecordError reports a record that failed parsing or validation.
// Line is the 1-based CSV line, or 0 when the record did not come from CSV.
type RecordError struct {
	Line int
	ID   int
	Err  error
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("record %d (line %d): %v", e.ID, e.Line, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.ID, e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrMalformedInput, e.Err}
}

// Validate checks that the record has every required field and finite
// feature values.
func (r SongRecord) Validate() error {
	if err := validation.Struct(r); err != nil {
		return &RecordError{ID: r.ID, Err: err}
	}
	return nil
}
