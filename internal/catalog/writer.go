package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// EnrichWriter writes catalog rows with moods and times columns. Columns of
// the source header pass through; moods and times are appended unless the
// header already has them, in which case they are overwritten. A row_id
// column is rewritten with the record id, so rows dropped by a lenient
// reader leave no gaps.
type EnrichWriter struct {
	w        *csv.Writer
	width    int
	rowIDCol int
	moodsCol int
	timesCol int
}

// NewEnrichWriter writes the enriched header to dst.
func NewEnrichWriter(dst io.Writer, header []string) (*EnrichWriter, error) {
	out := slices.Clone(header)
	moodsCol := slices.Index(out, ColMoods)
	if moodsCol < 0 {
		out = append(out, ColMoods)
		moodsCol = len(out) - 1
	}
	timesCol := slices.Index(out, ColTimes)
	if timesCol < 0 {
		out = append(out, ColTimes)
		timesCol = len(out) - 1
	}

	w := csv.NewWriter(dst)
	if err := w.Write(out); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &EnrichWriter{
		w:        w,
		width:    len(out),
		rowIDCol: slices.Index(out, ColRowID),
		moodsCol: moodsCol,
		timesCol: timesCol,
	}, nil
}

// Write writes a row read by Reader with the given encoded tags.
func (e *EnrichWriter) Write(r Row, moods, times string) error {
	row := make([]string, e.width)
	copy(row, r.Values)
	if e.rowIDCol >= 0 {
		row[e.rowIDCol] = strconv.Itoa(r.Record.ID)
	}
	row[e.moodsCol] = moods
	row[e.timesCol] = times
	if err := e.w.Write(row); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}

// Flush flushes buffered rows.
func (e *EnrichWriter) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

// RecordHeader is the column layout written by RecordWriter.
var RecordHeader = append([]string{ColRowID, ColTrackID, ColArtists, ColAlbumName, ColTrackName}, append(FeatureNames[:], ColGenre)...)

// RecordWriter writes SongRecords as a catalog CSV that NewReader accepts.
type RecordWriter struct {
	w *csv.Writer
}

// NewRecordWriter writes RecordHeader to dst.
func NewRecordWriter(dst io.Writer) (*RecordWriter, error) {
	w := csv.NewWriter(dst)
	if err := w.Write(RecordHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &RecordWriter{w: w}, nil
}

// Write writes one record.
func (rw *RecordWriter) Write(rec SongRecord) error {
	f := rec.Features
	row := []string{
		strconv.Itoa(rec.ID),
		rec.TrackID,
		strings.Join(rec.Artists, ArtistSeparator),
		rec.AlbumName,
		rec.TrackName,
		FormatFloat(f.Danceability),
		FormatFloat(f.Energy),
		FormatFloat(f.Loudness),
		FormatFloat(f.Speechiness),
		FormatFloat(f.Acousticness),
		FormatFloat(f.Instrumentalness),
		FormatFloat(f.Valence),
		FormatFloat(f.Tempo),
		rec.Genre,
	}
	if err := rw.w.Write(row); err != nil {
		return fmt.Errorf("writing record %d: %w", rec.ID, err)
	}
	return nil
}

// Flush flushes buffered rows.
func (rw *RecordWriter) Flush() error {
	rw.w.Flush()
	return rw.w.Error()
}
