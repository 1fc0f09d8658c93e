package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Catalog CSV column names.
const (
	ColRowID     = "row_id"
	ColTrackID   = "track_id"
	ColArtists   = "artists"
	ColAlbumName = "album_name"
	ColTrackName = "track_name"
	ColGenre     = "track_genre"
	ColMoods     = "moods"
	ColTimes     = "times"
)

// ArtistSeparator joins multiple artists in the artists column.
const ArtistSeparator = ";"

var requiredColumns = append([]string{ColTrackID, ColArtists, ColAlbumName, ColTrackName, ColGenre}, FeatureNames[:]...)

// Row is one parsed CSV line. Values holds the raw fields in header order so
// callers can pass through columns the record does not model.
type Row struct {
	Line   int
	Values []string
	Record SongRecord
}

// Reader reads song records from a catalog CSV with a header line.
type Reader struct {
	r       *csv.Reader
	header  []string
	cols    map[string]int
	lenient bool
	logger  zerolog.Logger
	nextID  int
	skipped int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLenient makes the reader skip malformed rows instead of failing.
// Skipped rows are logged and do not consume an identifier.
func WithLenient(lenient bool) ReaderOption {
	return func(r *Reader) {
		r.lenient = lenient
	}
}

// WithLogger sets the logger used for skipped rows.
func WithLogger(l zerolog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = l
	}
}

// NewReader reads the header from src and checks the required columns.
func NewReader(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMalformedInput, strings.Join(missing, ", "))
	}

	r := &Reader{r: cr, header: header, cols: cols, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Header returns the CSV header.
func (r *Reader) Header() []string {
	return r.header
}

// Skipped returns how many rows lenient mode has dropped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// ReadRow returns the next row, or io.EOF when the input is exhausted.
func (r *Reader) ReadRow() (Row, error) {
	for {
		values, err := r.r.Read()
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}

		var line int
		var perr *csv.ParseError
		switch {
		case errors.As(err, &perr):
			line = perr.StartLine
		case err != nil:
			return Row{}, fmt.Errorf("reading catalog: %w", err)
		default:
			line, _ = r.r.FieldPos(0)
		}

		if err == nil {
			var rec SongRecord
			rec, err = r.parse(values)
			if err == nil {
				err = rec.Validate()
			}
			if err == nil {
				r.nextID++
				return Row{Line: line, Values: values, Record: rec}, nil
			}
		}

		var gap *gapError
		if errors.As(err, &gap) {
			return Row{}, fmt.Errorf("line %d: %w", line, err)
		}
		if !r.lenient {
			var re *RecordError
			if errors.As(err, &re) {
				re.Line = line
				return Row{}, re
			}
			return Row{}, &RecordError{Line: line, ID: r.nextID, Err: err}
		}
		r.skipped++
		r.logger.Warn().Int("line", line).Err(err).Msg("skipping malformed row")
	}
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() (SongRecord, error) {
	row, err := r.ReadRow()
	return row.Record, err
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]SongRecord, error) {
	var out []SongRecord
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

type gapError struct {
	got, want int
}

func (e *gapError) Error() string {
	return fmt.Sprintf("row_id %d, want %d", e.got, e.want)
}

func (e *gapError) Unwrap() error { return ErrIdentifierGap }

func (r *Reader) field(values []string, name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(values) {
		return ""
	}
	return values[i]
}

func (r *Reader) parse(values []string) (SongRecord, error) {
	rec := SongRecord{
		ID:        r.nextID,
		TrackID:   strings.TrimSpace(r.field(values, ColTrackID)),
		TrackName: r.field(values, ColTrackName),
		AlbumName: r.field(values, ColAlbumName),
		Genre:     r.field(values, ColGenre),
	}
	if artists := r.field(values, ColArtists); artists != "" {
		rec.Artists = strings.Split(artists, ArtistSeparator)
	}

	// row_id is only checked in strict mode; lenient mode renumbers.
	if _, ok := r.cols[ColRowID]; ok && !r.lenient {
		raw := strings.TrimSpace(r.field(values, ColRowID))
		id, err := strconv.Atoi(raw)
		if err != nil {
			return rec, fmt.Errorf("parsing %s %q: %w", ColRowID, raw, err)
		}
		if id != r.nextID {
			return rec, &gapError{got: id, want: r.nextID}
		}
	}

	targets := [Dimensions]*float64{
		&rec.Features.Danceability,
		&rec.Features.Energy,
		&rec.Features.Loudness,
		&rec.Features.Speechiness,
		&rec.Features.Acousticness,
		&rec.Features.Instrumentalness,
		&rec.Features.Valence,
		&rec.Features.Tempo,
	}
	for i, name := range FeatureNames {
		raw := strings.TrimSpace(r.field(values, name))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("parsing %s %q: %w", name, raw, err)
		}
		*targets[i] = v
	}
	return rec, nil
}

// FormatFloat renders f with the fewest digits that parse back to f.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
