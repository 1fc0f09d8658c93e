// Package pipeline turns a batch of song records into an index and a feature
// store.
//
// A run has two phases. Records are validated, classified and tokenized
// concurrently; nothing shared is touched. Only when every record has passed
// are they inserted into the builders, one at a time in identifier order, so
// posting lists are deterministic and a bad record leaves nothing half built.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/classify"
	"github.com/justestif/go-spotify-mood-index/internal/featurestore"
	"github.com/justestif/go-spotify-mood-index/internal/index"
	"github.com/justestif/go-spotify-mood-index/internal/metrics"
	"github.com/justestif/go-spotify-mood-index/internal/tokenize"
)

// Song is a record with its derived tags and track tokens.
type Song struct {
	Record catalog.SongRecord
	Moods  []classify.Mood
	Times  []classify.TimeOfDay
	Tokens []string
}

// Facets returns the index facet values of the song.
func (s Song) Facets() index.SongFacets {
	moods := make([]string, len(s.Moods))
	for i, m := range s.Moods {
		moods[i] = m.String()
	}
	times := make([]string, len(s.Times))
	for i, t := range s.Times {
		times[i] = t.String()
	}
	return index.SongFacets{
		Times:   times,
		Moods:   moods,
		Artists: s.Record.Artists,
		Album:   s.Record.AlbumName,
		Tokens:  s.Tokens,
		Genre:   s.Record.Genre,
	}
}

// Result is the output of Run.
type Result struct {
	Index    *index.Table
	Features *featurestore.Store
	Songs    []Song
}

// Service runs batches.
type Service struct {
	concurrency int
	logger      zerolog.Logger
	metrics     *metrics.Batch
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets how many records are classified at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the progress logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records build metrics into m.
func WithMetrics(m *metrics.Batch) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a Service. Concurrency defaults to the number of CPUs.
func New(opts ...Option) *Service {
	s := &Service{
		concurrency: runtime.NumCPU(),
		logger:      zerolog.Nop(),
		metrics:     metrics.NewBatch(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the metrics the service records into.
func (s *Service) Metrics() *metrics.Batch {
	return s.metrics
}

// Classify validates and classifies records concurrently. Results are in
// input order. records[i].ID must equal i. When several records are invalid
// the error of the first one is returned.
func (s *Service) Classify(ctx context.Context, records []catalog.SongRecord) ([]Song, error) {
	songs := make([]Song, len(records))
	errs := make([]error, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			songs[i], errs[i] = classifyRecord(i, records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("classifying records: %w", err)
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return songs, nil
}

func classifyRecord(pos int, rec catalog.SongRecord) (Song, error) {
	if rec.ID != pos {
		return Song{}, fmt.Errorf("%w: record at position %d has id %d", catalog.ErrIdentifierGap, pos, rec.ID)
	}
	if err := rec.Validate(); err != nil {
		return Song{}, err
	}
	tags := classify.Classify(rec.Features)
	return Song{
		Record: rec,
		Moods:  tags.Moods,
		Times:  tags.Times,
		Tokens: tokenize.Tokenize(rec.TrackName),
	}, nil
}

// Insert adds classified songs to fresh builders in order and returns the
// built structures.
func (s *Service) Insert(songs []Song) (*Result, error) {
	ib := index.NewBuilder()
	fb := featurestore.NewBuilder(len(songs))

	for _, song := range songs {
		rec := song.Record
		if err := fb.Add(rec.ID, rec.TrackID, rec.Features); err != nil {
			return nil, fmt.Errorf("adding features of record %d: %w", rec.ID, err)
		}
		ib.AddSong(rec.ID, song.Facets())

		s.metrics.SongsIndexed.Inc()
		for _, m := range song.Moods {
			s.metrics.MoodTags.WithLabelValues(m.String()).Inc()
		}
		for _, t := range song.Times {
			s.metrics.TimeTags.WithLabelValues(t.String()).Inc()
		}
	}

	res := &Result{Index: ib.Build(), Features: fb.Build(), Songs: songs}
	for _, f := range index.Facets {
		s.metrics.FacetKeys.WithLabelValues(f.String()).Set(float64(res.Index.Len(f)))
		s.metrics.FacetPostings.WithLabelValues(f.String()).Set(float64(res.Index.PostingCount(f)))
	}
	return res, nil
}

// Run classifies records and builds the index and feature store.
func (s *Service) Run(ctx context.Context, records []catalog.SongRecord) (*Result, error) {
	start := time.Now()

	songs, err := s.Classify(ctx, records)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("songs", len(songs)).Dur("elapsed", time.Since(start)).Msg("classified records")

	res, err := s.Insert(songs)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.BuildDuration.Set(elapsed.Seconds())
	s.metrics.LastSuccessful.SetToCurrentTime()
	s.logger.Info().
		Int("songs", res.Features.Len()).
		Int("artists", res.Index.Len(index.Artist)).
		Int("tokens", res.Index.Len(index.Track)).
		Dur("elapsed", elapsed).
		Msg("built index")
	return res, nil
}
