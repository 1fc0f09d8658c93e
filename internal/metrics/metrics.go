// Package metrics defines the Prometheus metrics of an index build. Builds are
// batch jobs, so metrics live in a per-run registry that is written to a
// node-exporter textfile at the end instead of being scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch holds the metrics of one build run.
type Batch struct {
	Registry *prometheus.Registry

	SongsIndexed   prometheus.Counter
	SongsSkipped   prometheus.Counter
	MoodTags       *prometheus.CounterVec
	TimeTags       *prometheus.CounterVec
	FacetKeys      *prometheus.GaugeVec
	FacetPostings  *prometheus.GaugeVec
	BuildDuration  prometheus.Gauge
	LastSuccessful prometheus.Gauge
}

// NewBatch registers a fresh set of metrics on a new registry.
func NewBatch() *Batch {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Batch{
		Registry: reg,
		SongsIndexed: f.NewCounter(prometheus.CounterOpts{
			Name: "mood_index_songs_indexed_total",
			Help: "Songs added to the index and feature store",
		}),
		SongsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "mood_index_songs_skipped_total",
			Help: "Malformed catalog rows skipped in lenient mode",
		}),
		MoodTags: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mood_index_mood_tags_total",
			Help: "Mood tags assigned, by mood",
		}, []string{"mood"}),
		TimeTags: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mood_index_time_tags_total",
			Help: "Time-of-day tags assigned, by time",
		}, []string{"time"}),
		FacetKeys: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mood_index_facet_keys",
			Help: "Distinct keys per index facet",
		}, []string{"facet"}),
		FacetPostings: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mood_index_facet_postings",
			Help: "Postings per index facet",
		}, []string{"facet"}),
		BuildDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "mood_index_build_duration_seconds",
			Help: "Wall time of the last build",
		}),
		LastSuccessful: f.NewGauge(prometheus.GaugeOpts{
			Name: "mood_index_last_success_timestamp_seconds",
			Help: "Unix time of the last successful build",
		}),
	}
}

// WriteTextfile writes every metric in the text exposition format.
func (b *Batch) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, b.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
