package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/index"
)

func testRecords() []catalog.SongRecord {
	return []catalog.SongRecord{
		{
			ID: 0, TrackID: "sp0", TrackName: "Dancing Queen", AlbumName: "Arrival",
			Artists: []string{"ABBA"}, Genre: "pop",
			Features: catalog.AudioFeatures{Danceability: 0.8, Energy: 0.9, Loudness: -5, Speechiness: 0.05, Acousticness: 0.1, Valence: 0.6, Tempo: 180},
		},
		{
			ID: 1, TrackID: "sp1", TrackName: "Nocturne", AlbumName: "Night Music",
			Artists: []string{"Pianist", "Guest"}, Genre: "classical",
			Features: catalog.AudioFeatures{Danceability: 0.3, Energy: 0.2, Loudness: -18, Speechiness: 0.04, Acousticness: 0.9, Instrumentalness: 0.1, Valence: 0.2, Tempo: 70},
		},
		{
			ID: 2, TrackID: "sp2", TrackName: "2023", AlbumName: "Arrival",
			Artists: []string{"abba "}, Genre: "pop",
			Features: catalog.AudioFeatures{Danceability: 0.9, Energy: 0.95, Loudness: -3, Speechiness: 0.1, Acousticness: 0.05, Valence: 0.8, Tempo: 128},
		},
	}
}

func TestRun(t *testing.T) {
	svc := New(WithConcurrency(2))
	res, err := svc.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	tests := []struct {
		facet index.Facet
		key   string
		want  []int
	}{
		{index.Artist, "abba", []int{0, 2}},
		{index.Artist, "guest", []int{1}},
		{index.Album, "arrival|abba", []int{0, 2}},
		{index.Track, "danc", []int{0}},
		{index.Track, "nocturn", []int{1}},
		{index.Genre, "pop", []int{0, 2}},
		{index.Mood, "energetic", []int{0, 2}},
		{index.Mood, "melancholic", []int{1}},
		{index.Time, "night", []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.facet.String()+"/"+tt.key, func(t *testing.T) {
			if got := res.Index.Postings(tt.facet, tt.key); !slices.Equal(got, tt.want) {
				t.Errorf("Postings(%v, %q) = %v, want %v", tt.facet, tt.key, got, tt.want)
			}
		})
	}

	if res.Features.Len() != 3 {
		t.Fatalf("feature store has %d songs, want 3", res.Features.Len())
	}
	for i, rec := range testRecords() {
		id, _ := res.Features.SpotifyID(i)
		v, _ := res.Features.Vector(i)
		if id != rec.TrackID || v != catalog.Normalize(rec.Features) {
			t.Errorf("song %d = %s %v, want %s", i, id, v, rec.TrackID)
		}
	}
	if got := res.Index.Len(index.Track); got != 3 {
		t.Errorf("track keys = %d, want 3 (numeric title has no tokens)", got)
	}
}

func TestRunDeterministicAcrossConcurrency(t *testing.T) {
	var records []catalog.SongRecord
	for i := range 50 {
		rec := testRecords()[i%3]
		rec.ID = i
		rec.Features.Energy = float64(i%10) / 10
		records = append(records, rec)
	}

	serial, err := New(WithConcurrency(1)).Run(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := New(WithConcurrency(8)).Run(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range index.Facets {
		if !slices.Equal(serial.Index.Keys(f), parallel.Index.Keys(f)) {
			t.Errorf("%v keys differ", f)
		}
		for _, k := range serial.Index.Keys(f) {
			if !slices.Equal(serial.Index.Postings(f, k), parallel.Index.Postings(f, k)) {
				t.Errorf("%v[%q] differs", f, k)
			}
		}
	}
}

func TestRunRejectsBatch(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]catalog.SongRecord)
		wantErr error
	}{
		{"missing track id", func(r []catalog.SongRecord) { r[2].TrackID = "" }, catalog.ErrMalformedInput},
		{"no artists", func(r []catalog.SongRecord) { r[1].Artists = nil }, catalog.ErrMalformedInput},
		{"gap", func(r []catalog.SongRecord) { r[1].ID = 5 }, catalog.ErrIdentifierGap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := testRecords()
			tt.mutate(records)
			svc := New()
			res, err := svc.Run(context.Background(), records)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Error("Run() returned a partial result")
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Run(ctx, testRecords()); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunEmpty(t *testing.T) {
	res, err := New().Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Features.Len() != 0 || res.Index.Len(index.Genre) != 0 {
		t.Error("empty batch should build empty structures")
	}
}
