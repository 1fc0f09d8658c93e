// Package index builds the multi-facet inverted index over song identifiers.
package index

import (
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnknownFacet is returned when a facet name is not recognised.
var ErrUnknownFacet = errors.New("unknown facet")

// Facet is a query dimension of the index.
type Facet int

const (
	Time Facet = iota
	Mood
	Artist
	Album
	Track
	Genre
)

// Facets lists every facet in serialization order.
var Facets = [...]Facet{Time, Mood, Artist, Album, Track, Genre}

var facetNames = [...]string{
	Time:   "time",
	Mood:   "mood",
	Artist: "artist",
	Album:  "album",
	Track:  "track",
	Genre:  "genre",
}

func (f Facet) String() string {
	if f < 0 || int(f) >= len(facetNames) {
		return fmt.Sprintf("Facet(%d)", int(f))
	}
	return facetNames[f]
}

// ParseFacet returns the facet named s.
func ParseFacet(s string) (Facet, error) {
	for i, name := range facetNames {
		if name == s {
			return Facet(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFacet, s)
}

// postings maps a facet key to its posting list, keeping keys in first-seen order.
type postings = orderedmap.OrderedMap[string, []int]

func newPostings() *postings {
	return orderedmap.New[string, []int]()
}

// NormalizeName lowercases and trims an artist or album name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AlbumKey scopes an album title to its primary artist.
func AlbumKey(album, primaryArtist string) string {
	return NormalizeName(album) + "|" + NormalizeName(primaryArtist)
}

// SongFacets holds the facet values of one song. Artist and album names are
// given as they appear in the catalog; Tokens are already stemmed.
type SongFacets struct {
	Times   []string
	Moods   []string
	Artists []string
	Album   string
	Tokens  []string
	Genre   string
}

// Builder accumulates postings. It is not safe for concurrent use.
type Builder struct {
	facets [len(Facets)]*postings
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.reset()
	return b
}

func (b *Builder) reset() {
	for i := range b.facets {
		b.facets[i] = newPostings()
	}
}

// AddPosting appends id to the posting list of key, creating the key if needed.
// The key is used verbatim.
func (b *Builder) AddPosting(f Facet, key string, id int) {
	m := b.facets[f]
	ids, _ := m.Get(key)
	m.Set(key, append(ids, id))
}

// AddSong adds one posting per facet value of the song. Postings are not
// deduplicated, so two artists that normalize to the same key both add id.
func (b *Builder) AddSong(id int, sf SongFacets) {
	for _, t := range sf.Times {
		b.AddPosting(Time, t, id)
	}
	for _, m := range sf.Moods {
		b.AddPosting(Mood, m, id)
	}
	for _, a := range sf.Artists {
		b.AddPosting(Artist, NormalizeName(a), id)
	}

	var primary string
	if len(sf.Artists) > 0 {
		primary = sf.Artists[0]
	}
	b.AddPosting(Album, AlbumKey(sf.Album, primary), id)

	for _, tok := range sf.Tokens {
		b.AddPosting(Track, tok, id)
	}
	b.AddPosting(Genre, sf.Genre, id)
}

// Build hands the accumulated postings to a Table and resets the builder.
func (b *Builder) Build() *Table {
	t := &Table{facets: b.facets}
	b.reset()
	return t
}
