package index

import (
	"fmt"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is a built index. It is read-only; posting slices returned by its
// methods must not be modified.
type Table struct {
	facets [len(Facets)]*postings
}

// Postings returns the ids stored under key, in insertion order.
func (t *Table) Postings(f Facet, key string) []int {
	ids, _ := t.facets[f].Get(key)
	return ids
}

// Keys returns the keys of a facet in insertion order.
func (t *Table) Keys(f Facet) []string {
	m := t.facets[f]
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of keys in a facet.
func (t *Table) Len(f Facet) int {
	return t.facets[f].Len()
}

// PostingCount returns the total number of postings in a facet.
func (t *Table) PostingCount(f Facet) int {
	n := 0
	for pair := t.facets[f].Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// Each calls fn for every key of a facet in insertion order.
func (t *Table) Each(f Facet, fn func(key string, ids []int)) {
	for pair := t.facets[f].Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

type tableJSON struct {
	Time   *postings `json:"time"`
	Mood   *postings `json:"mood"`
	Artist *postings `json:"artist"`
	Album  *postings `json:"album"`
	Track  *postings `json:"track"`
	Genre  *postings `json:"genre"`
}

// MarshalJSON writes the six facets as a JSON object with keys in
// insertion order.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{
		Time:   t.facets[Time],
		Mood:   t.facets[Mood],
		Artist: t.facets[Artist],
		Album:  t.facets[Album],
		Track:  t.facets[Track],
		Genre:  t.facets[Genre],
	})
}

// UnmarshalJSON reads the format written by MarshalJSON. Missing facets are
// left empty.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding index: %w", err)
	}
	decoded := [len(Facets)]*postings{raw.Time, raw.Mood, raw.Artist, raw.Album, raw.Track, raw.Genre}
	for i, m := range decoded {
		if m == nil {
			m = orderedmap.New[string, []int]()
		}
		t.facets[i] = m
	}
	return nil
}
