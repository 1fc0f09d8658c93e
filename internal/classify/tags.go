// Package classify derives mood and time-of-day tags from audio features.
package classify

import (
	"fmt"
	"strings"
)

// TagSeparator joins tags in their string encoding, e.g. "happy-party".
const TagSeparator = "-"

// Threshold is the minimum score for a tag to be assigned.
const Threshold = 0.5

// Mood is a mood tag. Scored moods are declared in tie-break order.
type Mood int

const (
	Energetic Mood = iota
	Melancholic
	Calm
	Intense
	Happy
	Focused
	Party
	Romantic
	// Neutral is assigned when no scored mood reaches Threshold.
	Neutral
)

var moodNames = [...]string{
	Energetic:   "energetic",
	Melancholic: "melancholic",
	Calm:        "calm",
	Intense:     "intense",
	Happy:       "happy",
	Focused:     "focused",
	Party:       "party",
	Romantic:    "romantic",
	Neutral:     "neutral",
}

// ScoredMoods lists every mood with a scoring formula, in declaration order.
var ScoredMoods = [...]Mood{Energetic, Melancholic, Calm, Intense, Happy, Focused, Party, Romantic}

func (m Mood) String() string {
	if m < 0 || int(m) >= len(moodNames) {
		return fmt.Sprintf("Mood(%d)", int(m))
	}
	return moodNames[m]
}

// ParseMood returns the Mood named s.
func ParseMood(s string) (Mood, error) {
	for i, name := range moodNames {
		if name == s {
			return Mood(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mood %q", s)
}

// TimeOfDay is a time-of-day tag, declared in tie-break order.
type TimeOfDay int

const (
	Morning TimeOfDay = iota
	Afternoon
	Evening
	Night
)

var timeNames = [...]string{
	Morning:   "morning",
	Afternoon: "afternoon",
	Evening:   "evening",
	Night:     "night",
}

// Times lists every time of day in declaration order.
var Times = [...]TimeOfDay{Morning, Afternoon, Evening, Night}

func (t TimeOfDay) String() string {
	if t < 0 || int(t) >= len(timeNames) {
		return fmt.Sprintf("TimeOfDay(%d)", int(t))
	}
	return timeNames[t]
}

// ParseTimeOfDay returns the TimeOfDay named s.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for i, name := range timeNames {
		if name == s {
			return TimeOfDay(i), nil
		}
	}
	return 0, fmt.Errorf("unknown time of day %q", s)
}

// JoinMoods encodes moods as a single TagSeparator-joined string.
func JoinMoods(moods []Mood) string {
	return join(moods)
}

// JoinTimes encodes times as a single TagSeparator-joined string.
func JoinTimes(times []TimeOfDay) string {
	return join(times)
}

func join[T fmt.Stringer](tags []T) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	return strings.Join(names, TagSeparator)
}
