package classify

import (
	"cmp"
	"slices"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

const maxTimes = 2

// Mood-name groups consulted by the time boosts. "sad" is listed for
// compatibility with existing tag data; ClassifyMood never emits it, so it
// never matches.
var (
	morningLift  = []string{"happy", "energetic", "focused"}
	morningDrag  = []string{"sad", "intense", "melancholic"}
	daytimeLift  = []string{"party", "energetic", "intense", "happy"}
	daytimeDrag  = []string{"sad", "calm", "melancholic"}
	eveningLift  = []string{"calm", "romantic", "melancholic"}
	eveningDrag  = []string{"intense", "party"}
	sleepyMoods  = []string{"sad", "melancholic", "calm"}
	partyingMood = []string{"party"}
)

// TimeScore pairs a time of day with its raw score.
type TimeScore struct {
	Time  TimeOfDay
	Score float64
}

// TimeResult is the outcome of ClassifyTime.
type TimeResult struct {
	// Tags holds one or two times in descending score order. It is never empty.
	Tags []TimeOfDay
	// Ranked holds every time of day, highest first, ties in declaration order.
	Ranked []TimeScore
}

func hasAny(moods []Mood, names []string) bool {
	for _, m := range moods {
		if slices.Contains(names, m.String()) {
			return true
		}
	}
	return false
}

// TimeScores computes the raw score of each time of day, indexed by TimeOfDay.
// moods is the output of ClassifyMood for the same features.
func TimeScores(f catalog.AudioFeatures, moods []Mood) [len(Times)]float64 {
	loudness := catalog.NormalizeLoudness(f.Loudness)
	tempo := catalog.NormalizeTempo(f.Tempo)
	energy, valence := f.Energy, f.Valence
	dance, acoustic := f.Danceability, f.Acousticness

	var s [len(Times)]float64

	morningEnergy := 0.5
	if energy >= 0.4 && energy <= 0.75 {
		morningEnergy = 1.0
	}
	morningValence := 0.8
	if valence > 0.5 {
		morningValence = 1.2
	}
	boost := 1.0
	if hasAny(moods, morningLift) {
		boost = 1.15
	}
	if hasAny(moods, morningDrag) {
		boost = 0.7
	}
	s[Morning] = (energy*morningEnergy*0.30 + valence*morningValence*0.35 +
		tempo*0.20 + (1-acoustic)*0.10 + dance*0.05) * boost

	boost = 1.0
	if hasAny(moods, daytimeLift) {
		boost = 1.1
	}
	if hasAny(moods, daytimeDrag) {
		boost = 0.7
	}
	s[Afternoon] = (energy*0.35 + dance*0.25 + loudness*0.15 + tempo*0.15 + valence*0.10) * boost

	eveningEnergy := 0.8
	if energy < 0.5 {
		eveningEnergy = 1.3
	}
	eveningAcoustic := 1.0
	if acoustic > 0.5 {
		eveningAcoustic = 1.1
	}
	boost = 1.0
	if hasAny(moods, eveningLift) {
		boost = 1.2
	}
	if hasAny(moods, eveningDrag) {
		boost = 0.7
	}
	s[Evening] = ((1-energy)*eveningEnergy*0.35 + acoustic*eveningAcoustic*0.25 +
		valence*0.20 + (1-tempo)*0.10 + (1-loudness)*0.10) * boost

	// Night covers both sleep music and late parties.
	isSleep := energy < 0.35
	isParty := energy > 0.85 && loudness > 0.7

	boost = 1.0
	if isSleep && hasAny(moods, sleepyMoods) {
		boost *= 1.15
	}
	if isParty && hasAny(moods, partyingMood) {
		boost *= 1.2
	}
	var sleep, party float64
	if isSleep {
		sleep = (1-energy)*2.0 + acoustic*0.3 + (1-loudness)*0.2 + (1-tempo)*0.1
	}
	if isParty {
		party = energy*1.5 + loudness*0.3 + tempo*0.2
	}
	s[Night] = (sleep + party) * boost

	return s
}

// ClassifyTime scores every time of day and keeps up to two that reach
// Threshold. When none does, the single best time is returned.
func ClassifyTime(f catalog.AudioFeatures, moods []Mood) TimeResult {
	ranked := rankTimes(TimeScores(f, moods))

	var tags []TimeOfDay
	for _, ts := range ranked[:maxTimes] {
		if ts.Score >= Threshold {
			tags = append(tags, ts.Time)
		}
	}
	if len(tags) == 0 {
		tags = []TimeOfDay{ranked[0].Time}
	}
	return TimeResult{Tags: tags, Ranked: ranked}
}

func rankTimes(scores [len(Times)]float64) []TimeScore {
	ranked := make([]TimeScore, len(Times))
	for i, t := range Times {
		ranked[i] = TimeScore{Time: t, Score: scores[t]}
	}
	slices.SortStableFunc(ranked, func(a, b TimeScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Result is the full classification of one song.
type Result struct {
	Moods []Mood
	Times []TimeOfDay
}

// Classify runs ClassifyMood and feeds its tags into ClassifyTime.
func Classify(f catalog.AudioFeatures) Result {
	moods := ClassifyMood(f).Tags
	return Result{Moods: moods, Times: ClassifyTime(f, moods).Tags}
}
