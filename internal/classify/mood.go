package classify

import (
	"cmp"
	"math"
	"slices"

	"github.com/justestif/go-spotify-mood-index/internal/catalog"
)

const maxMoods = 3

// MoodScore pairs a mood with its raw score.
type MoodScore struct {
	Mood  Mood
	Score float64
}

// MoodResult is the outcome of ClassifyMood.
type MoodResult struct {
	// Tags holds 1-3 moods in descending score order, or exactly [Neutral].
	Tags []Mood
	// Ranked holds every scored mood, highest first, ties in declaration order.
	Ranked []MoodScore
}

// MoodScores computes the raw score of each mood, indexed by Mood.
func MoodScores(f catalog.AudioFeatures) [len(ScoredMoods)]float64 {
	loudness := catalog.NormalizeLoudness(f.Loudness)
	tempo := catalog.NormalizeTempo(f.Tempo)
	energy, valence := f.Energy, f.Valence
	dance, acoustic := f.Danceability, f.Acousticness
	speech, instr := f.Speechiness, f.Instrumentalness

	energyBoost := 1.0
	if energy >= 0.8 {
		energyBoost = 1.15
	}
	darkness := 1.0
	if valence > 0.6 {
		darkness = 1 - valence
	}
	brightness := 1.0
	if valence > 0.7 {
		brightness = 1.2
	}
	partyEnergy := energy * 0.6
	if energy > 0.5 {
		partyEnergy = energy
	}
	partyValence := valence * 0.7
	if valence > 0.45 {
		partyValence = valence
	}
	instrDamp := 1.0
	if instr > 0.5 {
		instrDamp = 1 - instr
	}
	warmth := valence * 0.3
	if valence >= 0.35 && valence <= 0.7 {
		warmth = valence * 1.5
	}

	var s [len(ScoredMoods)]float64
	s[Energetic] = energy*energyBoost*0.35 + tempo*0.25 + dance*0.25 + (1-acoustic)*0.1 + valence*0.05
	s[Melancholic] = (1-valence)*0.4 + (1-energy)*0.2 + acoustic*0.2 + (1-dance)*0.2
	s[Calm] = (1-energy)*0.3 + (1-loudness)*0.2 + acoustic*0.3 + (1-tempo)*0.2
	s[Intense] = energy*darkness*0.35 + loudness*0.25 + (1-dance)*0.25 + (speech*0.5+(1-acoustic)*0.5)*0.15
	s[Happy] = valence*brightness*0.55 + energy*0.25 + (1-acoustic)*0.2
	s[Focused] = instr*0.4 + (1-speech)*0.3 + (1-math.Abs(energy-0.5)*2)*0.3
	s[Party] = dance*0.35 + partyEnergy*0.35 + partyValence*0.2 + loudness*0.1
	s[Romantic] = (1-energy)*0.25*instrDamp + warmth*0.3 + (acoustic*0.5+(1-tempo)*0.5)*0.35 + (1-speech)*0.1
	return s
}

// ClassifyMood scores every mood and keeps up to three that reach Threshold.
func ClassifyMood(f catalog.AudioFeatures) MoodResult {
	ranked := rankMoods(MoodScores(f))

	var tags []Mood
	for _, ms := range ranked[:maxMoods] {
		if ms.Score >= Threshold {
			tags = append(tags, ms.Mood)
		}
	}
	if len(tags) == 0 {
		tags = []Mood{Neutral}
	}
	return MoodResult{Tags: tags, Ranked: ranked}
}

// rankMoods orders moods by descending score. The sort is stable so equal
// scores stay in declaration order.
func rankMoods(scores [len(ScoredMoods)]float64) []MoodScore {
	ranked := make([]MoodScore, len(ScoredMoods))
	for i, m := range ScoredMoods {
		ranked[i] = MoodScore{Mood: m, Score: scores[m]}
	}
	slices.SortStableFunc(ranked, func(a, b MoodScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}
