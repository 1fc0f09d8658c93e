package recommend

import (
	"github.com/justestif/go-spotify-mood-index/internal/catalog"
	"github.com/justestif/go-spotify-mood-index/internal/classify"
)

// Ideal normalized feature vectors per mood, in catalog.FeatureNames order.
var moodVectors = map[classify.Mood]catalog.FeatureVector{
	classify.Energetic:   {0.75, 0.85, 0.80, 0.10, 0.10, 0.00, 0.60, 0.80},
	classify.Melancholic: {0.30, 0.25, 0.40, 0.05, 0.75, 0.10, 0.15, 0.30},
	classify.Calm:        {0.35, 0.20, 0.30, 0.05, 0.80, 0.20, 0.40, 0.25},
	classify.Intense:     {0.40, 0.90, 0.90, 0.15, 0.10, 0.05, 0.20, 0.75},
	classify.Happy:       {0.70, 0.70, 0.65, 0.10, 0.20, 0.00, 0.90, 0.65},
	classify.Focused:     {0.40, 0.50, 0.50, 0.05, 0.40, 0.80, 0.40, 0.50},
	classify.Party:       {0.85, 0.80, 0.75, 0.10, 0.10, 0.00, 0.75, 0.70},
	classify.Romantic:    {0.45, 0.30, 0.40, 0.05, 0.70, 0.05, 0.50, 0.35},
}

var neutralVector = catalog.FeatureVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}

// IdealVector returns the target vector for a mood name. Unknown moods,
// including neutral, get a flat vector.
func IdealVector(mood string) catalog.FeatureVector {
	m, err := classify.ParseMood(mood)
	if err != nil {
		return neutralVector
	}
	if v, ok := moodVectors[m]; ok {
		return v
	}
	return neutralVector
}
