package catalog

// AudioFeatures holds the raw audio-feature scalars of one song.
// Loudness is in dB (roughly -60..0) and Tempo in BPM; the rest are in [0,1].
type AudioFeatures struct {
	Danceability     float64 `validate:"finite"`
	Energy           float64 `validate:"finite"`
	Loudness         float64 `validate:"finite"`
	Speechiness      float64 `validate:"finite"`
	Acousticness     float64 `validate:"finite"`
	Instrumentalness float64 `validate:"finite"`
	Valence          float64 `validate:"finite"`
	Tempo            float64 `validate:"finite"`
}

// Dimensions is the length of a FeatureVector.
const Dimensions = 8

// FeatureVector is the normalized descriptor of a song, in the order
// danceability, energy, loudness', speechiness, acousticness,
// instrumentalness, valence, tempo'.
type FeatureVector [Dimensions]float64

// Feature vector positions.
const (
	Danceability = iota
	Energy
	Loudness
	Speechiness
	Acousticness
	Instrumentalness
	Valence
	Tempo
)

// FeatureNames lists the vector dimensions in order.
var FeatureNames = [Dimensions]string{
	"danceability", "energy", "loudness", "speechiness",
	"acousticness", "instrumentalness", "valence", "tempo",
}

// NormalizeLoudness maps dB onto [0,1] for the -60..0 range. Values outside
// that range are not clamped.
func NormalizeLoudness(db float64) float64 {
	return (db + 60) / 60
}

// NormalizeTempo maps BPM onto [0,1] for the 50..200 range. The result is
// capped at 1 but has no lower bound.
func NormalizeTempo(bpm float64) float64 {
	t := (bpm - 50) / 150
	if t > 1 {
		t = 1
	}
	return t
}

// Normalize converts raw features into a FeatureVector.
func Normalize(f AudioFeatures) FeatureVector {
	return FeatureVector{
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Loudness:         NormalizeLoudness(f.Loudness),
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Valence:          f.Valence,
		Tempo:            NormalizeTempo(f.Tempo),
	}
}

// Denormalize is the inverse of Normalize. A tempo' of exactly 1 maps back
// to 200 BPM since the cap loses anything above it.
func Denormalize(v FeatureVector) AudioFeatures {
	return AudioFeatures{
		Danceability:     v[Danceability],
		Energy:           v[Energy],
		Loudness:         v[Loudness]*60 - 60,
		Speechiness:      v[Speechiness],
		Acousticness:     v[Acousticness],
		Instrumentalness: v[Instrumentalness],
		Valence:          v[Valence],
		Tempo:            v[Tempo]*150 + 50,
	}
}
