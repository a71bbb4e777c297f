package models

import "strings"

// EmotionLabel is a label from the emotion vocabulary. The vocabulary is open:
// labels produced by a classifier backend are kept even when not listed here.
type EmotionLabel string

const (
	Sadness  EmotionLabel = "sadness"
	Joy      EmotionLabel = "joy"
	Anger    EmotionLabel = "anger"
	Fear     EmotionLabel = "fear"
	Surprise EmotionLabel = "surprise"
	Neutral  EmotionLabel = "neutral"
	Disgust  EmotionLabel = "disgust"
)

// Vocabulary is the set of labels the bundled backends know about.
var Vocabulary = []EmotionLabel{Anger, Disgust, Fear, Joy, Neutral, Sadness, Surprise}

// NormalizeLabel trims and lower-cases a backend label.
func NormalizeLabel(s string) EmotionLabel {
	return EmotionLabel(strings.ToLower(strings.TrimSpace(s)))
}

func (l EmotionLabel) String() string { return string(l) }

// EmotionScore is a label with its confidence as a percentage in [0,100].
type EmotionScore struct {
	Label      EmotionLabel `json:"label"`
	Confidence float64      `json:"confidence"`
}

// Distribution is ranked by descending confidence; index 0 is the primary emotion.
type Distribution []EmotionScore

// Primary returns the highest ranked label.
func (d Distribution) Primary() (EmotionLabel, bool) {
	if len(d) == 0 {
		return "", false
	}
	return d[0].Label, true
}
