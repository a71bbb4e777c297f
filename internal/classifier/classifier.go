package classifier

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/xaenox/mindscope/internal/models"
)

// TopK is the number of scores kept in a distribution.
const TopK = 3

// ErrUnavailable is returned when the backing model cannot produce scores.
var ErrUnavailable = errors.New("classifier unavailable")

type Classifier interface {
	Classify(ctx context.Context, text string) (models.Distribution, error)
}

// Rank turns raw model scores into a distribution: scores clamped to [0,1],
// percentages with two decimals, descending, top three. Equal scores keep the
// backend order.
func Rank(raw []models.EmotionScore) models.Distribution {
	ranked := make(models.Distribution, 0, len(raw))
	for _, s := range raw {
		score := min(max(s.Confidence, 0), 1)
		if math.IsNaN(s.Confidence) {
			score = 0
		}
		ranked = append(ranked, models.EmotionScore{
			Label:      models.NormalizeLabel(string(s.Label)),
			Confidence: math.Round(score*100*100) / 100,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}
	return ranked
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// LexiconClassifier scores text by keyword hits. It needs no model and is
// meant for offline runs and local development.
type LexiconClassifier struct {
	keywords map[models.EmotionLabel][]string
}

func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{
		keywords: map[models.EmotionLabel][]string{
			models.Anger:    {"angry", "furious", "mad", "annoyed", "hate", "irritated", "rage"},
			models.Disgust:  {"disgust", "gross", "sick of", "revolting", "nasty"},
			models.Fear:     {"afraid", "scared", "anxious", "worried", "nervous", "terrified", "panic"},
			models.Joy:      {"happy", "glad", "great", "excited", "love", "wonderful", "joy", "grateful"},
			models.Sadness:  {"sad", "down", "lonely", "cry", "depressed", "miss", "hopeless", "tired"},
			models.Surprise: {"surprised", "shocked", "unexpected", "wow", "suddenly"},
		},
	}
}

func (c *LexiconClassifier) Classify(ctx context.Context, text string) (models.Distribution, error) {
	if isBlank(text) {
		return models.Distribution{}, nil
	}

	content := strings.ToLower(text)
	hits := make(map[models.EmotionLabel]int)
	total := 0
	for label, keywords := range c.keywords {
		for _, keyword := range keywords {
			if n := strings.Count(content, keyword); n > 0 {
				hits[label] += n
				total += n
			}
		}
	}

	if total == 0 {
		return Rank([]models.EmotionScore{{Label: models.Neutral, Confidence: 1}}), nil
	}

	raw := make([]models.EmotionScore, 0, len(hits))
	for _, label := range models.Vocabulary {
		if n, ok := hits[label]; ok {
			raw = append(raw, models.EmotionScore{Label: label, Confidence: float64(n) / float64(total)})
		}
	}
	return Rank(raw), nil
}
