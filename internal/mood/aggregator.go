package mood

import (
	"context"
	"fmt"

	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/storage"
)

// Aggregator reads the whole mood log on every call and derives counts from it.
type Aggregator struct {
	store storage.MoodReader
}

func NewAggregator(store storage.MoodReader) *Aggregator {
	return &Aggregator{store: store}
}

// LoadAll returns every valid record in append order.
func (a *Aggregator) LoadAll(ctx context.Context) ([]models.MoodRecord, error) {
	records, err := a.store.ListMoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mood log: %w", err)
	}
	return records, nil
}

// FrequencyBySource counts occurrences of each emotion among records from the
// given sources, or from all sources when none are given.
func (a *Aggregator) FrequencyBySource(ctx context.Context, sources ...models.Source) (map[models.EmotionLabel]int, error) {
	records, err := a.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	allowed := make(map[models.Source]struct{}, len(sources))
	for _, s := range sources {
		allowed[s] = struct{}{}
	}

	counts := make(map[models.EmotionLabel]int)
	for _, rec := range records {
		if len(allowed) > 0 {
			if _, ok := allowed[rec.Source]; !ok {
				continue
			}
		}
		counts[rec.Emotion]++
	}
	return counts, nil
}

// DailyTrend counts emotions per local calendar date.
func (a *Aggregator) DailyTrend(ctx context.Context) (models.DailyTrend, error) {
	records, err := a.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	trend := make(models.DailyTrend)
	for _, rec := range records {
		trend[models.TrendKey{Date: rec.Date(), Emotion: rec.Emotion}]++
	}
	return trend, nil
}
