// Package storage persists the mood log and journal entries.
package storage

import (
	"context"

	"github.com/xaenox/mindscope/internal/models"
)

// MoodAppender adds records to the end of the mood log. Records are never
// rewritten or removed.
type MoodAppender interface {
	AppendMood(ctx context.Context, rec models.MoodRecord) error
}

// MoodReader returns every valid record in append order. A log that was never
// written reads as empty.
type MoodReader interface {
	ListMoods(ctx context.Context) ([]models.MoodRecord, error)
}

type JournalWriter interface {
	AppendJournal(ctx context.Context, entry models.JournalEntry) error
}

type Storage interface {
	MoodAppender
	MoodReader
	JournalWriter
	Close() error
}
