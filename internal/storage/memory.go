package storage

import (
	"context"
	"sync"

	"github.com/xaenox/mindscope/internal/models"
)

type MemoryStorage struct {
	mu      sync.RWMutex
	moods   []models.MoodRecord
	journal []models.JournalEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		moods:   []models.MoodRecord{},
		journal: []models.JournalEntry{},
	}
}

func (s *MemoryStorage) AppendMood(ctx context.Context, rec models.MoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moods = append(s.moods, rec)
	return nil
}

func (s *MemoryStorage) ListMoods(ctx context.Context) ([]models.MoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MoodRecord, len(s.moods))
	copy(out, s.moods)
	return out, nil
}

func (s *MemoryStorage) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = append(s.journal, entry)
	return nil
}

// JournalEntries returns a copy of the saved journal entries.
func (s *MemoryStorage) JournalEntries() []models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.JournalEntry, len(s.journal))
	copy(out, s.journal)
	return out
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
