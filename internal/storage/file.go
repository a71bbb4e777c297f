package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/mindscope/internal/models"
)

// FileStorage keeps the mood log as comma separated lines and the journal as
// free text blocks.
type FileStorage struct {
	mu          sync.Mutex
	moodPath    string
	journalPath string
}

func NewFileStorage(moodPath, journalPath string) (*FileStorage, error) {
	for _, p := range []string{moodPath, journalPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("error creating directory for %s: %w", p, err)
		}
	}
	return &FileStorage{moodPath: moodPath, journalPath: journalPath}, nil
}

// FormatMoodLine renders rec as "timestamp,source,emotion\n".
func FormatMoodLine(rec models.MoodRecord) string {
	return fmt.Sprintf("%s,%s,%s\n", rec.Timestamp.Format(models.TimestampLayout), rec.Source, rec.Emotion)
}

// ParseMoodLine parses one mood log line. Lines with a wrong field count, an
// empty field or a bad timestamp are rejected.
func ParseMoodLine(line string) (models.MoodRecord, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(fields) != 3 {
		return models.MoodRecord{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
		if fields[i] == "" {
			return models.MoodRecord{}, fmt.Errorf("field %d is empty", i+1)
		}
	}

	ts, err := time.ParseInLocation(models.TimestampLayout, fields[0], time.Local)
	if err != nil {
		return models.MoodRecord{}, fmt.Errorf("bad timestamp: %w", err)
	}

	return models.MoodRecord{
		Timestamp: ts,
		Source:    models.Source(fields[1]),
		Emotion:   models.EmotionLabel(fields[2]),
	}, nil
}

// AppendMood writes the whole record with one write on an O_APPEND
// descriptor, so concurrent writers never interleave partial lines.
func (s *FileStorage) AppendMood(ctx context.Context, rec models.MoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendFile(s.moodPath, FormatMoodLine(rec))
}

func (s *FileStorage) ListMoods(ctx context.Context) ([]models.MoodRecord, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.moodPath)
	s.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return []models.MoodRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading mood log: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	records := make([]models.MoodRecord, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseMoodLine(line)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FormatJournalEntry renders the block appended to the journal file.
func FormatJournalEntry(entry models.JournalEntry) string {
	return fmt.Sprintf("\n---\nEmotion: %s\nPrompt: %s\nEntry: %s\n", entry.Emotion, entry.Prompt, entry.Entry)
}

func (s *FileStorage) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendFile(s.journalPath, FormatJournalEntry(entry))
}

func (s *FileStorage) Close() error {
	return nil
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	if _, err := f.Write([]byte(text)); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}
