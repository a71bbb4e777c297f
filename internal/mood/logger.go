// Package mood records detected emotions and aggregates the mood log.
package mood

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrLogWrite is returned when the mood log cannot be written.
	ErrLogWrite = errors.New("mood log write failed")
	// ErrInvalidField is returned for a field the log format cannot hold.
	ErrInvalidField = errors.New("invalid mood log field")
)

// Logger is the only writer of the mood log.
type Logger struct {
	store  storage.MoodAppender
	now    func() time.Time
	logger *zap.Logger
}

func NewLogger(store storage.MoodAppender, logger *zap.Logger) *Logger {
	return &Logger{store: store, now: time.Now, logger: logger}
}

// WithClock replaces the clock used to stamp records.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Append records emotion for source, stamped with the current time.
// Storage failures are returned wrapped in ErrLogWrite and never retried.
func (l *Logger) Append(ctx context.Context, source models.Source, emotion models.EmotionLabel) error {
	if err := validateField(string(source)); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validateField(string(emotion)); err != nil {
		return fmt.Errorf("emotion: %w", err)
	}

	rec := models.MoodRecord{
		Timestamp: l.now().Truncate(time.Second),
		Source:    source,
		Emotion:   emotion,
	}
	if err := l.store.AppendMood(ctx, rec); err != nil {
		l.logger.Error("Failed to append mood record",
			zap.Error(err),
			zap.String("source", string(source)),
			zap.String("emotion", string(emotion)))
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}

	l.logger.Debug("Mood recorded",
		zap.String("source", string(source)),
		zap.String("emotion", string(emotion)),
		zap.Time("timestamp", rec.Timestamp))
	return nil
}

func validateField(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidField)
	}
	if strings.ContainsAny(v, ",\r\n") {
		return fmt.Errorf("%w: %q contains a delimiter", ErrInvalidField, v)
	}
	return nil
}
