package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xaenox/mindscope/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(filePath string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}
	// one writer keeps appends ordered and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	st := &SQLiteStorage{db: db}
	if err := st.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStorage) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS mood_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			source TEXT NOT NULL,
			emotion TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS journal_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			emotion TEXT NOT NULL,
			prompt TEXT NOT NULL,
			entry TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("error initializing sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) AppendMood(ctx context.Context, rec models.MoodRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mood_log (recorded_at, source, emotion)
		VALUES (?, ?, ?)`,
		rec.Timestamp.Format(models.TimestampLayout),
		string(rec.Source),
		string(rec.Emotion),
	)
	if err != nil {
		return fmt.Errorf("error inserting mood record: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListMoods(ctx context.Context) ([]models.MoodRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, source, emotion
		FROM mood_log
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error querying mood log: %w", err)
	}
	defer rows.Close()

	records := []models.MoodRecord{}
	for rows.Next() {
		var ts, source, emotion string
		if err := rows.Scan(&ts, &source, &emotion); err != nil {
			return nil, fmt.Errorf("error scanning mood record: %w", err)
		}
		t, err := time.ParseInLocation(models.TimestampLayout, ts, time.Local)
		if err != nil {
			continue
		}
		records = append(records, models.MoodRecord{
			Timestamp: t,
			Source:    models.Source(source),
			Emotion:   models.EmotionLabel(emotion),
		})
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (emotion, prompt, entry, created_at)
		VALUES (?, ?, ?, ?)`,
		string(entry.Emotion),
		entry.Prompt,
		entry.Entry,
		entry.CreatedAt.Format(models.TimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("error inserting journal entry: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
