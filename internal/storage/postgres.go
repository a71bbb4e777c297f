package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/xaenox/mindscope/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) AppendMood(ctx context.Context, rec models.MoodRecord) error {
	query := `
		INSERT INTO mood_log (recorded_at, source, emotion)
		VALUES ($1, $2, $3)`

	// TIMESTAMP columns keep the wall clock; the string avoids a zone shift.
	if _, err := s.db.ExecContext(ctx, query, rec.Timestamp.Format(models.TimestampLayout), rec.Source, rec.Emotion); err != nil {
		return fmt.Errorf("error inserting mood record: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListMoods(ctx context.Context) ([]models.MoodRecord, error) {
	query := `
		SELECT recorded_at, source, emotion
		FROM mood_log
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying mood log: %w", err)
	}
	defer rows.Close()

	records := []models.MoodRecord{}
	for rows.Next() {
		var (
			ts  time.Time
			rec models.MoodRecord
		)
		if err := rows.Scan(&ts, &rec.Source, &rec.Emotion); err != nil {
			s.logger.Warn("Skipping unreadable mood row", zap.Error(err))
			continue
		}
		rec.Timestamp = wallClock(ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mood log: %w", err)
	}

	return records, nil
}

func (s *PostgresStorage) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (emotion, prompt, entry, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, entry.Emotion, entry.Prompt, entry.Entry,
		entry.CreatedAt.Format(models.TimestampLayout)); err != nil {
		return fmt.Errorf("error inserting journal entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// wallClock reinterprets a zone-less database timestamp as local time.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}
