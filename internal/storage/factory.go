package storage

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	EngineFile     = "file"
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

var ErrUnknownEngine = errors.New("unsupported storage engine")

type Options struct {
	Engine      string
	MoodLogPath string
	JournalPath string
	SQLitePath  string
	Database    DatabaseConfig
}

func NewByEngine(opts Options, logger *zap.Logger) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineFile:
		return NewFileStorage(opts.MoodLogPath, opts.JournalPath)
	case EngineMemory:
		return NewMemoryStorage(), nil
	case EnginePostgres:
		return NewPostgresStorage(opts.Database, logger)
	case EngineSQLite:
		return NewSQLiteStorage(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, opts.Engine)
	}
}
