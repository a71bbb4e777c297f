package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	Face       FaceConfig       `mapstructure:"face"`
	Log        LogConfig        `mapstructure:"log"`
	Breathing  BreathingConfig  `mapstructure:"breathing"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type StorageConfig struct {
	Engine      string `mapstructure:"engine"`
	MoodLogPath string `mapstructure:"mood_log_path"`
	JournalPath string `mapstructure:"journal_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type ClassifierConfig struct {
	Backend string        `mapstructure:"backend"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Labels  []string      `mapstructure:"labels"`
}

type OpenAIConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	BaseURL            string  `mapstructure:"base_url"`
	Model              string  `mapstructure:"model"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	Temperature        float64 `mapstructure:"temperature"`
	TranscriptionModel string  `mapstructure:"transcription_model"`
}

type VoiceConfig struct {
	Backend string        `mapstructure:"backend"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FaceConfig struct {
	URL           string        `mapstructure:"url"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type BreathingConfig struct {
	Cycles        int           `mapstructure:"cycles"`
	PhaseDuration time.Duration `mapstructure:"phase_duration"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file is not an error: defaults and environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.engine", "file")
	v.SetDefault("storage.mood_log_path", "mood_log.csv")
	v.SetDefault("storage.journal_path", "journal_log.txt")
	v.SetDefault("storage.sqlite_path", "data/mindscope.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "mindscope")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("classifier.backend", "http")
	v.SetDefault("classifier.url", "http://localhost:8001")
	v.SetDefault("classifier.timeout", 30*time.Second)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("voice.backend", "openai")
	v.SetDefault("voice.timeout", 60*time.Second)
	v.SetDefault("face.min_confidence", 0.5)
	v.SetDefault("face.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 30)
	v.SetDefault("log.max_age_days", 90)
	v.SetDefault("breathing.cycles", 3)
	v.SetDefault("breathing.phase_duration", 4*time.Second)

	// Enable environment variable support, e.g. MINDSCOPE_STORAGE_ENGINE
	v.SetEnvPrefix("mindscope")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	return &config, nil
}
