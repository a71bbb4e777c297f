package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/mindscope/internal/bot"
	"github.com/xaenox/mindscope/internal/classifier"
	"github.com/xaenox/mindscope/internal/face"
	"github.com/xaenox/mindscope/internal/httpapi"
	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/mood"
	"github.com/xaenox/mindscope/internal/storage"
	"github.com/xaenox/mindscope/internal/voice"
	"github.com/xaenox/mindscope/internal/wellness"
	"github.com/xaenox/mindscope/pkg/config"
	"github.com/xaenox/mindscope/pkg/logger"
	"go.uber.org/zap"
)

const sessionIdle = 24 * time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize logger
	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	// Initialize storage
	log.Info("Opening storage", zap.String("engine", cfg.Storage.Engine))
	store, err := storage.NewByEngine(storage.Options{
		Engine:      cfg.Storage.Engine,
		MoodLogPath: cfg.Storage.MoodLogPath,
		JournalPath: cfg.Storage.JournalPath,
		SQLitePath:  cfg.Storage.SQLitePath,
		Database: storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		},
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	var oa *openai.Client
	if cfg.OpenAI.APIKey != "" {
		oaCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oaCfg.BaseURL = cfg.OpenAI.BaseURL
		}
		oa = openai.NewClientWithConfig(oaCfg)
	}

	svc := wellness.NewService(wellness.Deps{
		Classifier:  newClassifier(cfg, oa, log),
		Detector:    newDetector(cfg, log),
		Transcriber: newTranscriber(cfg, oa, log),
		Moods:       mood.NewLogger(store, log),
		Aggregator:  mood.NewAggregator(store),
		Journal:     store,
		Breathing: wellness.BreathingConfig{
			Cycles:        cfg.Breathing.Cycles,
			PhaseDuration: cfg.Breathing.PhaseDuration,
		},
	}, log)
	sessions := wellness.NewSessions()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error("Component stopped with error", zap.String("component", name), zap.Error(err))
				stop()
			}
		}()
	}

	started := false
	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, svc, sessions, log)
		if err != nil {
			log.Fatal("Failed to create bot", zap.Error(err))
		}
		run("telegram", b.Start)
		started = true
	}
	if cfg.HTTP.Enabled {
		run("http", httpapi.NewServer(cfg.HTTP.Addr, svc, sessions, log).Run)
		started = true
	}
	if !started {
		log.Fatal("Nothing to run: set telegram.token or enable http")
	}

	run("sessions", func(ctx context.Context) error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := sessions.Prune(sessionIdle); n > 0 {
					log.Debug("Pruned idle sessions", zap.Int("count", n))
				}
			}
		}
	})

	wg.Wait()
	log.Info("Shutdown complete")
}

func newClassifier(cfg *config.Config, oa *openai.Client, log *zap.Logger) classifier.Classifier {
	switch strings.ToLower(cfg.Classifier.Backend) {
	case "openai":
		if oa == nil {
			log.Fatal("classifier.backend is openai but no OpenAI API key is set")
		}
		labels := make([]models.EmotionLabel, 0, len(cfg.Classifier.Labels))
		for _, l := range cfg.Classifier.Labels {
			labels = append(labels, models.NormalizeLabel(l))
		}
		log.Info("Using OpenAI emotion classifier", zap.String("model", cfg.OpenAI.Model))
		return classifier.NewGPTClassifier(oa, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens, cfg.OpenAI.Temperature, labels, log)
	case "lexicon":
		log.Info("Using lexicon emotion classifier")
		return classifier.NewLexiconClassifier()
	default:
		log.Info("Using HTTP emotion classifier", zap.String("url", cfg.Classifier.URL))
		return classifier.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout, log)
	}
}

func newTranscriber(cfg *config.Config, oa *openai.Client, log *zap.Logger) voice.Transcriber {
	switch strings.ToLower(cfg.Voice.Backend) {
	case "http":
		if cfg.Voice.URL == "" {
			break
		}
		return voice.NewHTTPTranscriber(cfg.Voice.URL, cfg.Voice.Timeout, log)
	case "openai":
		if oa == nil {
			break
		}
		return voice.NewWhisperTranscriber(oa, cfg.OpenAI.TranscriptionModel, log)
	}
	log.Warn("Voice input disabled", zap.String("backend", cfg.Voice.Backend))
	return nil
}

func newDetector(cfg *config.Config, log *zap.Logger) face.Detector {
	if cfg.Face.URL == "" {
		log.Warn("Face input disabled: face.url is not set")
		return nil
	}
	return face.NewHTTPDetector(cfg.Face.URL, cfg.Face.MinConfidence, cfg.Face.Timeout, log)
}
