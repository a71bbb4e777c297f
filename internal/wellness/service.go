// Package wellness wires emotion detection, the mood log and the advice
// tables into the user-facing actions of the companion.
package wellness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/mindscope/internal/advice"
	"github.com/xaenox/mindscope/internal/classifier"
	"github.com/xaenox/mindscope/internal/face"
	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/mood"
	"github.com/xaenox/mindscope/internal/storage"
	"github.com/xaenox/mindscope/internal/voice"
	"go.uber.org/zap"
)

var (
	// ErrNoEmotion is returned by journaling before any emotion was analysed.
	ErrNoEmotion = errors.New("no emotion analysed yet")
	// ErrNotConfigured is returned when an input modality has no backend.
	ErrNotConfigured = errors.New("input modality not configured")
)

// Analysis is the outcome of one user action.
type Analysis struct {
	ID         string              `json:"id"`
	Source     models.Source       `json:"source"`
	Input      string              `json:"input,omitempty"`
	Emotions   models.Distribution `json:"emotions"`
	Primary    models.EmotionLabel `json:"primary,omitempty"`
	Label      string              `json:"label"`
	Suggestion string              `json:"suggestion"`
	Logged     bool                `json:"logged"`
}

// Empty reports whether no emotion came out of the input.
func (a Analysis) Empty() bool {
	return a.Primary == ""
}

type MoodReport struct {
	Total     int                         `json:"total"`
	Frequency map[models.EmotionLabel]int `json:"frequency"`
	Trend     []models.TrendPoint         `json:"trend"`
	Daily     models.DailyTrend           `json:"-"`
}

type Deps struct {
	Classifier  classifier.Classifier
	Detector    face.Detector
	Transcriber voice.Transcriber
	Moods       *mood.Logger
	Aggregator  *mood.Aggregator
	Journal     storage.JournalWriter
	Breathing   BreathingConfig
}

type Service struct {
	classifier  classifier.Classifier
	detector    face.Detector
	transcriber voice.Transcriber
	moods       *mood.Logger
	aggregator  *mood.Aggregator
	journal     storage.JournalWriter
	breathing   BreathingConfig
	now         func() time.Time
	logger      *zap.Logger
}

func NewService(d Deps, logger *zap.Logger) *Service {
	if d.Breathing.PhaseDuration <= 0 {
		d.Breathing = DefaultBreathingConfig()
	}
	return &Service{
		classifier:  d.Classifier,
		detector:    d.Detector,
		transcriber: d.Transcriber,
		moods:       d.Moods,
		aggregator:  d.Aggregator,
		journal:     d.Journal,
		breathing:   d.Breathing,
		now:         time.Now,
		logger:      logger,
	}
}

func newAnalysis(source models.Source, input string) Analysis {
	return Analysis{
		ID:         uuid.NewString(),
		Source:     source,
		Input:      input,
		Emotions:   models.Distribution{},
		Suggestion: advice.DefaultSuggestion,
	}
}

// AnalyzeText classifies text, records the primary emotion in the session
// and the mood log, and resolves a suggestion.
//
// Blank text yields an empty analysis. A classifier failure is returned with
// the neutral default analysis. A mood log failure (mood.ErrLogWrite, or
// mood.ErrInvalidField for a label the log cannot hold) is returned together
// with the otherwise complete analysis so the caller can still show it.
func (s *Service) AnalyzeText(ctx context.Context, sess *Session, source models.Source, text string) (Analysis, error) {
	a := newAnalysis(source, text)

	dist, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.logger.Error("Emotion classification failed",
			zap.Error(err),
			zap.String("analysis_id", a.ID),
			zap.String("source", string(source)))
		return a, err
	}
	a.Emotions = dist

	primary, ok := dist.Primary()
	if !ok {
		return a, nil
	}
	s.accept(&a, sess, primary)

	return a, s.record(ctx, &a)
}

// AnalyzeVoice transcribes clip and analyses the transcript. An empty
// transcript is not an error; it yields an empty analysis.
func (s *Service) AnalyzeVoice(ctx context.Context, sess *Session, clip voice.Clip) (Analysis, error) {
	if s.transcriber == nil {
		return newAnalysis(models.SourceVoice, ""), fmt.Errorf("voice: %w", ErrNotConfigured)
	}

	transcript := s.transcriber.Transcribe(ctx, clip)
	if strings.TrimSpace(transcript) == "" {
		s.logger.Info("No usable speech in voice clip", zap.String("clip", clip.Name))
		return newAnalysis(models.SourceVoice, ""), nil
	}
	return s.AnalyzeText(ctx, sess, models.SourceVoice, transcript)
}

// AnalyzeFace detects the dominant emotion in frame. When no face is found
// the analysis carries face.NoFaceLabel, the default suggestion, and nothing
// is logged.
func (s *Service) AnalyzeFace(ctx context.Context, sess *Session, frame []byte) (Analysis, error) {
	a := newAnalysis(models.SourceFace, "")
	if s.detector == nil {
		return a, fmt.Errorf("face: %w", ErrNotConfigured)
	}

	res := s.detector.Detect(ctx, frame)
	emotion, ok := res.Emotion()
	if !ok {
		a.Label = res.Label()
		return a, nil
	}
	a.Emotions = models.Distribution{{Label: emotion, Confidence: 100}}
	s.accept(&a, sess, emotion)

	return a, s.record(ctx, &a)
}

// ScanFace runs face detection over a live frame source until it ends or ctx
// is cancelled, then analyses the last result like AnalyzeFace.
func (s *Service) ScanFace(ctx context.Context, sess *Session, src face.FrameSource) (Analysis, error) {
	a := newAnalysis(models.SourceFace, "")
	if s.detector == nil {
		return a, fmt.Errorf("face: %w", ErrNotConfigured)
	}

	res := face.Scan(ctx, src, s.detector)
	emotion, ok := res.Emotion()
	if !ok {
		a.Label = res.Label()
		return a, nil
	}
	a.Emotions = models.Distribution{{Label: emotion, Confidence: 100}}
	s.accept(&a, sess, emotion)

	// the scan context may already be cancelled; the record still belongs in the log
	return a, s.record(context.WithoutCancel(ctx), &a)
}

func (s *Service) accept(a *Analysis, sess *Session, primary models.EmotionLabel) {
	a.Primary = primary
	a.Label = string(primary)
	a.Suggestion = advice.SuggestionFor(primary)
	if sess != nil {
		sess.SetPrimary(primary)
	}
}

func (s *Service) record(ctx context.Context, a *Analysis) error {
	if err := s.moods.Append(ctx, a.Source, a.Primary); err != nil {
		return err
	}
	a.Logged = true

	s.logger.Info("Emotion analysed",
		zap.String("analysis_id", a.ID),
		zap.String("source", string(a.Source)),
		zap.String("emotion", string(a.Primary)))
	return nil
}

// JournalPrompt returns the prompt for the session's last primary emotion.
func (s *Service) JournalPrompt(sess *Session) (string, error) {
	primary, ok := sess.Primary()
	if !ok {
		return "", ErrNoEmotion
	}
	return advice.PromptFor(primary), nil
}

// SaveJournal stores text as a reflection on the session's last emotion.
func (s *Service) SaveJournal(ctx context.Context, sess *Session, text string) (models.JournalEntry, error) {
	primary, ok := sess.Primary()
	if !ok {
		return models.JournalEntry{}, ErrNoEmotion
	}

	entry := models.JournalEntry{
		Emotion:   primary,
		Prompt:    advice.PromptFor(primary),
		Entry:     strings.TrimSpace(text),
		CreatedAt: s.now(),
	}
	if err := s.journal.AppendJournal(ctx, entry); err != nil {
		s.logger.Error("Failed to save journal entry", zap.Error(err), zap.String("session_id", sess.ID))
		return models.JournalEntry{}, fmt.Errorf("save journal entry: %w", err)
	}
	sess.SetAwaitingJournal(false)
	return entry, nil
}

// MoodReport aggregates the mood log. Sources, when given, restrict the
// frequency counts; the daily trend always covers every source.
func (s *Service) MoodReport(ctx context.Context, sources ...models.Source) (MoodReport, error) {
	freq, err := s.aggregator.FrequencyBySource(ctx, sources...)
	if err != nil {
		return MoodReport{}, err
	}
	trend, err := s.aggregator.DailyTrend(ctx)
	if err != nil {
		return MoodReport{}, err
	}

	total := 0
	for _, n := range freq {
		total += n
	}
	return MoodReport{Total: total, Frequency: freq, Trend: trend.Points(), Daily: trend}, nil
}

// Records returns the raw mood log.
func (s *Service) Records(ctx context.Context) ([]models.MoodRecord, error) {
	return s.aggregator.LoadAll(ctx)
}

// Breathe runs the configured guided breathing exercise.
func (s *Service) Breathe(ctx context.Context, step func(cycle int, phase Phase)) error {
	return Breathe(ctx, s.breathing, step)
}

// BreathingConfig returns the exercise settings.
func (s *Service) BreathingConfig() BreathingConfig {
	return s.breathing
}
