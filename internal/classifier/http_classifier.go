package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xaenox/mindscope/internal/models"
	"go.uber.org/zap"
)

type detectRequest struct {
	Text string `json:"text"`
}

type detectScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type detectResponse struct {
	Emotions        []detectScore `json:"emotions"`
	DominantEmotion string        `json:"dominant_emotion"`
}

// HTTPClassifier calls a model-serving sidecar that exposes POST /detect.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPClassifier(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (models.Distribution, error) {
	if isBlank(text) {
		return models.Distribution{}, nil
	}

	b, err := json.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode detect request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Emotion model request failed", zap.Error(err), zap.String("url", c.baseURL))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Emotion model returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%w: detect %s: %s", ErrUnavailable, resp.Status, string(body))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: detect decode: %v", ErrUnavailable, err)
	}
	raw := make([]models.EmotionScore, 0, len(out.Emotions))
	for _, e := range out.Emotions {
		if strings.TrimSpace(e.Label) == "" {
			continue
		}
		raw = append(raw, models.EmotionScore{Label: models.EmotionLabel(e.Label), Confidence: e.Score})
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: detect returned no scores", ErrUnavailable)
	}
	return Rank(raw), nil
}
