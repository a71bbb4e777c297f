package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xaenox/mindscope/internal/models"
	"go.uber.org/zap"
)

type analyzeRequest struct {
	Img     string   `json:"img"`
	Actions []string `json:"actions"`
}

type analyzeResult struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         map[string]float64 `json:"emotion"`
	FaceConfidence  float64            `json:"face_confidence"`
}

type analyzeResponse struct {
	Results []analyzeResult `json:"results"`
}

// HTTPDetector calls a face-analysis sidecar that exposes POST /analyze.
type HTTPDetector struct {
	baseURL       string
	minConfidence float64
	client        *http.Client
	logger        *zap.Logger
}

func NewHTTPDetector(baseURL string, minConfidence float64, timeout time.Duration, logger *zap.Logger) *HTTPDetector {
	return &HTTPDetector{
		baseURL:       strings.TrimRight(baseURL, "/"),
		minConfidence: minConfidence,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, frame []byte) Result {
	if len(frame) == 0 {
		return NotDetected()
	}

	res, err := d.analyze(ctx, frame)
	if err != nil {
		d.logger.Debug("Face analysis failed", zap.Error(err))
		return NotDetected()
	}
	if res.FaceConfidence < d.minConfidence {
		d.logger.Debug("Face confidence below threshold",
			zap.Float64("confidence", res.FaceConfidence),
			zap.Float64("min_confidence", d.minConfidence))
		return NotDetected()
	}

	label := models.NormalizeLabel(res.DominantEmotion)
	if label == "" {
		return NotDetected()
	}
	return Detected(label)
}

func (d *HTTPDetector) analyze(ctx context.Context, frame []byte) (*analyzeResult, error) {
	img := "data:" + http.DetectContentType(frame) + ";base64," + base64.StdEncoding.EncodeToString(frame)
	b, err := json.Marshal(analyzeRequest{Img: img, Actions: []string{"emotion"}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/analyze", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("analyze %s: %s", resp.Status, string(body))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("analyze decode: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("analyze returned no faces")
	}
	return &out.Results[0], nil
}
