package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type transSeg struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type asrResp struct {
	Segments []transSeg `json:"segments"`
	Language string     `json:"language"`
}

// HTTPTranscriber posts audio to a speech-recognition sidecar at POST /transcribe.
type HTTPTranscriber struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPTranscriber(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (h *HTTPTranscriber) Transcribe(ctx context.Context, clip Clip) string {
	if len(clip.Data) == 0 {
		return ""
	}

	out, err := h.asr(ctx, clip)
	if err != nil {
		h.logger.Warn("Transcription request failed", zap.Error(err), zap.String("clip", clip.Name))
		return ""
	}

	parts := make([]string, 0, len(out.Segments))
	for _, s := range out.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		h.logger.Info("Speech not recognized", zap.String("clip", clip.Name))
	}
	return strings.Join(parts, " ")
}

func (h *HTTPTranscriber) asr(ctx context.Context, clip Clip) (*asrResp, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	name := clip.Name
	if name == "" {
		name = "clip.wav"
	}
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err = fw.Write(clip.Data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("asr %s: %s", resp.Status, string(body))
	}

	var out asrResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("asr decode: %w", err)
	}
	return &out, nil
}
