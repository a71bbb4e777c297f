package voice

import (
	"bytes"
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// WhisperTranscriber uses the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewWhisperTranscriber(client *openai.Client, model string, logger *zap.Logger) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{client: client, model: model, logger: logger}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, clip Clip) string {
	if len(clip.Data) == 0 {
		return ""
	}

	name := clip.Name
	if name == "" {
		name = "clip.ogg"
	}
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   bytes.NewReader(clip.Data),
	})
	if err != nil {
		w.logger.Warn("Transcription request failed", zap.Error(err), zap.String("clip", name))
		return ""
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		w.logger.Info("Speech not recognized", zap.String("clip", name))
	}
	return text
}
