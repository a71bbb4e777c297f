package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/mindscope/internal/models"
	"go.uber.org/zap"
)

type GPTResponse struct {
	Emotions []GPTScore `json:"emotions"`
}

type GPTScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// GPTClassifier asks a chat model for independent per-label confidences.
type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	labels      []models.EmotionLabel
	logger      *zap.Logger
}

func NewGPTClassifier(client *openai.Client, model string, maxTokens int, temperature float64, labels []models.EmotionLabel, logger *zap.Logger) *GPTClassifier {
	if len(labels) == 0 {
		labels = models.Vocabulary
	}
	return &GPTClassifier{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		labels:      labels,
		logger:      logger,
	}
}

func (c *GPTClassifier) prompt(text string) string {
	names := make([]string, len(c.labels))
	for i, l := range c.labels {
		names[i] = string(l)
	}

	return fmt.Sprintf(`Rate how strongly the following text expresses each of these emotions: %s.
Give every emotion an independent confidence between 0 and 1; they do not need to sum to 1.

Return the response as a JSON object with this structure:
{
    "emotions": [{"label": "emotion", "score": 0.0}, ...]
}

Text: %s`, strings.Join(names, ", "), text)
}

func (c *GPTClassifier) Classify(ctx context.Context, text string) (models.Distribution, error) {
	if isBlank(text) {
		return models.Distribution{}, nil
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: c.prompt(text),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		c.logger.Error("Failed to get GPT response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	var gptResponse GPTResponse
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	response = strings.TrimSuffix(strings.TrimPrefix(response, "```json"), "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &gptResponse); err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", response))
		return nil, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}

	raw := make([]models.EmotionScore, 0, len(gptResponse.Emotions))
	for _, e := range gptResponse.Emotions {
		if strings.TrimSpace(e.Label) == "" {
			continue
		}
		raw = append(raw, models.EmotionScore{Label: models.EmotionLabel(e.Label), Confidence: e.Score})
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: response had no scores", ErrUnavailable)
	}

	return Rank(raw), nil
}
