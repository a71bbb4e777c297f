package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/mindscope/internal/models"
	"go.uber.org/zap"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name string
		raw  []models.EmotionScore
		want models.Distribution
	}{
		{
			name: "sorts descending and keeps top three",
			raw: []models.EmotionScore{
				{Label: "sadness", Confidence: 0.01},
				{Label: "joy", Confidence: 0.9712345},
				{Label: "surprise", Confidence: 0.02},
				{Label: "neutral", Confidence: 0.005},
			},
			want: models.Distribution{
				{Label: "joy", Confidence: 97.12},
				{Label: "surprise", Confidence: 2},
				{Label: "sadness", Confidence: 1},
			},
		},
		{
			name: "ties keep backend order",
			raw: []models.EmotionScore{
				{Label: "fear", Confidence: 0.3},
				{Label: "anger", Confidence: 0.3},
				{Label: "joy", Confidence: 0.3},
				{Label: "disgust", Confidence: 0.3},
			},
			want: models.Distribution{
				{Label: "fear", Confidence: 30},
				{Label: "anger", Confidence: 30},
				{Label: "joy", Confidence: 30},
			},
		},
		{
			name: "unknown labels are kept",
			raw:  []models.EmotionScore{{Label: "Contempt", Confidence: 0.5}},
			want: models.Distribution{{Label: "contempt", Confidence: 50}},
		},
		{
			name: "out of range scores are clamped",
			raw: []models.EmotionScore{
				{Label: "joy", Confidence: 1.7},
				{Label: "fear", Confidence: -0.2},
				{Label: "anger", Confidence: math.NaN()},
			},
			want: models.Distribution{
				{Label: "joy", Confidence: 100},
				{Label: "fear", Confidence: 0},
				{Label: "anger", Confidence: 0},
			},
		},
		{
			name: "empty input",
			raw:  nil,
			want: models.Distribution{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("Rank() returned %d scores, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Rank()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexiconClassifier(t *testing.T) {
	c := NewLexiconClassifier()
	ctx := context.Background()

	tests := []struct {
		name        string
		text        string
		wantPrimary models.EmotionLabel
		wantEmpty   bool
	}{
		{name: "joy", text: "I am so happy today!", wantPrimary: models.Joy},
		{name: "fear", text: "I'm scared and anxious about tomorrow", wantPrimary: models.Fear},
		{name: "no keywords", text: "The bus leaves at nine", wantPrimary: models.Neutral},
		{name: "empty", text: "", wantEmpty: true},
		{name: "whitespace", text: " \t\n", wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(ctx, tt.text)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if tt.wantEmpty {
				if len(got) != 0 {
					t.Errorf("Classify(%q) = %v, want empty", tt.text, got)
				}
				return
			}
			if len(got) == 0 || len(got) > TopK {
				t.Fatalf("Classify(%q) returned %d scores", tt.text, len(got))
			}
			for i := 1; i < len(got); i++ {
				if got[i].Confidence > got[i-1].Confidence {
					t.Errorf("Classify(%q) not sorted: %v", tt.text, got)
				}
			}
			if primary, _ := got.Primary(); primary != tt.wantPrimary {
				t.Errorf("Classify(%q) primary = %q, want %q", tt.text, primary, tt.wantPrimary)
			}
		})
	}
}

func TestHTTPClassifier(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		response    any
		wantPrimary models.EmotionLabel
		wantErr     error
	}{
		{
			name:   "ranked response",
			status: http.StatusOK,
			response: detectResponse{
				Emotions: []detectScore{
					{Label: "neutral", Score: 0.01},
					{Label: "joy", Score: 0.95},
					{Label: "surprise", Score: 0.03},
					{Label: "sadness", Score: 0.005},
				},
				DominantEmotion: "joy",
			},
			wantPrimary: models.Joy,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			response: map[string]string{"error": "model not loaded"},
			wantErr:  ErrUnavailable,
		},
		{
			name:     "no scores",
			status:   http.StatusOK,
			response: detectResponse{},
			wantErr:  ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/detect" || r.Method != http.MethodPost {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var req detectRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
					t.Errorf("bad request body: %v %+v", err, req)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			c := NewHTTPClassifier(server.URL+"/", 5*time.Second, zap.NewNop())
			got, err := c.Classify(context.Background(), "I am so happy today!")

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(got) != TopK {
				t.Fatalf("Classify() returned %d scores, want %d", len(got), TopK)
			}
			if primary, _ := got.Primary(); primary != tt.wantPrimary {
				t.Errorf("Classify() primary = %q, want %q", primary, tt.wantPrimary)
			}
			if got[0].Confidence != 95 {
				t.Errorf("Classify() confidence = %v, want 95", got[0].Confidence)
			}
		})
	}
}

func TestHTTPClassifierClampsScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(detectResponse{
			Emotions: []detectScore{{Label: "joy", Score: 1.7}, {Label: "fear", Score: -0.2}},
		})
	}))
	defer server.Close()

	c := NewHTTPClassifier(server.URL, time.Second, zap.NewNop())
	got, err := c.Classify(context.Background(), "what a day")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for _, s := range got {
		if s.Confidence < 0 || s.Confidence > 100 {
			t.Errorf("confidence for %s = %v, outside [0,100]", s.Label, s.Confidence)
		}
	}
	if got[0] != (models.EmotionScore{Label: models.Joy, Confidence: 100}) {
		t.Errorf("Classify()[0] = %+v, want joy at 100", got[0])
	}
}

func TestHTTPClassifierBlankSkipsBackend(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewHTTPClassifier(server.URL, time.Second, zap.NewNop())
	got, err := c.Classify(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Classify() = %v, want empty", got)
	}
	if calls.Load() != 0 {
		t.Errorf("backend called %d times for blank text", calls.Load())
	}
}

func TestHTTPClassifierUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewHTTPClassifier(url, time.Second, zap.NewNop())
	if _, err := c.Classify(context.Background(), "hello"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func newOpenAIServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "boom", "type": "server_error"},
			})
			return
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Index:   0,
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
}

func newOpenAIClient(url string) *openai.Client {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = url + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestGPTClassifier(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		status      int
		wantPrimary models.EmotionLabel
		wantLen     int
		wantErr     error
	}{
		{
			name:        "scores parsed and ranked",
			content:     `{"emotions":[{"label":"sadness","score":0.1},{"label":"Joy","score":0.92},{"label":"surprise","score":0.4},{"label":"fear","score":0.05}]}`,
			status:      http.StatusOK,
			wantPrimary: models.Joy,
			wantLen:     3,
		},
		{
			name:        "fenced json",
			content:     "```json\n{\"emotions\":[{\"label\":\"anger\",\"score\":0.8}]}\n```",
			status:      http.StatusOK,
			wantPrimary: models.Anger,
			wantLen:     1,
		},
		{
			name:    "not json",
			content: "I think the user is happy",
			status:  http.StatusOK,
			wantErr: ErrUnavailable,
		},
		{
			name:    "api error",
			status:  http.StatusInternalServerError,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newOpenAIServer(t, tt.content, tt.status)
			defer server.Close()

			c := NewGPTClassifier(newOpenAIClient(server.URL), openai.GPT3Dot5Turbo, 150, 0, nil, zap.NewNop())
			got, err := c.Classify(context.Background(), "I am so happy today!")

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(got) != tt.wantLen {
				t.Fatalf("Classify() returned %d scores, want %d", len(got), tt.wantLen)
			}
			if primary, _ := got.Primary(); primary != tt.wantPrimary {
				t.Errorf("Classify() primary = %q, want %q", primary, tt.wantPrimary)
			}
		})
	}
}
