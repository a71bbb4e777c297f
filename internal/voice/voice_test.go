package voice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap/zaptest"
)

func TestHTTPTranscriber(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response any
		clip     Clip
		want     string
	}{
		{
			name:   "segments joined",
			status: http.StatusOK,
			response: asrResp{Segments: []transSeg{
				{Start: 0, End: 1.2, Text: " I am so happy"},
				{Start: 1.2, End: 2, Text: "today! "},
			}},
			clip: Clip{Name: "note.wav", Data: []byte("RIFF")},
			want: "I am so happy today!",
		},
		{
			name:     "nothing recognized",
			status:   http.StatusOK,
			response: asrResp{},
			clip:     Clip{Name: "note.wav", Data: []byte("RIFF")},
			want:     "",
		},
		{
			name:     "service error",
			status:   http.StatusBadGateway,
			response: map[string]string{"error": "upstream"},
			clip:     Clip{Name: "note.wav", Data: []byte("RIFF")},
			want:     "",
		},
		{
			name:   "empty clip",
			status: http.StatusOK,
			clip:   Clip{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/transcribe" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				f, hdr, err := r.FormFile("file")
				if err != nil {
					t.Errorf("FormFile: %v", err)
					return
				}
				data, _ := io.ReadAll(f)
				if hdr.Filename != tt.clip.Name || string(data) != string(tt.clip.Data) {
					t.Errorf("uploaded %q (%q), want %q", hdr.Filename, data, tt.clip.Name)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			tr := NewHTTPTranscriber(server.URL, 5*time.Second, zaptest.NewLogger(t))
			if got := tr.Transcribe(context.Background(), tt.clip); got != tt.want {
				t.Errorf("Transcribe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPTranscriberUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	tr := NewHTTPTranscriber(url, time.Second, zaptest.NewLogger(t))
	if got := tr.Transcribe(context.Background(), Clip{Name: "a.wav", Data: []byte("x")}); got != "" {
		t.Errorf("Transcribe() = %q, want empty", got)
	}
}

func TestWhisperTranscriber(t *testing.T) {
	tests := []struct {
		name   string
		status int
		text   string
		want   string
	}{
		{name: "recognized", status: http.StatusOK, text: "I feel a bit lonely ", want: "I feel a bit lonely"},
		{name: "api error", status: http.StatusInternalServerError, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/audio/transcriptions" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				if tt.status != http.StatusOK {
					json.NewEncoder(w).Encode(map[string]any{
						"error": map[string]any{"message": "boom", "type": "server_error"},
					})
					return
				}
				json.NewEncoder(w).Encode(map[string]string{"text": tt.text})
			}))
			defer server.Close()

			cfg := openai.DefaultConfig("test-key")
			cfg.BaseURL = server.URL + "/v1"
			tr := NewWhisperTranscriber(openai.NewClientWithConfig(cfg), "", zaptest.NewLogger(t))

			got := tr.Transcribe(context.Background(), Clip{Name: "voice.ogg", Data: []byte("OggS")})
			if got != tt.want {
				t.Errorf("Transcribe() = %q, want %q", got, tt.want)
			}
		})
	}
}
