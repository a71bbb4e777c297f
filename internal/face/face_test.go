package face

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xaenox/mindscope/internal/models"
	"go.uber.org/zap"
)

func TestResult(t *testing.T) {
	r := Detected(models.Joy)
	if got, ok := r.Emotion(); !ok || got != models.Joy {
		t.Errorf("Emotion() = %q, %v; want joy, true", got, ok)
	}
	if r.Label() != "joy" {
		t.Errorf("Label() = %q, want joy", r.Label())
	}

	n := NotDetected()
	if _, ok := n.Emotion(); ok {
		t.Error("NotDetected().Emotion() reported a face")
	}
	if n.Label() != NoFaceLabel {
		t.Errorf("Label() = %q, want %q", n.Label(), NoFaceLabel)
	}
}

func TestHTTPDetector(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		response  any
		frame     []byte
		wantLabel string
	}{
		{
			name:   "dominant emotion",
			status: http.StatusOK,
			response: analyzeResponse{Results: []analyzeResult{
				{DominantEmotion: "Happy", FaceConfidence: 0.97},
			}},
			frame:     []byte("\xff\xd8\xff\xe0jpeg"),
			wantLabel: "happy",
		},
		{
			name:   "low confidence",
			status: http.StatusOK,
			response: analyzeResponse{Results: []analyzeResult{
				{DominantEmotion: "sad", FaceConfidence: 0.1},
			}},
			frame:     []byte("frame"),
			wantLabel: NoFaceLabel,
		},
		{
			name:      "no faces",
			status:    http.StatusOK,
			response:  analyzeResponse{},
			frame:     []byte("frame"),
			wantLabel: NoFaceLabel,
		},
		{
			name:      "backend error",
			status:    http.StatusBadRequest,
			response:  map[string]string{"error": "Face could not be detected"},
			frame:     []byte("frame"),
			wantLabel: NoFaceLabel,
		},
		{
			name:      "empty frame",
			status:    http.StatusOK,
			frame:     nil,
			wantLabel: NoFaceLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req analyzeRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if !strings.HasPrefix(req.Img, "data:") {
					t.Errorf("img is not a data URI: %.20s", req.Img)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			d := NewHTTPDetector(server.URL, 0.5, 5*time.Second, zap.NewNop())
			if got := d.Detect(context.Background(), tt.frame).Label(); got != tt.wantLabel {
				t.Errorf("Detect().Label() = %q, want %q", got, tt.wantLabel)
			}
		})
	}
}

type sliceSource struct {
	frames [][]byte
}

func (s *sliceSource) Next(ctx context.Context) ([]byte, error) {
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

type mapDetector map[string]Result

func (m mapDetector) Detect(ctx context.Context, frame []byte) Result {
	return m[string(frame)]
}

func TestScan(t *testing.T) {
	d := mapDetector{
		"a": Detected(models.Joy),
		"b": NotDetected(),
		"c": Detected(models.Sadness),
	}

	tests := []struct {
		name   string
		frames []string
		want   string
	}{
		{name: "last frame wins", frames: []string{"a", "b", "c"}, want: "sadness"},
		{name: "face lost on last frame", frames: []string{"a", "b"}, want: NoFaceLabel},
		{name: "no frames", frames: nil, want: NoFaceLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sliceSource{}
			for _, f := range tt.frames {
				src.frames = append(src.frames, []byte(f))
			}
			if got := Scan(context.Background(), src, d).Label(); got != tt.want {
				t.Errorf("Scan() = %q, want %q", got, tt.want)
			}
		})
	}
}

type endlessSource struct {
	cancel context.CancelFunc
	n      int
}

func (s *endlessSource) Next(ctx context.Context) ([]byte, error) {
	s.n++
	if s.n == 3 {
		s.cancel()
	}
	return []byte("a"), nil
}

func TestScanStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &endlessSource{cancel: cancel}
	got := Scan(ctx, src, mapDetector{"a": Detected(models.Fear)})
	if got.Label() != "fear" {
		t.Errorf("Scan() = %q, want fear", got.Label())
	}
	if src.n != 3 {
		t.Errorf("Scan() read %d frames after cancel, want 3", src.n)
	}
}
