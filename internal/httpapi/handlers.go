package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xaenox/mindscope/internal/advice"
	"github.com/xaenox/mindscope/internal/classifier"
	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/mood"
	"github.com/xaenox/mindscope/internal/voice"
	"github.com/xaenox/mindscope/internal/wellness"
	"go.uber.org/zap"
)

const maxUploadBytes = 25 << 20

type Handlers struct {
	svc      *wellness.Service
	sessions *wellness.Sessions
	logger   *zap.Logger
}

func NewHandlers(svc *wellness.Service, sessions *wellness.Sessions, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, sessions: sessions, logger: logger}
}

type analyzeTextRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

type analysisResponse struct {
	SessionID string `json:"session_id"`
	wellness.Analysis
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

type journalRequest struct {
	SessionID string `json:"session_id"`
	Entry     string `json:"entry"`
}

func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source := models.SourceText
	if req.Source != "" {
		s, err := models.ParseSource(req.Source)
		if err != nil || (s != models.SourceText && s != models.SourceChat) {
			writeError(w, http.StatusBadRequest, "source must be Text or Chat")
			return
		}
		source = s
	}

	sess := h.sessions.Get(req.SessionID)
	a, err := h.svc.AnalyzeText(r.Context(), sess, source, req.Text)
	h.writeAnalysis(w, sess, a, err)
}

func (h *Handlers) AnalyzeVoice(w http.ResponseWriter, r *http.Request) {
	data, name, ok := readUpload(w, r, "audio")
	if !ok {
		return
	}

	sess := h.sessions.Get(r.FormValue("session_id"))
	a, err := h.svc.AnalyzeVoice(r.Context(), sess, voice.Clip{Name: name, Data: data})
	h.writeAnalysis(w, sess, a, err)
}

func (h *Handlers) AnalyzeFace(w http.ResponseWriter, r *http.Request) {
	data, _, ok := readUpload(w, r, "image")
	if !ok {
		return
	}

	sess := h.sessions.Get(r.FormValue("session_id"))
	a, err := h.svc.AnalyzeFace(r.Context(), sess, data)
	h.writeAnalysis(w, sess, a, err)
}

func (h *Handlers) writeAnalysis(w http.ResponseWriter, sess *wellness.Session, a wellness.Analysis, err error) {
	resp := analysisResponse{SessionID: sess.ID, Analysis: a}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, mood.ErrLogWrite), errors.Is(err, mood.ErrInvalidField):
		h.logger.Warn("Analysis not saved to mood log", zap.Error(err), zap.String("session_id", sess.ID))
		resp.Warning = "emotion could not be saved to the mood log"
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, classifier.ErrUnavailable):
		resp.Error = "emotion classifier unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
	case errors.Is(err, wellness.ErrNotConfigured):
		resp.Error = err.Error()
		writeJSON(w, http.StatusNotImplemented, resp)
	default:
		h.logger.Error("Analysis failed", zap.Error(err), zap.String("session_id", sess.ID))
		resp.Error = "analysis failed"
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Records(r.Context())
	if err != nil {
		h.logger.Error("Failed to load mood log", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load mood log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handlers) Frequency(w http.ResponseWriter, r *http.Request) {
	var sources []models.Source
	for _, raw := range r.URL.Query()["source"] {
		s, err := models.ParseSource(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sources = append(sources, s)
	}

	report, err := h.svc.MoodReport(r.Context(), sources...)
	if err != nil {
		h.logger.Error("Failed to aggregate mood log", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to aggregate mood log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     report.Total,
		"frequency": report.Frequency,
	})
}

func (h *Handlers) Trend(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.MoodReport(r.Context())
	if err != nil {
		h.logger.Error("Failed to aggregate mood log", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to aggregate mood log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dates":    report.Daily.Dates(),
		"emotions": report.Daily.Emotions(),
		"points":   report.Trend,
	})
}

func (h *Handlers) JournalPrompt(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Lookup(r.URL.Query().Get("session_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	prompt, err := h.svc.JournalPrompt(sess)
	if errors.Is(err, wellness.ErrNoEmotion) {
		writeError(w, http.StatusConflict, "analyze an emotion first to receive a journaling prompt")
		return
	}
	primary, _ := sess.Primary()
	writeJSON(w, http.StatusOK, map[string]string{"emotion": string(primary), "prompt": prompt})
}

func (h *Handlers) SaveJournal(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Entry) == "" {
		writeError(w, http.StatusBadRequest, "entry is required")
		return
	}
	sess, ok := h.sessions.Lookup(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	entry, err := h.svc.SaveJournal(r.Context(), sess, req.Entry)
	switch {
	case errors.Is(err, wellness.ErrNoEmotion):
		writeError(w, http.StatusConflict, "analyze an emotion first to receive a journaling prompt")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to save journal entry")
	default:
		writeJSON(w, http.StatusCreated, entry)
	}
}

func (h *Handlers) Suggestion(w http.ResponseWriter, r *http.Request) {
	emotion := models.EmotionLabel(chi.URLParam(r, "emotion"))
	writeJSON(w, http.StatusOK, map[string]string{
		"emotion":    string(emotion),
		"suggestion": advice.SuggestionFor(emotion),
		"prompt":     advice.PromptFor(emotion),
	})
}

func (h *Handlers) Support(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"resources": advice.SupportResources()})
}

func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return nil, "", false
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing "+field+" file")
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read "+field)
		return nil, "", false
	}
	return data, hdr.Filename, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
