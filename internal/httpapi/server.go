// Package httpapi exposes the wellness service as a JSON API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xaenox/mindscope/internal/wellness"
	"go.uber.org/zap"
)

type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   *zap.Logger
}

func NewServer(addr string, svc *wellness.Service, sessions *wellness.Sessions, logger *zap.Logger) *Server {
	router := chi.NewRouter()
	s := &Server{
		router:   router,
		handlers: NewHandlers(svc, sessions, logger),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	h := s.handlers
	s.router.Get("/healthz", h.Healthz)

	s.router.Route("/analyze", func(r chi.Router) {
		r.Post("/text", h.AnalyzeText)
		r.Post("/voice", h.AnalyzeVoice)
		r.Post("/face", h.AnalyzeFace)
	})

	s.router.Route("/moods", func(r chi.Router) {
		r.Get("/", h.Moods)
		r.Get("/frequency", h.Frequency)
		r.Get("/trend", h.Trend)
	})

	s.router.Get("/journal/prompt", h.JournalPrompt)
	s.router.Post("/journal", h.SaveJournal)
	s.router.Get("/suggestions/{emotion}", h.Suggestion)
	s.router.Get("/support", h.Support)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP API", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP API stopped")
	return nil
}
