// Package web provides the HTTP JSON API over the safety report pipeline.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/safety-report/internal/alternative"
	"github.com/evcraddock/safety-report/internal/logging"
	"github.com/evcraddock/safety-report/internal/metrics"
	"github.com/evcraddock/safety-report/internal/report"
	"github.com/evcraddock/safety-report/internal/scoring"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/snippet"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Services are the components the API serves. Snippets is optional.
type Services struct {
	Engine      *report.Engine
	Scorer      *scoring.Scorer
	Classifier  *signal.Classifier
	Synthesizer *takeaway.Synthesizer
	Snippets    *snippet.Repository
}

// Server is the API HTTP server.
type Server struct {
	svc     Services
	limit   int
	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates an API server. limit is the default number of
// alternatives returned by /api/alternatives.
func NewServer(svc Services, limit int) (*Server, error) {
	if svc.Engine == nil || svc.Scorer == nil || svc.Classifier == nil || svc.Synthesizer == nil {
		return nil, fmt.Errorf("engine, scorer, classifier and synthesizer are required")
	}
	if limit <= 0 {
		limit = alternative.DefaultLimit
	}

	s := &Server{
		svc:   svc,
		limit: limit,
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.HandleFunc("/api/report", s.handleAPIReport)
	s.mux.HandleFunc("/api/score", s.handleAPIScore)
	s.mux.HandleFunc("/api/classify", s.handleAPIClassify)
	s.mux.HandleFunc("/api/takeaways", s.handleAPITakeaways)
	s.mux.HandleFunc("/api/alternatives", s.handleAPIAlternatives)
	s.mux.HandleFunc("/api/snippets", s.handleAPISnippets)

	s.handler = logging.RequestLogger(s.mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
