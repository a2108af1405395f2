package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/report"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/snippet"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// decodeBody decodes a bounded JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apiError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// lookupError maps a listing lookup failure to a status code.
func lookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrListingNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	case r.Context().Err() != nil:
		apiError(w, "request canceled", http.StatusServiceUnavailable)
	case strings.Contains(err.Error(), "required"):
		apiError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.ErrorContext(r.Context(), "listing lookup failed", "error", err)
		apiError(w, fmt.Sprintf("looking up listing: %v", err), http.StatusBadGateway)
	}
}

// handleAPIReport serves GET /api/report?url=&market= and POST /api/report.
func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rep, err := s.svc.Engine.BuildForURL(r.Context(), q.Get("url"), q.Get("market"))
		if err != nil {
			lookupError(w, r, err)
			return
		}
		apiJSON(w, rep, http.StatusOK)
	case http.MethodPost:
		var l listing.Listing
		if !decodeBody(w, r, &l) {
			return
		}
		rep, err := s.svc.Engine.Build(r.Context(), l)
		if err != nil {
			if r.Context().Err() != nil {
				apiError(w, "request canceled", http.StatusServiceUnavailable)
				return
			}
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		apiJSON(w, rep, http.StatusOK)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPIScore scores a listing body.
func (s *Server) handleAPIScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var l listing.Listing
	if !decodeBody(w, r, &l) {
		return
	}
	if l.Location != nil {
		if err := l.Location.Validate(); err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	apiJSON(w, report.NewScoreSection(s.svc.Scorer.ScoreContext(r.Context(), l)), http.StatusOK)
}

type snippetsRequest struct {
	SubjectKey string           `json:"subject_key"`
	Snippets   []signal.Snippet `json:"snippets"`
}

// handleAPIClassify classifies a batch of snippets.
func (s *Server) handleAPIClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req snippetsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	classified, err := s.svc.Classifier.ClassifyAll(r.Context(), req.Snippets)
	if err != nil {
		apiError(w, "request canceled", http.StatusServiceUnavailable)
		return
	}

	type response struct {
		Summary  signal.Summary             `json:"summary"`
		Snippets []signal.ClassifiedSnippet `json:"snippets"`
	}
	apiJSON(w, response{Summary: signal.Summarize(classified), Snippets: classified}, http.StatusOK)
}

// handleAPITakeaways returns the cached or freshly synthesized takeaway for
// a subject. Snippets in the body are used only on a miss.
func (s *Server) handleAPITakeaways(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req snippetsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key := strings.TrimSpace(req.SubjectKey)
	if key == "" {
		apiError(w, "subject_key is required", http.StatusBadRequest)
		return
	}

	classified, err := s.svc.Classifier.ClassifyAll(r.Context(), req.Snippets)
	if err != nil {
		apiError(w, "request canceled", http.StatusServiceUnavailable)
		return
	}
	t, outcome := s.svc.Synthesizer.Get(r.Context(), key, classified)

	type response struct {
		Cache    takeaway.Outcome   `json:"cache"`
		Takeaway *takeaway.Takeaway `json:"takeaway"`
	}
	apiJSON(w, response{Cache: outcome, Takeaway: t}, http.StatusOK)
}

// handleAPIAlternatives ranks safer alternatives for a listing URL.
func (s *Server) handleAPIAlternatives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	limit := s.limit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			apiError(w, "limit must be 1-50", http.StatusBadRequest)
			return
		}
		limit = n
	}

	target, snapshot, err := s.svc.Engine.Lookup(r.Context(), q.Get("url"), q.Get("market"))
	if err != nil {
		lookupError(w, r, err)
		return
	}
	matches, err := s.svc.Engine.Alternatives(r.Context(), target, snapshot, limit)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	apiJSON(w, matches, http.StatusOK)
}

// handleAPISnippets lists or adds stored snippets for a subject.
func (s *Server) handleAPISnippets(w http.ResponseWriter, r *http.Request) {
	if s.svc.Snippets == nil {
		apiError(w, "snippet storage not configured", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		subject := strings.TrimSpace(r.URL.Query().Get("subject"))
		if subject == "" {
			apiError(w, "subject is required", http.StatusBadRequest)
			return
		}
		records, err := s.svc.Snippets.List(r.Context(), subject)
		if err != nil {
			apiError(w, fmt.Sprintf("listing snippets: %v", err), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = make([]*snippet.Record, 0)
		}
		apiJSON(w, records, http.StatusOK)
	case http.MethodPost:
		var req struct {
			SubjectKey string `json:"subject_key"`
			signal.Snippet
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.SubjectKey) == "" || strings.TrimSpace(req.Text) == "" {
			apiError(w, "subject_key and text are required", http.StatusBadRequest)
			return
		}
		rec, err := s.svc.Snippets.Add(r.Context(), strings.TrimSpace(req.SubjectKey), req.Snippet)
		if err != nil {
			apiError(w, fmt.Sprintf("adding snippet: %v", err), http.StatusInternalServerError)
			return
		}
		apiJSON(w, rec, http.StatusCreated)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
