package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestNewDevMode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("test debug")
	logger.Info("test info")

	if !bytes.Contains(buf.Bytes(), []byte("test debug")) {
		t.Error("expected debug message visible in dev mode")
	}
	if !bytes.Contains(buf.Bytes(), []byte("test info")) {
		t.Error("expected info message visible in dev mode")
	}
}

func TestNewProdMode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("prod test", "key", "value")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("debug message should be suppressed in prod mode")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "prod test" || entry["key"] != "value" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupProdMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Setup(false)
	// Just ensure no panic.
	slog.Info("prod test")
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	var seenID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestLogger(inner)

	req := httptest.NewRequest("GET", "/api/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID == "" {
		t.Fatal("expected request ID in context")
	}
	if rec.Header().Get(RequestIDHeader) != seenID {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seenID)
	}
	for _, want := range []string{"GET", "/api/report", "request_id=" + seenID} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected %q in log: %s", want, buf.String())
		}
	}
}

func TestRequestLoggerReusesIncomingID(t *testing.T) {
	captureLogs(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/api/score", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestRequestLoggerSkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			buf := captureLogs(t)

			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s", path)
			}
		})
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := RequestLogger(inner)

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !bytes.Contains(buf.Bytes(), []byte("404")) {
		t.Error("expected 404 status in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("level=WARN")) {
		t.Error("expected warn level for 4xx")
	}
}
