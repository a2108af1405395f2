// Package logging provides structured logging setup for the safety report
// service.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the default slog logger on stdout.
// Dev mode uses human-readable text; prod uses JSON.
func Setup(devMode bool) {
	slog.SetDefault(New(os.Stdout, devMode))
}

// New builds a logger writing to w with the handler Setup would use.
func New(w io.Writer, devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
