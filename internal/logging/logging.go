package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Attribute keys used by pipeline stages, kept in one place so log lines
// stay grepable across runs.
const (
	KeyStage    = "stage"
	KeySource   = "source"
	KeyEvents   = "events"
	KeySessions = "sessions"
	KeyVocab    = "vocab_size"
	KeyClasses  = "classes"
	KeyWindows  = "windows"
	KeyTrain    = "train"
	KeyVal      = "validation"
	KeySamples  = "samples"
	KeyScorer   = "scorer"
	KeyDuration = "duration"
)

// Init creates and sets the package-level default slog logger. Logs always
// go to stderr so stdout stays clean for data (metric output in evaluate
// mode). jsonHandler selects machine-readable lines over the human text
// handler.
func Init(jsonHandler bool, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonHandler {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
