// Package logging builds the zerolog logger shared by the engine and the
// terminal host.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a logger at the given level writing JSON lines to w.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if w == nil {
		w = io.Discard
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Str("service", "latentmap").Logger()
}

// Open returns a logger writing to path, or a discarding logger when path
// is empty. The terminal owns stdout, so logs never go there. The returned
// closer must be called on exit.
func Open(level, path string) (zerolog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return NewLogger(level, io.Discard), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return NewLogger(level, f), f, nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
