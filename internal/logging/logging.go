// Package logging provides structured logging setup with colored
// terminal output (via tint) and a runtime-adjustable log level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level is the global log level shared by every handler built here.
var Level = new(slog.LevelVar) // default: INFO

// Setup installs the global slog logger writing to w. Terminals get tint's
// colored output; anything else gets JSON for log aggregation.
func Setup(w io.Writer) {
	slog.SetDefault(slog.New(NewHandler(w, isTerminal(w))))
}

// NewHandler returns the handler Setup would install for w.
func NewHandler(w io.Writer, color bool) slog.Handler {
	if color {
		return tint.NewHandler(w, &tint.Options{
			Level:      Level,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: Level,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetLevel changes the global log level.
func SetLevel(l slog.Level) {
	Level.Set(l)
}

// GetLevel returns the current global log level.
func GetLevel() slog.Level {
	return Level.Level()
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
// It is case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.ToUpper(s)))
	return l, err
}
