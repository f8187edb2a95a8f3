// Package logging defines the context-aware structured-logging interface used
// across the server, with slog and zap backends.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "message sent", "from", from, "to", to)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// New builds a Logger for the given format: "text" and "json" use slog,
// "zap" uses zap's production configuration. Unknown formats fall back to
// JSON slog. level is parsed with ParseLevel.
func New(format, level string) (Logger, error) {
	return newWithWriter(format, level, os.Stdout)
}

func newWithWriter(format, level string, w io.Writer) (Logger, error) {
	lvl := ParseLevel(level)
	if format == "zap" {
		return NewZapProductionLogger(lvl)
	}
	return NewSlogLogger(slog.New(newSlogHandler(format, w, lvl))), nil
}
