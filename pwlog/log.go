// Package pwlog provides the structured logger shared by the event store,
// reducers, and CLI. It wraps log/slog with a tint handler for
// human-readable, color output on a terminal and falls back to plain text
// otherwise — the same shape as the teacher framework's structured logger.
package pwlog

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level mirrors slog.Level so callers don't need to import log/slog.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger is a thin wrapper over *slog.Logger.
type Logger struct {
	inner *slog.Logger
}

// New creates a Logger writing to w at the given minimum level. When w is
// os.Stdout/os.Stderr attached to a terminal, output is colorized via tint;
// otherwise it falls back to tint's plain (NoColor) renderer, which still
// gives the compact key=value shape the rest of the stack expects.
func New(w io.Writer, level Level) *Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	h := tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: noColor,
	})
	return &Logger{inner: slog.New(h)}
}

// Nop returns a Logger that discards everything, used as a safe default
// when a caller doesn't configure one explicitly.
func Nop() *Logger {
	return &Logger{inner: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// With returns a Logger that always includes the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Context-aware variants, used where the caller already has a ctx in hand
// and wants it threaded through to the handler (e.g. for trace ids added
// via context in future handlers).
func (l *Logger) DebugCtx(ctx context.Context, msg string, args ...any) { l.inner.DebugContext(ctx, msg, args...) }
func (l *Logger) WarnCtx(ctx context.Context, msg string, args ...any)  { l.inner.WarnContext(ctx, msg, args...) }
