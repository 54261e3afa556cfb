// Package logging provides the structured logger shared by the engine, the
// session controller and the CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with nnview-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// New builds a logger from textual settings, as found in configuration.
// format is "text" or "json"; level is debug, info, warn or error.
func New(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextLogger(w, lvl), nil
	case "json":
		return NewJSONLogger(w, lvl), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithQuery adds the query point id to the logger.
func (l *Logger) WithQuery(id int) *Logger {
	return &Logger{Logger: l.Logger.With("query", id)}
}

// WithIndex adds the index kind to the logger.
func (l *Logger) WithIndex(kind string) *Logger {
	return &Logger{Logger: l.Logger.With("index", kind)}
}

// LogQuery logs a neighbor query.
func (l *Logger) LogQuery(ctx context.Context, queryID, k, found int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "neighbor query failed",
			"query", queryID,
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "neighbor query completed",
		"query", queryID,
		"k", k,
		"found", found,
		"elapsed", elapsed,
	)
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, kind string, points int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"index", kind,
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"index", kind,
		"points", points,
		"elapsed", elapsed,
	)
}
