package listgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with listgo-specific context.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPage adds a page index field to the logger.
func (l *Logger) WithPage(page int) *Logger {
	return &Logger{
		Logger: l.Logger.With("page", page),
	}
}

// WithSearch adds a search term field to the logger.
func (l *Logger) WithSearch(search string) *Logger {
	return &Logger{
		Logger: l.Logger.With("search", search),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogQuery logs a page query.
func (l *Logger) LogQuery(ctx context.Context, page, limit int, search string, returned int, err error) {
	ql := l.WithPage(page).WithSearch(search)
	if err != nil {
		ql.ErrorContext(ctx, "query failed",
			"limit", limit,
			"error", err,
		)
	} else {
		ql.DebugContext(ctx, "query completed",
			"limit", limit,
			"returned", returned,
		)
	}
}

// LogReplaceOrder logs an order overlay replacement.
func (l *Logger) LogReplaceOrder(ctx context.Context, count int, err error) {
	if err != nil {
		l.WithCount(count).ErrorContext(ctx, "order replace failed", "error", err)
	} else {
		l.WithCount(count).DebugContext(ctx, "order replaced")
	}
}

// LogReplaceSelection logs a selection set replacement.
func (l *Logger) LogReplaceSelection(ctx context.Context, count int, err error) {
	if err != nil {
		l.WithCount(count).ErrorContext(ctx, "selection replace failed", "error", err)
	} else {
		l.WithCount(count).DebugContext(ctx, "selection replaced")
	}
}

// LogSnapshot logs a state snapshot.
func (l *Logger) LogSnapshot(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved")
	}
}
