package prollytree

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with prollytree-specific helpers for the
// handful of operations worth logging at more than debug level: chunk
// writes, splices, and diffs.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger from handler. A nil handler defaults to a
// text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON lines.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that emits human-readable text lines.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithKind tags subsequent log lines with the collection kind (list,
// map, set, blob) they concern.
func (l *Logger) WithKind(kind string) *Logger {
	return &Logger{Logger: l.Logger.With("kind", kind)}
}

// LogWrite logs a chunk write of the chunk named h. deduped reports
// whether the write was a no-op because the chunk's hash already existed
// in the store.
func (l *Logger) LogWrite(ctx context.Context, h string, bytes int, deduped bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "chunk write failed", "hash", h, "bytes", bytes, "error", err)
		return
	}
	l.DebugContext(ctx, "chunk write completed", "hash", h, "bytes", bytes, "deduped", deduped)
}

// LogSplice logs a mutation of a sequence by its delete and insert counts.
func (l *Logger) LogSplice(ctx context.Context, deleteCount, insertCount int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "splice failed", "delete", deleteCount, "insert", insertCount, "error", err)
		return
	}
	l.DebugContext(ctx, "splice completed", "delete", deleteCount, "insert", insertCount)
}

// LogDiff logs a completed diff between two roots.
func (l *Logger) LogDiff(ctx context.Context, changes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "diff failed", "error", err)
		return
	}
	l.DebugContext(ctx, "diff completed", "changes", changes)
}
