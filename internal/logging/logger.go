// Package logging wraps log/slog with the level and format switches read from
// configuration and attaches the active trace id to context-aware calls.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger wraps slog for structured logging.
type Logger struct {
	logger *slog.Logger
}

// Config configures the logger.
type Config struct {
	Level  string    `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string    `yaml:"format" json:"format"` // json, text
	Output io.Writer `yaml:"-" json:"-"`
}

// New creates a structured logger.
func New(config Config) *Logger {
	level := slog.LevelInfo
	switch strings.ToLower(config.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// With adds fields to the logger.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithContext adds the trace id of the span carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if l == nil {
		return Nop()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return &Logger{logger: l.logger.With("trace_id", sc.TraceID().String())}
	}
	return l
}

func (l *Logger) Debug(msg string, args ...any) { l.slog().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog().Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, args...)
}

func (l *Logger) slog() *slog.Logger {
	if l == nil || l.logger == nil {
		return Nop().logger
	}
	return l.logger
}

// MaskEmail hides the local part of an address for log output.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
