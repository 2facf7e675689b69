package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

type ctxKey struct{}

// WithRequestID stores a request id in the context for use by log calls
// made further down the stack.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

type Logger struct {
	service string
	handler *slog.Logger
}

func New(service string) *Logger {
	handler := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &Logger{
		service: service,
		handler: handler,
	}
}

func (l *Logger) Info(ctx context.Context, action, message string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, action, message, attrs...)
}

func (l *Logger) Error(ctx context.Context, action, message string, err error) {
	l.log(ctx, slog.LevelError, action, message, slog.String("error", err.Error()))
}

func (l *Logger) log(ctx context.Context, level slog.Level, action, message string, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.String("service", l.service),
		slog.String("action", action),
		slog.String("request_id", RequestID(ctx)),
	}
	l.handler.LogAttrs(ctx, level, message, append(base, attrs...)...)
}
