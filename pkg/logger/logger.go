// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the logger the access-log middleware stored for the current
// request, so handler log lines carry the request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("slept", "ms", 250)
//	// → time=... level=INFO msg=slept request_id=a1b2c3d4 ms=250
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var L = New("local", os.Stdout)

// New builds a logger for env: JSON at INFO for production, text at DEBUG
// otherwise.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Setup replaces the package logger and slog's default.
func Setup(env string, w io.Writer) *slog.Logger {
	L = New(env, w)
	slog.SetDefault(L)
	return L
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
