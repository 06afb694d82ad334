// Package logger provides structured logging using Zap.
//
// There is no process-wide logger: main builds one with New and hands it to
// every component. Request-scoped children (carrying the request ID) travel
// on the context via WithContext and are recovered with FromContext.
package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	ctxKey       struct{}
	requestIDKey struct{}
)

// New builds a sugared logger for the given environment.
// For "production", it uses a JSON encoder. For "test", it discards output.
// For all other environments, it uses a human-readable console encoder.
func New(env string) *zap.SugaredLogger {
	var base *zap.Logger
	var err error

	switch env {
	case "production":
		base, err = zap.NewProduction()
	case "test":
		base = zap.NewNop()
	default:
		base, err = zap.NewDevelopment()
	}

	if err != nil {
		// Fallback to nop logger if initialization fails.
		base = zap.NewNop()
	}

	return base.Sugar()
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// WithContext returns a copy of ctx carrying log.
func WithContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the request-scoped logger stored in ctx, or fallback
// when the context carries none.
func FromContext(ctx context.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && log != nil {
			return log
		}
	}
	if fallback == nil {
		return Nop()
	}
	return fallback
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync(log *zap.SugaredLogger) {
	if log != nil {
		_ = log.Sync()
	}
}

// WithRequestID returns a copy of ctx carrying the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
