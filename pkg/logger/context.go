package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// NewContext stores l on ctx for downstream handlers.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With adds fields to the request logger carried by ctx.
func With(ctx context.Context, fields ...any) context.Context {
	return NewContext(ctx, From(ctx).With(fields...))
}

// From returns the request logger, or the process logger when ctx carries none.
func From(ctx context.Context) *slog.Logger {
	return FromOr(ctx, LoggerWrapper())
}

// FromOr is From with an explicit fallback.
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return fallback
}
