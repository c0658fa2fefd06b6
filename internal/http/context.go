package http

import (
	"context"
	"log/slog"

	"github.com/example/meeting-scheduler/internal/logging"
)

type contextKey string

const (
	clubIDContextKey    contextKey = "club_id"
	requestIDContextKey contextKey = "request_id"
)

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithClubID injects the club identifier resolved from the request path.
func ContextWithClubID(ctx context.Context, clubID int64) context.Context {
	return context.WithValue(ctx, clubIDContextKey, clubID)
}

// ClubIDFromContext extracts a club identifier previously associated with the context.
func ClubIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(clubIDContextKey).(int64)
	return id, ok
}

// ContextWithRequestID stores the request identifier.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request identifier assigned by RequestLogger.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}
