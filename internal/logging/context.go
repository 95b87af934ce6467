package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	publishIDKey
)

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithPublishID tags the context logger with the id of a publish run so every
// line of one run can be correlated.
func WithPublishID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).With().Str("publish_id", id).Logger()
	return WithLogger(context.WithValue(ctx, publishIDKey, id), &logger)
}

// PublishID returns the publish run id stored in ctx, or "".
func PublishID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(publishIDKey).(string)
	return id
}

// Tagged returns logger with the publish id of ctx attached, when there is one.
func Tagged(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id := PublishID(ctx); id != "" {
		return logger.With().Str("publish_id", id).Logger()
	}
	return logger
}
