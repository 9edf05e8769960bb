package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithField adds a single string field to the logger in the context.
func WithField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithRun tags every event with the merge run id.
func WithRun(ctx context.Context, runID string) context.Context {
	return WithField(ctx, "run_id", runID)
}

// WithBatch tags every event with the batch name.
func WithBatch(ctx context.Context, batch string) context.Context {
	return WithField(ctx, "batch", batch)
}

// WithRecord tags every event with a source reference such as "crowd_geo:node/42".
func WithRecord(ctx context.Context, ref string) context.Context {
	return WithField(ctx, "record", ref)
}

// WithSite tags every event with a canonical site id.
func WithSite(ctx context.Context, siteID string) context.Context {
	return WithField(ctx, "site_id", siteID)
}
