package logging

import (
	"context"

	"github.com/charmbracelet/log"
)

// loggerKey is the private context key for the attached logger. The CLI
// attaches one logger at startup and every stage downstream (viewer, HTTP
// surface) retrieves it from its context.
type loggerKey struct{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or the default logger when
// none was attached. It never returns nil.
func FromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}
