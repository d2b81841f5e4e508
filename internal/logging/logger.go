// Package logging wraps charmbracelet/log for the gomdview pipeline. The
// viewer logs to stderr only, so diagnostics never interleave with a piped
// document or the HTML output; timestamps are omitted because the sequence
// numbers on published snapshots already order the stream.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

//nolint:gochecknoglobals // Package-level default logger is intentional.
var (
	defaultLogger *log.Logger
	defaultOnce   sync.Once
)

// New creates a stderr logger at the given level. Unknown level names fall
// back to info, the same default the CLI starts with before --debug is seen.
func New(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

// ParseLevel maps a level name to a charmbracelet/log level, defaulting to
// info for anything unrecognized.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Default returns the process-wide logger used when no logger travels in the
// context.
func Default() *log.Logger {
	defaultOnce.Do(func() {
		defaultLogger = New("info")
	})
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *log.Logger) {
	defaultOnce.Do(func() {})
	defaultLogger = logger
}

// SetLevel updates the level of the default logger; --debug routes here.
func SetLevel(level string) {
	Default().SetLevel(ParseLevel(level))
}
