// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Definitions cache operations (hit/miss, key)
//   - Conditional request flow (If-None-Match, ETags)
//   - Evaluation cache reuse decisions
//
// Info: Normal operation events
//   - Successful definitions fetches
//   - 304 Not Modified responses
//   - Refresh cycle results
//   - Relay startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Store errors (fetch continues without cache)
//   - Upstream slowdown thresholds reached
//   - Skipped refresh cycles
//
// Error: Error conditions requiring attention
//   - Transport failures
//   - Stale cache conflicts (304 with nothing cached)
//   - Upstream suspension (refresh blocked)
//   - Configuration errors
//
// Context Fields:
//   - url: definitions endpoint
//   - status_code: HTTP status code
//   - duration: request duration
//   - error_class: error classification (client, server, network)
//   - cache_hit: boolean indicating definitions cache hit
//   - etag: ETag value for conditional requests
//   - source: named upstream source (relay)
//   - flag: flag name being evaluated
