// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
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
	Level LogLevel `validate:"oneof=debug info warn error"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer `validate:"required"`

	// Service is added to every event when set.
	Service string `validate:"omitempty,max=64"`
}

var validate = validator.New()

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("logger config validation error: %w", err)
	}
	return nil
}

// Setup validates cfg and configures the global zerolog logger.
func Setup(cfg Config) (zerolog.Logger, error) {
	cfg.Level = LogLevel(strings.ToLower(string(cfg.Level)))
	if cfg.Level == "warning" {
		cfg.Level = LevelWarn
	}
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	// Set global log level
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	// Configure output
	output := cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	// Set as global logger
	log.Logger = logger

	return logger, nil
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
//   - Cache operations (hit/miss, key, TTL)
//   - Every outbound request (cursor, attempt)
//   - Every accepted page (page_items, collected, total)
//
// Info: Normal operation events
//   - Collection start and finish
//   - Request succeeded after retry
//   - Export saved
//   - Progress events when stdout is not a terminal
//   - Metrics server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Failed attempts that will be retried
//   - API budget running low
//   - Cache or usage tracking errors (request continues)
//
// Error: Error conditions requiring attention
//   - Retry attempts exhausted
//   - Collection failed (invalid response, total mismatch)
//   - API budget almost exhausted
//   - Configuration errors
//
// Context Fields:
//   - run_id: Identifier of one collection run
//   - app_id: Steam application id
//   - cursor: Continuation cursor of a request
//   - attempt: Attempt number within one page request
//   - backoff: Wait before the next attempt
//   - collected / total: Records gathered and declared
//   - key: Cache key
//   - calls / remaining: Daily API usage
