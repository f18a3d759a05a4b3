package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text", "json"
	Output string // "stdout", "stderr"
}

// DefaultConfig returns default logger configuration.
// Logs go to stderr so that command output on stdout stays scriptable.
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:  getEnvOrDefault("AWSSWITCH_LOG_LEVEL", "warn"),
		Format: getEnvOrDefault("AWSSWITCH_LOG_FORMAT", "text"),
		Output: getEnvOrDefault("AWSSWITCH_LOG_OUTPUT", "stderr"),
	}
}

// NewLogger creates a new structured logger with the given configuration
func NewLogger(config LoggerConfig) *slog.Logger {
	output := io.Writer(os.Stderr)
	if config.Output == "stdout" {
		output = os.Stdout
	}
	return NewLoggerWithWriter(config, output)
}

// NewLoggerWithWriter creates a logger writing to w, ignoring config.Output
func NewLoggerWithWriter(config LoggerConfig, w io.Writer) *slog.Logger {
	var handler slog.Handler
	level := parseLevel(config.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if config.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewDefaultLogger creates a logger with default configuration
func NewDefaultLogger() *slog.Logger {
	return NewLogger(DefaultConfig())
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseLevel converts string level to slog.Level
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// WithComponent adds a component field to the logger for better categorization
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithProfile adds the profile being operated on
func WithProfile(logger *slog.Logger, profile string) *slog.Logger {
	return logger.With("profile", profile)
}

// MaskSensitiveValue masks sensitive information in logs
func MaskSensitiveValue(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
