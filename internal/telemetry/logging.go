// Package telemetry sets up structured logging.
package telemetry

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ParseLevel maps DEBUG, INFO, WARN and ERROR to slog levels. Anything else is INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds the process logger and installs it as the default.
// format "json" selects JSON output, anything else the text handler
func SetupLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithIteration tags a logger with a fresh iteration id
func WithIteration(logger *slog.Logger) *slog.Logger {
	return logger.With("iteration", uuid.NewString())
}

// WithAccount tags a logger with an account id
func WithAccount(logger *slog.Logger, accountID int) *slog.Logger {
	return logger.With("account", accountID)
}
