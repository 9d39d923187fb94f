package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
)

// serviceName is attached to every record.
const serviceName = "xmlruntime"

// Logger wraps slog.Logger with xmlruntime-specific defaults.
//
// It satisfies xmlruntime.Logger, so it can be handed to a document loader
// directly.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for machines, text for terminals)
//   - Log level filtering
//   - Default fields (service name, version)
//   - Output destination, resolved against stdout and stderr so callers
//     can capture it
func New(cfg config.LoggingConfig, version string, stdout, stderr io.Writer) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = stdout
	case "discard":
		output = io.Discard
	default:
		// Stdout carries the printed configuration.
		output = stderr
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter is New writing to w instead of the configured output.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
//
// Example:
//
//	loaderLogger := logger.With("component", "loader")
//	loaderLogger.Debug("plugin defined") // Includes component=loader
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}
