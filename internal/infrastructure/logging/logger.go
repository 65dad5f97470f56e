package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "robotrelay"

// Logger wraps slog.Logger with relay-specific defaults.
//
// All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to the output named in cfg.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	return NewWithWriter(cfg, version, output)
}

// NewWithWriter creates a Logger writing to w. The Output field of cfg is
// ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch resolveFormat(cfg.Format, w) {
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

// resolveFormat maps "auto" to text on a terminal and JSON elsewhere.
func resolveFormat(format string, w io.Writer) string {
	switch strings.ToLower(format) {
	case "text":
		return "text"
	case "auto":
		if f, ok := w.(*os.File); ok && isTerminal(f.Fd()) {
			return "text"
		}
		return "json"
	default:
		return "json"
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// parseLevel converts a string log level to slog.Level.
// Unrecognised values map to info.
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
//	wsLogger := logger.With("component", "websocket")
//	wsLogger.Info("listening") // includes component=websocket
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default creates a logger for use before configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "auto",
		Output: "stderr",
	}, "dev")
}
