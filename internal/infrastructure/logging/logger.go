package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nwalker85/appsentry/internal/infrastructure/config"
)

const serviceName = "appsentry"

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Logger wraps slog.Logger with service-wide defaults. Safe for concurrent
// use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of the configuration.
//
// Format selects between JSON (default) and text handlers, Level filters
// records below the given threshold, and Output picks stdout or stderr.
// Every record carries service and version attributes so log aggregation
// can tell supervisor output apart from the child's app.log stream.
func New(cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: resolveLevel(cfg.Level)}

	var handler slog.Handler
	out := resolveOutput(cfg.Output)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// Default returns a JSON stdout logger at info level for use during early
// startup, before the configuration file has been read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// With returns a child Logger carrying additional default attributes,
// typically a component name:
//
//	runLog := logger.With("component", "supervisor")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func resolveLevel(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(name)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

func resolveOutput(name string) io.Writer {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}
