// Package telemetry provides structured logging setup and Prometheus metrics
// for the CodeGate server. Metrics are served on a dedicated side-channel port
// (see cmd/server) so the scrape path stays off the public ingress and out of
// the rate limiter.
package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs the global slog default logger from the logging section
// of the configuration.
//
// format: "json" → JSONHandler (production); anything else → TextHandler.
// level:  "debug", "info", "warn", "error" (case-insensitive); default "info".
//
// Installing the configured logger as the default lets every slog.Info/Warn/
// Error call in the codebase pick it up without threading a *slog.Logger
// through constructors.
func SetupLogger(format, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // file:line only when debugging
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
