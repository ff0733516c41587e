package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON at info level in
// production, text at debug level everywhere else. The service tag
// rides on every line so the platform's log pipeline can filter engine
// output from the rest of the stack.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		AddSource: env == "development",
	}

	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "chamada-engine")
}
