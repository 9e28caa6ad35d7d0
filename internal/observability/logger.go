package observability

import (
	"io"
	"log/slog"
	"os"
)

func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

// InstallLogger builds the logger for env and makes it the slog default, so
// packages that fall back to slog.Default share its handler.
func InstallLogger(env string) *slog.Logger {
	return installLogger(os.Stdout, env)
}

func installLogger(w io.Writer, env string) *slog.Logger {
	log := newLogger(w, env)
	slog.SetDefault(log)
	return log
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler))
}
