//go:build sync_debug

package logging

import (
	"log/slog"
	"os"
)

func defaultLogger() *slog.Logger {
	level.Set(slog.LevelDebug)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Debug logs a message at Debug level.
func Debug(msg string, args ...any) {
	current.Load().Debug(msg, args...)
}
