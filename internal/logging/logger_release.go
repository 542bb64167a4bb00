//go:build !sync_debug

package logging

import "log/slog"

func defaultLogger() *slog.Logger {
	return discardLogger()
}

// Debug is a no-op in release builds.
// The compiler will inline and remove calls to this function.
func Debug(msg string, args ...any) {}
