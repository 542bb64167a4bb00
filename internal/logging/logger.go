// File: internal/logging/logger.go
// Package logging is the package-level structured logger of the core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Info and Warn always forward to the configured logger. Debug forwards only
// in builds tagged sync_debug and compiles to nothing otherwise.

package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

var (
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(defaultLogger())
}

// SetLogger replaces the logger. A nil logger restores the default.
// Records of the supplied logger are also filtered by SetLevel.
func SetLogger(l *slog.Logger) {
	if l == nil {
		current.Store(defaultLogger())
		return
	}
	current.Store(slog.New(leveled{l.Handler()}))
}

// Logger returns the logger in use.
func Logger() *slog.Logger {
	return current.Load()
}

// SetLevel changes the minimum level of every record the package emits.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, bool) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, false
	}
	return l, true
}

// Info logs a message at Info level.
func Info(msg string, args ...any) {
	current.Load().Info(msg, args...)
}

// Warn logs a message at Warn level.
func Warn(msg string, args ...any) {
	current.Load().Warn(msg, args...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level}))
}

// leveled gates a caller-supplied handler on the package level.
type leveled struct {
	slog.Handler
}

func (h leveled) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= level.Level() && h.Handler.Enabled(ctx, l)
}

func (h leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return leveled{h.Handler.WithAttrs(attrs)}
}

func (h leveled) WithGroup(name string) slog.Handler {
	return leveled{h.Handler.WithGroup(name)}
}
