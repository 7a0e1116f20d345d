package bloom

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the package logger. Accessed atomically so SetLogger may
// race with render threads that are logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the default logger for bloom. By default bloom
// produces no log output. Pass nil to restore silence.
//
// Log levels used by bloom:
//   - [slog.LevelDebug]: per-frame diagnostics (mode, sizes, transforms), rate limited
//   - [slog.LevelInfo]: registration lifecycle
//   - [slog.LevelWarn]: program fallbacks
//
// An [Extension] created with [WithLogger] uses its own logger instead.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current default logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
