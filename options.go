package bloom

import (
	"log/slog"
	"time"

	"github.com/gogpu/bloom/shader"
)

// Option configures an Extension during creation.
//
// Example:
//
//	// Every program assumed present
//	ext := bloom.NewExtension(reg)
//
//	// Programs compiled from the embedded WGSL sources
//	ext := bloom.NewExtension(reg, bloom.WithPrograms(shader.NewEmbeddedLibrary()))
type Option func(*extensionOptions)

// extensionOptions holds optional configuration for Extension creation.
type extensionOptions struct {
	programs  shader.Library
	logger    *slog.Logger
	clock     func() time.Time
	intervals map[Category]time.Duration
}

// defaultOptions returns the default extension options.
func defaultOptions() extensionOptions {
	return extensionOptions{
		programs: nil, // shader.Builtin() if nil
		logger:   nil, // package Logger() if nil
		clock:    time.Now,
	}
}

// WithPrograms sets the library reporting which pixel programs exist.
// Programs the library lacks trigger the documented fallbacks.
//
// Example:
//
//	lib := shader.Builtin().Without(shader.KawaseUpsample)
//	ext := bloom.NewExtension(reg, bloom.WithPrograms(lib))
func WithPrograms(lib shader.Library) Option {
	return func(o *extensionOptions) {
		o.programs = lib
	}
}

// WithLogger sets a per-extension logger. Without it the package logger
// configured by SetLogger is used at the time of each call.
func WithLogger(l *slog.Logger) Option {
	return func(o *extensionOptions) {
		o.logger = l
	}
}

// WithClock sets the time source of the diagnostics throttle.
func WithClock(clock func() time.Time) Option {
	return func(o *extensionOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithThrottleInterval overrides the minimum spacing of one diagnostic
// category.
func WithThrottleInterval(c Category, d time.Duration) Option {
	return func(o *extensionOptions) {
		if o.intervals == nil {
			o.intervals = make(map[Category]time.Duration)
		}
		o.intervals[c] = d
	}
}
