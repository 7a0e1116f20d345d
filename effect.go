package bloom

import (
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// Reinitialize interval limits, in seconds.
const (
	minReinitializeInterval = 0.1
	maxReinitializeInterval = 10.0
)

// Effect is the owner side of one bloom configuration. It holds a registry
// slot for its whole life and moves it in and out of the active set.
//
// An Effect is safe for concurrent use, but Tick is expected to be called
// from a single update loop.
type Effect struct {
	reg *Registry
	h   Handle

	mu     sync.Mutex
	timer  time.Duration
	closed bool
}

// NewEffect stores cfg in reg and registers it, enabled.
func NewEffect(reg *Registry, cfg Config) *Effect {
	e := &Effect{reg: reg, h: reg.Create(cfg)}
	if reg.Register(e.h) {
		Logger().Info("bloom: effect registered", "handle", e.h, "mode", cfg.Mode)
	}
	return e
}

// Handle returns the registry handle of e.
func (e *Effect) Handle() Handle { return e.h }

// Enable marks the effect enabled and registers it.
func (e *Effect) Enable() error {
	if err := e.reg.SetEnabled(e.h, true); err != nil {
		return err
	}
	e.reg.Register(e.h)
	return nil
}

// Disable marks the effect disabled and unregisters it.
func (e *Effect) Disable() error {
	if err := e.reg.SetEnabled(e.h, false); err != nil {
		return err
	}
	e.reg.Unregister(e.h)
	return nil
}

// Config returns a copy of the current configuration. The second result is
// false after Close.
func (e *Effect) Config() (Config, bool) {
	return e.reg.Config(e.h)
}

// Update edits the configuration in place. Changes are picked up by the
// next frame.
func (e *Effect) Update(fn func(*Config)) error {
	return e.reg.Update(e.h, fn)
}

// SetMode switches the effect mode, applying the soft focus blend default.
func (e *Effect) SetMode(m Mode) error {
	return e.reg.Update(e.h, func(c *Config) { *c = c.WithMode(m) })
}

// Reinitialize unregisters and re-registers the effect. Hosts that cache
// view rectangles per registration use it to pick up resized viewports.
func (e *Effect) Reinitialize() {
	e.reg.Unregister(e.h)
	e.reg.Register(e.h)
}

// Tick advances the auto-reinitialize timer by dt. When enabled in the
// debug settings, the effect reinitializes every ReinitializeInterval.
// It reports whether a reinitialize happened.
func (e *Effect) Tick(dt time.Duration) bool {
	cfg, ok := e.reg.Config(e.h)
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if !cfg.Debug.AutoReinitialize {
		e.timer = 0
		e.mu.Unlock()
		return false
	}
	secs := mathClamp(cfg.Debug.ReinitializeInterval, minReinitializeInterval, maxReinitializeInterval)
	interval := time.Duration(secs * float32(time.Second))
	e.timer += dt
	fire := e.timer >= interval
	if fire {
		e.timer = 0
	}
	e.mu.Unlock()

	if fire {
		e.Reinitialize()
		if cfg.Debug.Logging {
			Logger().Debug("bloom: auto reinitialize", "interval", interval)
		}
	}
	return fire
}

// Close destroys the registry slot. It is safe to call more than once.
func (e *Effect) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.reg.Destroy(e.h)
	return nil
}

// mathClamp clamps v to [lo, hi]; NaN maps to lo.
func mathClamp(v, lo, hi float32) float32 {
	if math32.IsNaN(v) {
		return lo
	}
	return math32.Min(math32.Max(v, lo), hi)
}
