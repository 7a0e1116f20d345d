package bloom

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/bloom/screen"
)

// Category groups diagnostic messages for rate limiting.
type Category uint8

const (
	// CategoryFrame covers the per-frame summary: mode, sizes, transforms.
	CategoryFrame Category = iota
	// CategorySubscribe covers pass subscriptions.
	CategorySubscribe
	// CategoryDuplicate covers skipped duplicate subscriptions.
	CategoryDuplicate
	// CategoryFallback covers strategy fallbacks to standard blur.
	CategoryFallback
	// CategoryPassThrough covers frames returned unmodified after a build
	// error.
	CategoryPassThrough

	categoryCount
)

var categoryNames = [categoryCount]string{"frame", "subscribe", "duplicate", "fallback", "pass-through"}

func (c Category) String() string {
	if c < categoryCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Default minimum spacing between two messages of a category.
var defaultIntervals = [categoryCount]time.Duration{
	CategoryFrame:       time.Second,
	CategorySubscribe:   time.Second,
	CategoryDuplicate:   2 * time.Second,
	CategoryFallback:    time.Second,
	CategoryPassThrough: time.Second,
}

// Throttle rate-limits diagnostics per category. It holds the last emit
// time of every category explicitly, so tests drive it with a fake clock.
type Throttle struct {
	mu       sync.Mutex
	clock    func() time.Time
	interval [categoryCount]time.Duration
	last     [categoryCount]time.Time
	sent     [categoryCount]bool
}

// NewThrottle creates a throttle with the default intervals. A nil clock
// uses time.Now.
func NewThrottle(clock func() time.Time) *Throttle {
	if clock == nil {
		clock = time.Now
	}
	return &Throttle{clock: clock, interval: defaultIntervals}
}

// SetInterval changes the spacing of one category.
func (t *Throttle) SetInterval(c Category, d time.Duration) {
	if c >= categoryCount {
		return
	}
	t.mu.Lock()
	t.interval[c] = d
	t.mu.Unlock()
}

// Allow reports whether a message of category c may be emitted now, and
// if so records the emission. The first message always passes; later ones
// need strictly more than the interval to have elapsed.
func (t *Throttle) Allow(c Category) bool {
	if c >= categoryCount {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	if t.sent[c] && now.Sub(t.last[c]) <= t.interval[c] {
		return false
	}
	t.sent[c] = true
	t.last[c] = now
	return true
}

// transformAttr renders a transform as a log group.
func transformAttr(key string, tr screen.Transform) slog.Attr {
	return slog.Group(key,
		slog.Any("scale", []float32{tr.Scale[0], tr.Scale[1]}),
		slog.Any("bias", []float32{tr.Bias[0], tr.Bias[1]}),
	)
}

// viewportAttr renders a viewport as a log group.
func viewportAttr(key string, v screen.Viewport) slog.Attr {
	return slog.Group(key,
		slog.String("extent", v.Extent.String()),
		slog.String("rect", v.Rect.String()),
	)
}
