package bloom

import (
	"fmt"
	"sync"
)

// Handle refers to a configuration slot in a Registry. A handle becomes
// stale when its slot is destroyed; reusing the slot bumps the generation
// so old handles never resolve to the new occupant.
//
// The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("Handle(%d@%d)", h.index, h.gen)
}

type slot struct {
	cfg        Config
	gen        uint32
	alive      bool
	enabled    bool
	registered bool
}

// Selected is the configuration chosen for one frame. It is a copy and has
// no identity beyond the frame it was selected for.
type Selected struct {
	Handle Handle
	Config Config
}

// Registry is the set of effect configurations of one rendering context.
//
// Owners create and destroy slots; the host registers and unregisters
// them. Membership may change from any goroutine while the render side
// iterates: Each and Select work on a snapshot and skip entries that went
// stale in the meantime.
type Registry struct {
	mu      sync.RWMutex
	slots   []slot
	free    []uint32
	members []Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create stores cfg in a new slot. The slot starts enabled and unregistered.
func (r *Registry) Create(cfg Config) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots)) //nolint:gosec // slot count stays far below 2^32
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.cfg = cfg
	s.alive = true
	s.enabled = true
	s.registered = false
	return Handle{index: idx, gen: s.gen}
}

// Destroy unregisters h and frees its slot. Destroying a stale handle is a
// no-op.
func (r *Registry) Destroy(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil {
		return
	}
	if s.registered {
		r.removeMember(h)
	}
	*s = slot{gen: s.gen}
	r.free = append(r.free, h.index)
}

// Update applies fn to the stored configuration of h.
func (r *Registry) Update(h Handle, fn func(*Config)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil {
		return fmt.Errorf("update %v: %w", h, ErrStaleHandle)
	}
	fn(&s.cfg)
	return nil
}

// SetEnabled marks h as enabled or disabled. Disabled entries stay
// registered but are never selected.
func (r *Registry) SetEnabled(h Handle, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil {
		return fmt.Errorf("set enabled %v: %w", h, ErrStaleHandle)
	}
	s.enabled = enabled
	return nil
}

// Config returns a copy of the configuration stored for h.
func (r *Registry) Config(h Handle) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.lookup(h)
	if s == nil {
		return Config{}, false
	}
	return s.cfg, true
}

// Register adds h to the active set. It reports false when h is stale or
// already registered.
func (r *Registry) Register(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil || s.registered {
		return false
	}
	s.registered = true
	r.members = append(r.members, h)
	return true
}

// Unregister removes h from the active set. It reports false when h was
// not registered.
func (r *Registry) Unregister(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil || !s.registered {
		return false
	}
	s.registered = false
	r.removeMember(h)
	return true
}

// Registered reports whether h is live and in the active set.
func (r *Registry) Registered(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.lookup(h)
	return s != nil && s.registered
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Each calls fn for every registered entry in registration order until fn
// returns false. Entries destroyed or unregistered after the snapshot was
// taken are skipped. fn may modify the registry.
func (r *Registry) Each(fn func(h Handle, cfg Config, enabled bool) bool) {
	r.mu.RLock()
	snapshot := make([]Handle, len(r.members))
	copy(snapshot, r.members)
	r.mu.RUnlock()

	for _, h := range snapshot {
		r.mu.RLock()
		s := r.lookup(h)
		var (
			cfg     Config
			enabled bool
			ok      = s != nil && s.registered
		)
		if ok {
			cfg, enabled = s.cfg, s.enabled
		}
		r.mu.RUnlock()

		if !ok {
			continue
		}
		if !fn(h, cfg, enabled) {
			return
		}
	}
}

// Select returns the first registered, enabled entry.
func (r *Registry) Select() (Selected, bool) {
	var (
		sel   Selected
		found bool
	)
	r.Each(func(h Handle, cfg Config, enabled bool) bool {
		if !enabled {
			return true
		}
		sel = Selected{Handle: h, Config: cfg}
		found = true
		return false
	})
	return sel, found
}

// lookup returns the live slot for h, or nil. Callers hold r.mu.
func (r *Registry) lookup(h Handle) *slot {
	if h.gen == 0 || int(h.index) >= len(r.slots) {
		return nil
	}
	s := &r.slots[h.index]
	if !s.alive || s.gen != h.gen {
		return nil
	}
	return s
}

// removeMember deletes h from the membership list. Callers hold r.mu.
func (r *Registry) removeMember(h Handle) {
	for i, m := range r.members {
		if m == h {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}
