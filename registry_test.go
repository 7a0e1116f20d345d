package bloom

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistryRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	h := r.Create(DefaultConfig())

	if !r.Register(h) {
		t.Fatal("first Register() = false, want true")
	}
	if r.Register(h) {
		t.Error("second Register() = true, want false")
	}
	if got := r.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}

	if !r.Unregister(h) {
		t.Error("Unregister() = false, want true")
	}
	if r.Unregister(h) {
		t.Error("Unregister() of absent entry = true, want false")
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if r.Unregister(Handle{}) {
		t.Error("Unregister(zero handle) = true, want false")
	}
}

func TestRegistryStaleHandle(t *testing.T) {
	r := NewRegistry()
	h := r.Create(DefaultConfig())
	r.Register(h)
	r.Destroy(h)

	if r.Registered(h) {
		t.Error("Registered() after Destroy = true")
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Destroy = %d, want 0", r.Len())
	}
	if r.Register(h) {
		t.Error("Register(stale) = true, want false")
	}
	if err := r.Update(h, func(*Config) {}); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Update(stale) = %v, want ErrStaleHandle", err)
	}
	if err := r.SetEnabled(h, false); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("SetEnabled(stale) = %v, want ErrStaleHandle", err)
	}
	r.Destroy(h)

	// The slot is reused with a new generation.
	h2 := r.Create(DefaultConfig())
	if h2.index != h.index || h2.gen == h.gen {
		t.Errorf("Create() after Destroy = %v, want slot %d with new generation", h2, h.index)
	}
	if _, ok := r.Config(h); ok {
		t.Error("Config(stale) resolved to the new occupant")
	}
}

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Select(); ok {
		t.Fatal("Select() on empty registry ok = true")
	}

	a := r.Create(DefaultConfig().WithMode(ModeKawase))
	b := r.Create(DefaultConfig().WithMode(ModeDirectionalGlare))
	r.Register(a)
	r.Register(b)

	sel, ok := r.Select()
	if !ok || sel.Handle != a || sel.Config.Mode != ModeKawase {
		t.Errorf("Select() = %v %v, want %v kawase", sel.Handle, sel.Config.Mode, a)
	}

	if err := r.SetEnabled(a, false); err != nil {
		t.Fatal(err)
	}
	sel, ok = r.Select()
	if !ok || sel.Handle != b {
		t.Errorf("Select() with first disabled = %v, want %v", sel.Handle, b)
	}

	if err := r.Update(b, func(c *Config) { c.Intensity = 7 }); err != nil {
		t.Fatal(err)
	}
	sel, _ = r.Select()
	if sel.Config.Intensity != 7 {
		t.Errorf("Select().Config.Intensity = %v, want 7", sel.Config.Intensity)
	}
	sel.Config.Intensity = 0
	if c, _ := r.Config(b); c.Intensity != 7 {
		t.Error("Selected.Config aliases the stored configuration")
	}

	r.Destroy(b)
	if _, ok := r.Select(); ok {
		t.Error("Select() with only a disabled entry ok = true")
	}
}

func TestRegistryEachSkipsRemoved(t *testing.T) {
	r := NewRegistry()
	hs := make([]Handle, 4)
	for i := range hs {
		hs[i] = r.Create(DefaultConfig())
		r.Register(hs[i])
	}

	var visited []Handle
	r.Each(func(h Handle, _ Config, _ bool) bool {
		visited = append(visited, h)
		if h == hs[0] {
			// Removing later entries mid-iteration must skip them.
			r.Unregister(hs[2])
			r.Destroy(hs[3])
		}
		return true
	})
	want := []Handle{hs[0], hs[1]}
	if len(visited) != len(want) {
		t.Fatalf("Each() visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("Each()[%d] = %v, want %v", i, visited[i], want[i])
		}
	}
}

func TestRegistryConcurrentIteration(t *testing.T) {
	r := NewRegistry()
	stable := r.Create(DefaultConfig())
	r.Register(stable)

	var writer, readers sync.WaitGroup
	stop := make(chan struct{})

	writer.Add(1)
	go func() {
		defer writer.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			h := r.Create(DefaultConfig())
			r.Register(h)
			r.Register(h)
			if i%2 == 0 {
				r.Unregister(h)
				r.Unregister(h)
			}
			r.Destroy(h)
		}
	}()

	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for range 500 {
				found := false
				r.Each(func(h Handle, _ Config, _ bool) bool {
					if h == stable {
						found = true
					}
					return true
				})
				if !found {
					t.Error("Each() lost the stable entry")
					return
				}
				if _, ok := r.Select(); !ok {
					t.Error("Select() found nothing")
					return
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	writer.Wait()

	if r.Len() != 1 || !r.Registered(stable) {
		t.Errorf("after churn Len() = %d, Registered(stable) = %v", r.Len(), r.Registered(stable))
	}
}
