package bloom

import (
	"errors"
	"testing"
	"time"

	"github.com/chewxy/math32"
)

func TestEffectLifecycle(t *testing.T) {
	reg := NewRegistry()
	fx := NewEffect(reg, DefaultConfig())

	if !reg.Registered(fx.Handle()) {
		t.Fatal("NewEffect() did not register the effect")
	}
	if _, ok := reg.Select(); !ok {
		t.Fatal("Select() after NewEffect = false, want true")
	}

	if err := fx.Disable(); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if _, ok := reg.Select(); ok {
		t.Error("Select() after Disable = true, want false")
	}
	if err := fx.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if sel, ok := reg.Select(); !ok || sel.Handle != fx.Handle() {
		t.Errorf("Select() after Enable = %v, %v", sel.Handle, ok)
	}

	if err := fx.SetMode(ModeSoftFocus); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	cfg, _ := fx.Config()
	if cfg.Mode != ModeSoftFocus || cfg.Blend != BlendOverlay {
		t.Errorf("after SetMode(soft-focus): mode=%v blend=%v, want soft-focus/overlay", cfg.Mode, cfg.Blend)
	}

	if err := fx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := fx.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, ok := fx.Config(); ok {
		t.Error("Config() after Close reports ok")
	}
	if err := fx.Enable(); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Enable() after Close = %v, want ErrStaleHandle", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry Len() after Close = %d, want 0", reg.Len())
	}
}

func TestEffectTick(t *testing.T) {
	tests := []struct {
		name     string
		auto     bool
		interval float32
		ticks    []time.Duration
		want     []bool
	}{
		{
			name:     "disabled",
			auto:     false,
			interval: 1,
			ticks:    []time.Duration{2 * time.Second, 2 * time.Second},
			want:     []bool{false, false},
		},
		{
			name:     "one second",
			auto:     true,
			interval: 1,
			ticks:    []time.Duration{600 * time.Millisecond, 400 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond},
			want:     []bool{false, true, false, true},
		},
		{
			name:     "clamped low",
			auto:     true,
			interval: 0.01,
			ticks:    []time.Duration{50 * time.Millisecond, 60 * time.Millisecond},
			want:     []bool{false, true},
		},
		{
			name:     "clamped high",
			auto:     true,
			interval: 60,
			ticks:    []time.Duration{9 * time.Second, 2 * time.Second},
			want:     []bool{false, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Debug.AutoReinitialize = tt.auto
			cfg.Debug.ReinitializeInterval = tt.interval

			reg := NewRegistry()
			fx := NewEffect(reg, cfg)
			defer fx.Close()

			for i, dt := range tt.ticks {
				if got := fx.Tick(dt); got != tt.want[i] {
					t.Errorf("Tick #%d(%v) = %v, want %v", i, dt, got, tt.want[i])
				}
				if !reg.Registered(fx.Handle()) {
					t.Errorf("effect not registered after Tick #%d", i)
				}
			}
		})
	}
}

func TestEffectTickResetsWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug.AutoReinitialize = true
	cfg.Debug.ReinitializeInterval = 1

	fx := NewEffect(NewRegistry(), cfg)
	defer fx.Close()

	fx.Tick(900 * time.Millisecond)
	if err := fx.Update(func(c *Config) { c.Debug.AutoReinitialize = false }); err != nil {
		t.Fatal(err)
	}
	fx.Tick(time.Millisecond)
	if err := fx.Update(func(c *Config) { c.Debug.AutoReinitialize = true }); err != nil {
		t.Fatal(err)
	}
	if fx.Tick(200 * time.Millisecond) {
		t.Error("Tick() fired with a timer that should have been reset")
	}
}

func TestEffectTickAfterClose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug.AutoReinitialize = true
	fx := NewEffect(NewRegistry(), cfg)
	fx.Close()
	if fx.Tick(time.Hour) {
		t.Error("Tick() after Close = true")
	}
}

func TestMathClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float32
	}{
		{5, 0, 1, 1},
		{-5, 0, 1, 0},
		{0.5, 0, 1, 0.5},
		{math32.NaN(), 0.1, 10, 0.1},
	}
	for _, tt := range tests {
		if got := mathClamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("mathClamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
