package bloom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Mode", c.Mode, ModeStandard},
		{"Intensity", c.Intensity, float32(2)},
		{"Threshold", c.Threshold, float32(0.8)},
		{"Size", c.Size, float32(4)},
		{"UseSceneColor", c.UseSceneColor, true},
		{"Tint", c.Tint, gputypes.ColorWhite},
		{"Blend", c.Blend, BlendScreen},
		{"BlurPasses", c.BlurPasses, 1},
		{"BlurSamples", c.BlurSamples, 5},
		{"Glare.Count", c.Glare.Count, 6},
		{"Glare.Length", c.Glare.Length, float32(40)},
		{"Kawase.MipCount", c.Kawase.MipCount, 5},
		{"Kawase.FilterRadius", c.Kawase.FilterRadius, float32(0.002)},
		{"SoftFocus.BlendStrength", c.SoftFocus.BlendStrength, float32(0.33)},
		{"Pass", c.Pass, PassTonemap},
		{"GameModeScale", c.GameModeScale, float32(1)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative intensity", func(c *Config) { c.Intensity = -1 }, "intensity"},
		{"saturation", func(c *Config) { c.Saturation = 3.5 }, "saturation"},
		{"downsample", func(c *Config) { c.DownsampleScale = 0.1 }, "downsample_scale"},
		{"blur passes", func(c *Config) { c.BlurPasses = 5 }, "blur_passes"},
		{"glare count", func(c *Config) { c.Glare.Count = 1 }, "glare.count"},
		{"kawase mips", func(c *Config) { c.Kawase.MipCount = 9 }, "kawase.mip_count"},
		{"kawase radius", func(c *Config) { c.Kawase.FilterRadius = 0.5 }, "kawase.filter_radius"},
		{"unknown mode", func(c *Config) { c.Mode = Mode(9) }, "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Errorf("Validate() field = %v, want %s", fe, tt.field)
			}
		})
	}
}

func TestWithMode(t *testing.T) {
	c := DefaultConfig().WithMode(ModeSoftFocus)
	if c.Blend != BlendOverlay {
		t.Errorf("WithMode(SoftFocus).Blend = %v, want overlay", c.Blend)
	}
	c.Blend = BlendLighten
	if got := c.WithMode(ModeSoftFocus).Blend; got != BlendLighten {
		t.Errorf("re-entering SoftFocus changed blend to %v", got)
	}
	if got := DefaultConfig().WithMode(ModeKawase).Blend; got != BlendScreen {
		t.Errorf("WithMode(Kawase).Blend = %v, want screen", got)
	}
}

func TestEnumText(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"standard", ModeStandard, true},
		{"directional-glare", ModeDirectionalGlare, true},
		{"DirectionalGlare", ModeDirectionalGlare, true},
		{"Kawase", ModeKawase, true},
		{"soft-focus", ModeSoftFocus, true},
		{"bokeh", 0, false},
	}
	for _, tt := range tests {
		var m Mode
		err := m.UnmarshalText([]byte(tt.in))
		if (err == nil) != tt.ok {
			t.Errorf("UnmarshalText(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && m != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, m, tt.want)
		}
	}
	if _, err := Mode(7).MarshalText(); err == nil {
		t.Error("Mode(7).MarshalText() error = nil")
	}
	var b BlendMode
	if err := b.UnmarshalText([]byte("soft-light")); err != nil || b != BlendSoftLight {
		t.Errorf("BlendMode.UnmarshalText(soft-light) = %v, %v", b, err)
	}
	var p PostProcessPass
	if err := p.UnmarshalText([]byte("motion-blur")); err != nil || p != PassMotionBlur {
		t.Errorf("PostProcessPass.UnmarshalText(motion-blur) = %v, %v", p, err)
	}
}

func TestLoadPreset(t *testing.T) {
	src := `{"mode": "kawase", "intensity": 1.5, "tint": {"R": 1, "G": 0.5, "B": 0.25, "A": 1}, "kawase": {"mip_count": 6, "filter_radius": 0.003, "soft_threshold": false, "knee": 0.2}}`
	c, err := LoadPreset(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadPreset() error = %v", err)
	}
	if c.Mode != ModeKawase || c.Intensity != 1.5 || c.Kawase.MipCount != 6 || c.Kawase.SoftThreshold {
		t.Errorf("LoadPreset() = %+v", c)
	}
	if c.Threshold != 0.8 || c.Glare.Count != 6 {
		t.Errorf("LoadPreset() lost defaults: threshold=%v glare=%+v", c.Threshold, c.Glare)
	}
	if c.Tint.G != 0.5 {
		t.Errorf("LoadPreset().Tint = %+v", c.Tint)
	}

	bad := []string{
		`{"mode": "bokeh"}`,
		`{"unknown_field": 1}`,
		`{"blur_passes": 9}`,
		`not json`,
	}
	for _, s := range bad {
		if _, err := LoadPreset(strings.NewReader(s)); err == nil {
			t.Errorf("LoadPreset(%q) error = nil", s)
		}
	}
}

func TestSavePresetRoundTrip(t *testing.T) {
	c := DefaultConfig().WithMode(ModeDirectionalGlare)
	c.Glare.Count = 8

	var buf bytes.Buffer
	if err := SavePreset(&buf, c); err != nil {
		t.Fatalf("SavePreset() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"directional-glare"`) {
		t.Errorf("SavePreset() output lacks textual mode: %s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "glare.json")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadPresetFile(path)
	if err != nil {
		t.Fatalf("LoadPresetFile() error = %v", err)
	}
	if got != c {
		t.Errorf("LoadPresetFile() = %+v, want %+v", got, c)
	}
	if _, err := LoadPresetFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadPresetFile(missing) error = nil")
	}
}
