package bloom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// Mode selects the blur/spread algorithm.
type Mode uint8

const (
	// ModeStandard is separable Gaussian blur.
	ModeStandard Mode = iota
	// ModeDirectionalGlare spreads light along angular streaks.
	ModeDirectionalGlare
	// ModeKawase builds a down/up mip pyramid.
	ModeKawase
	// ModeSoftFocus blurs nearly the whole frame and blends it softly.
	ModeSoftFocus
)

var modeNames = []string{"standard", "directional-glare", "kawase", "soft-focus"}

func (m Mode) String() string { return enumString(modeNames, int(m), "Mode") }

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return enumMarshal(modeNames, int(m), "mode") }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	i, err := enumParse(modeNames, b, "mode")
	*m = Mode(i)
	return err
}

// BlendMode selects the formula combining bloom and scene color. The order
// matches the Composite program's blend index.
type BlendMode uint8

const (
	BlendScreen BlendMode = iota
	BlendOverlay
	BlendSoftLight
	BlendHardLight
	BlendLighten
	BlendMultiply
)

var blendNames = []string{"screen", "overlay", "soft-light", "hard-light", "lighten", "multiply"}

func (b BlendMode) String() string { return enumString(blendNames, int(b), "BlendMode") }

// MarshalText implements encoding.TextMarshaler.
func (b BlendMode) MarshalText() ([]byte, error) { return enumMarshal(blendNames, int(b), "blend mode") }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BlendMode) UnmarshalText(text []byte) error {
	i, err := enumParse(blendNames, text, "blend mode")
	*b = BlendMode(i)
	return err
}

// PostProcessPass is the renderer insertion point the effect subscribes to.
type PostProcessPass uint8

const (
	PassTonemap PostProcessPass = iota
	PassMotionBlur
	PassFXAA
	PassVisualizeDOF
)

var passNames = []string{"tonemap", "motion-blur", "fxaa", "visualize-dof"}

func (p PostProcessPass) String() string { return enumString(passNames, int(p), "PostProcessPass") }

// MarshalText implements encoding.TextMarshaler.
func (p PostProcessPass) MarshalText() ([]byte, error) {
	return enumMarshal(passNames, int(p), "post-process pass")
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PostProcessPass) UnmarshalText(b []byte) error {
	i, err := enumParse(passNames, b, "post-process pass")
	*p = PostProcessPass(i)
	return err
}

func enumString(names []string, i int, typ string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", typ, i)
}

func enumMarshal(names []string, i int, what string) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("bloom: invalid %s %d", what, i)
	}
	return []byte(names[i]), nil
}

func enumParse(names []string, b []byte, what string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range names {
		if s == n || s == strings.ReplaceAll(n, "-", "") {
			return i, nil
		}
	}
	return 0, fmt.Errorf("bloom: unknown %s %q", what, b)
}

// GlareSettings configure ModeDirectionalGlare.
type GlareSettings struct {
	Count    int     `json:"count"`
	Length   float32 `json:"length"`
	Rotation float32 `json:"rotation"` // degrees
	Falloff  float32 `json:"falloff"`
}

// KawaseSettings configure ModeKawase.
type KawaseSettings struct {
	MipCount      int     `json:"mip_count"`
	FilterRadius  float32 `json:"filter_radius"`
	SoftThreshold bool    `json:"soft_threshold"`
	Knee          float32 `json:"knee"`
}

// SoftFocusSettings tune the soft focus blend in the Composite program.
type SoftFocusSettings struct {
	OverlayMultiplier   float32 `json:"overlay_multiplier"`
	BlendStrength       float32 `json:"blend_strength"`
	SoftLightMultiplier float32 `json:"soft_light_multiplier"`
	FinalBlend          float32 `json:"final_blend"`
}

// DebugSettings are diagnostic switches.
type DebugSettings struct {
	Logging               bool `json:"logging"`
	ShowBloomOnly         bool `json:"show_bloom_only"`
	ShowGammaCompensation bool `json:"show_gamma_compensation"`
	AutoReinitialize      bool `json:"auto_reinitialize"`
	// ReinitializeInterval is in seconds.
	ReinitializeInterval float32 `json:"reinitialize_interval"`
}

// Config is the full set of tunable parameters of one bloom instance.
//
// Only the settings of the selected Mode are consulted; the rest are kept
// as authored. Out-of-range values are clamped when the graph is built,
// Validate reports them for authoring tools.
type Config struct {
	Mode                Mode           `json:"mode"`
	Intensity           float32        `json:"intensity"`
	Threshold           float32        `json:"threshold"`
	Size                float32        `json:"size"`
	UseSceneColor       bool           `json:"use_scene_color"`
	Tint                gputypes.Color `json:"tint"`
	Blend               BlendMode      `json:"blend"`
	Saturation          float32        `json:"saturation"`
	ProtectHighlights   bool           `json:"protect_highlights"`
	HighlightProtection float32        `json:"highlight_protection"`

	DownsampleScale       float32 `json:"downsample_scale"`
	BlurPasses            int     `json:"blur_passes"`
	BlurSamples           int     `json:"blur_samples"`
	HighQualityUpsampling bool    `json:"high_quality_upsampling"`

	Glare     GlareSettings     `json:"glare"`
	Kawase    KawaseSettings    `json:"kawase"`
	SoftFocus SoftFocusSettings `json:"soft_focus"`

	Pass            PostProcessPass `json:"pass"`
	AdaptiveScaling bool            `json:"adaptive_scaling"`
	GameModeScale   float32         `json:"game_mode_scale"`

	Debug DebugSettings `json:"debug"`
}

// DefaultConfig returns the authoring defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeStandard,
		Intensity:           2.0,
		Threshold:           0.8,
		Size:                4.0,
		UseSceneColor:       true,
		Tint:                gputypes.ColorWhite,
		Blend:               BlendScreen,
		Saturation:          1.0,
		HighlightProtection: 0.5,

		DownsampleScale: 1.0,
		BlurPasses:      1,
		BlurSamples:     5,

		Glare:  GlareSettings{Count: 6, Length: 40, Rotation: 0, Falloff: 3},
		Kawase: KawaseSettings{MipCount: 5, FilterRadius: 0.002, SoftThreshold: true, Knee: 0.5},
		SoftFocus: SoftFocusSettings{
			OverlayMultiplier:   0.5,
			BlendStrength:       0.33,
			SoftLightMultiplier: 0.4,
			FinalBlend:          0.25,
		},

		Pass:          PassTonemap,
		GameModeScale: 1.0,

		Debug: DebugSettings{ReinitializeInterval: 1.0},
	}
}

// WithMode returns c switched to mode m. Entering ModeSoftFocus also selects
// BlendOverlay, which the soft focus look is tuned for.
func (c Config) WithMode(m Mode) Config {
	if m == ModeSoftFocus && c.Mode != ModeSoftFocus {
		c.Blend = BlendOverlay
	}
	c.Mode = m
	return c
}

// Validate reports every field outside its authoring range. The returned
// error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	checkF := func(field string, v, lo, hi float32) {
		if v < lo || v > hi || math32.IsNaN(v) {
			errs = append(errs, &FieldError{Field: field, Value: v, Range: fmt.Sprintf("[%g, %g]", lo, hi)})
		}
	}
	checkMin := func(field string, v, lo float32) {
		if v < lo || math32.IsNaN(v) {
			errs = append(errs, &FieldError{Field: field, Value: v, Range: fmt.Sprintf(">= %g", lo)})
		}
	}
	checkI := func(field string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, &FieldError{Field: field, Value: v, Range: fmt.Sprintf("[%d, %d]", lo, hi)})
		}
	}

	if int(c.Mode) >= len(modeNames) {
		errs = append(errs, &FieldError{Field: "mode", Value: c.Mode, Range: "a known mode"})
	}
	if int(c.Blend) >= len(blendNames) {
		errs = append(errs, &FieldError{Field: "blend", Value: c.Blend, Range: "a known blend mode"})
	}
	if int(c.Pass) >= len(passNames) {
		errs = append(errs, &FieldError{Field: "pass", Value: c.Pass, Range: "a known pass"})
	}
	checkMin("intensity", c.Intensity, 0)
	checkMin("threshold", c.Threshold, 0)
	checkMin("size", c.Size, 0)
	checkF("saturation", c.Saturation, 0, 3)
	checkF("highlight_protection", c.HighlightProtection, 0, 1)
	checkF("downsample_scale", c.DownsampleScale, 0.25, 2)
	checkI("blur_passes", c.BlurPasses, 1, 4)
	checkI("blur_samples", c.BlurSamples, 5, 13)
	checkI("glare.count", c.Glare.Count, 2, 16)
	checkF("glare.length", c.Glare.Length, 5, 200)
	checkF("glare.rotation", c.Glare.Rotation, 0, 180)
	checkF("glare.falloff", c.Glare.Falloff, 0.5, 10)
	checkI("kawase.mip_count", c.Kawase.MipCount, 3, 8)
	checkF("kawase.filter_radius", c.Kawase.FilterRadius, 0.0001, 0.01)
	checkF("kawase.knee", c.Kawase.Knee, 0, 1)
	checkF("game_mode_scale", c.GameModeScale, 0.1, 2)
	checkF("debug.reinitialize_interval", c.Debug.ReinitializeInterval, 0.1, 10)

	return errors.Join(errs...)
}
