package bloom

import (
	"errors"
	"image"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/rdg"
)

func sceneTexture(b *rdg.Builder, w, h int) rdg.ScreenTexture {
	t := b.RegisterExternal("SceneColor", rdg.NewTextureDesc2D(image.Pt(w, h), gputypes.TextureFormatRGBA16Float))
	return rdg.FullScreenTexture(t)
}

func selectedWith(intensity float32) Selected {
	cfg := DefaultConfig()
	cfg.Intensity = intensity
	return Selected{Config: cfg}
}

// TestGateMatrix walks every combination of view and show flags at zero and
// positive intensity.
func TestGateMatrix(t *testing.T) {
	source := sceneTexture(rdg.NewBuilder(), 64, 32)

	for bits := range 1 << 6 {
		view := View{
			Flags: ViewFlags{
				ReflectionCapture: bits&1 != 0,
				SceneCapture:      bits&2 != 0,
				StandardView:      bits&4 != 0,
			},
			Show: ShowFlags{
				Rendering:      bits&8 != 0,
				PostProcessing: bits&16 != 0,
				Wireframe:      bits&32 != 0,
			},
			World: WorldGame,
		}
		viewOK := !view.Flags.ReflectionCapture && !view.Flags.SceneCapture && view.Flags.StandardView
		showOK := view.Show.Rendering && view.Show.PostProcessing && !view.Show.Wireframe

		for _, intensity := range []float32{0, 1} {
			err := Gate(view, source, selectedWith(intensity), true)

			var want error
			switch {
			case !viewOK:
				want = ErrViewExcluded
			case !showOK:
				want = ErrShowFlags
			case intensity <= 0:
				want = ErrZeroIntensity
			}
			if want == nil {
				if err != nil {
					t.Errorf("Gate(%+v, intensity=%v) = %v, want nil", view, intensity, err)
				}
				continue
			}
			if !errors.Is(err, want) {
				t.Errorf("Gate(%+v, intensity=%v) = %v, want %v", view, intensity, err, want)
			}
		}
	}
}

func TestGateSource(t *testing.T) {
	b := rdg.NewBuilder()
	full := sceneTexture(b, 64, 32)

	tests := []struct {
		name   string
		source rdg.ScreenTexture
		want   error
	}{
		{"valid", full, nil},
		{"inner rect", rdg.ScreenTexture{Texture: full.Texture, Rect: image.Rect(8, 4, 40, 28)}, nil},
		{"nil texture", rdg.ScreenTexture{Rect: image.Rect(0, 0, 8, 8)}, ErrInvalidSource},
		{"empty rect", rdg.ScreenTexture{Texture: full.Texture, Rect: image.Rect(4, 4, 4, 10)}, ErrInvalidSource},
		{"rect outside", rdg.ScreenTexture{Texture: full.Texture, Rect: image.Rect(32, 0, 96, 32)}, ErrInvalidSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Gate(StandardView(), tt.source, selectedWith(1), true)
			if tt.want == nil && err != nil {
				t.Errorf("Gate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Gate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGateNoSelection(t *testing.T) {
	source := sceneTexture(rdg.NewBuilder(), 16, 16)
	if err := Gate(StandardView(), source, Selected{}, false); !errors.Is(err, ErrNoActiveEffect) {
		t.Errorf("Gate() without selection = %v, want ErrNoActiveEffect", err)
	}
}

func TestGateNaNIntensity(t *testing.T) {
	source := sceneTexture(rdg.NewBuilder(), 16, 16)
	cfg := DefaultConfig()
	cfg.Intensity = math32.NaN()
	if err := Gate(StandardView(), source, Selected{Config: cfg}, true); !errors.Is(err, ErrZeroIntensity) {
		t.Errorf("Gate() with NaN intensity = %v, want ErrZeroIntensity", err)
	}
}

func TestWorldType(t *testing.T) {
	tests := []struct {
		world        WorldType
		game         bool
		subscribable bool
	}{
		{WorldNone, false, false},
		{WorldGame, true, true},
		{WorldEditor, false, true},
		{WorldPIE, true, true},
		{WorldEditorPreview, false, false},
		{WorldGamePreview, false, false},
		{WorldInactive, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.world.String(), func(t *testing.T) {
			if got := tt.world.IsGameWorld(); got != tt.game {
				t.Errorf("IsGameWorld() = %v, want %v", got, tt.game)
			}
			if got := tt.world.Subscribable(); got != tt.subscribable {
				t.Errorf("Subscribable() = %v, want %v", got, tt.subscribable)
			}
		})
	}
}

func TestSubscriptions(t *testing.T) {
	s := NewSubscriptions()
	cb := func(_ *rdg.Builder, _ View, in Inputs) rdg.ScreenTexture { return in.SceneColor }

	s.Add(PassTonemap, cb)
	s.Add(PassTonemap, cb)
	s.Add(PassFXAA, cb)
	if got := s.Len(PassTonemap); got != 2 {
		t.Errorf("Len(tonemap) = %d, want 2", got)
	}
	if got := len(s.Callbacks(PassFXAA)); got != 1 {
		t.Errorf("len(Callbacks(fxaa)) = %d, want 1", got)
	}
	s.Reset()
	if got := s.Len(PassTonemap); got != 0 {
		t.Errorf("Len(tonemap) after Reset = %d, want 0", got)
	}

	var zero Subscriptions
	zero.Add(PassMotionBlur, cb)
	if got := zero.Len(PassMotionBlur); got != 1 {
		t.Errorf("zero value Len() = %d, want 1", got)
	}
}
