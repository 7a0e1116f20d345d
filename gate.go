package bloom

import (
	"fmt"

	"github.com/gogpu/bloom/rdg"
)

// ViewFlags classify the view requesting the effect.
type ViewFlags struct {
	ReflectionCapture bool
	SceneCapture      bool
	StandardView      bool
}

// ShowFlags are the frame-level rendering switches.
type ShowFlags struct {
	Rendering      bool
	PostProcessing bool
	Wireframe      bool
}

// WorldType classifies the world a view belongs to.
type WorldType uint8

const (
	WorldNone WorldType = iota
	WorldGame
	WorldEditor
	WorldPIE
	WorldEditorPreview
	WorldGamePreview
	WorldInactive
)

var worldNames = []string{"none", "game", "editor", "pie", "editor-preview", "game-preview", "inactive"}

func (w WorldType) String() string { return enumString(worldNames, int(w), "WorldType") }

// IsGameWorld reports whether the world runs gameplay (standalone or
// play-in-editor).
func (w WorldType) IsGameWorld() bool {
	return w == WorldGame || w == WorldPIE
}

// Subscribable reports whether views of this world may subscribe to a
// post-process pass. Previews, thumbnails and inactive worlds may not.
func (w WorldType) Subscribable() bool {
	return w == WorldGame || w == WorldEditor || w == WorldPIE
}

// View is the per-frame description of the requesting view.
type View struct {
	Flags ViewFlags
	Show  ShowFlags
	World WorldType
}

// StandardView returns a standard game view with rendering and
// post-processing enabled.
func StandardView() View {
	return View{
		Flags: ViewFlags{StandardView: true},
		Show:  ShowFlags{Rendering: true, PostProcessing: true},
		World: WorldGame,
	}
}

// Gate decides whether the effect runs for this view. It returns nil to
// proceed or the sentinel naming the first failed check. Checks run in
// order: source, view kind, show flags, selection, intensity.
func Gate(view View, source rdg.ScreenTexture, selected Selected, ok bool) error {
	if !source.IsValid() {
		return ErrInvalidSource
	}
	if !source.Viewport().Contained() {
		return fmt.Errorf("%w: rect %v outside %v", ErrInvalidSource, source.Rect, source.Texture.Extent())
	}
	if view.Flags.ReflectionCapture || view.Flags.SceneCapture || !view.Flags.StandardView {
		return ErrViewExcluded
	}
	if !view.Show.Rendering || !view.Show.PostProcessing || view.Show.Wireframe {
		return ErrShowFlags
	}
	if !ok {
		return ErrNoActiveEffect
	}
	if !(selected.Config.Intensity > 0) {
		return ErrZeroIntensity
	}
	return nil
}

// Callback is a post-process callback attached to a pass insertion point.
type Callback func(b *rdg.Builder, view View, in Inputs) rdg.ScreenTexture

// Subscriptions holds the callbacks attached to each pass insertion point
// for one frame.
type Subscriptions struct {
	byPass map[PostProcessPass][]Callback
}

// NewSubscriptions returns an empty subscription list.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{byPass: make(map[PostProcessPass][]Callback)}
}

// Add appends cb to pass.
func (s *Subscriptions) Add(pass PostProcessPass, cb Callback) {
	if s.byPass == nil {
		s.byPass = make(map[PostProcessPass][]Callback)
	}
	s.byPass[pass] = append(s.byPass[pass], cb)
}

// Len returns the number of callbacks attached to pass.
func (s *Subscriptions) Len(pass PostProcessPass) int {
	return len(s.byPass[pass])
}

// Callbacks returns the callbacks attached to pass.
func (s *Subscriptions) Callbacks(pass PostProcessPass) []Callback {
	return s.byPass[pass]
}

// Reset clears every pass for the next frame.
func (s *Subscriptions) Reset() {
	clear(s.byPass)
}
