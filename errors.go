package bloom

import (
	"errors"
	"fmt"

	"github.com/gogpu/bloom/shader"
)

// Sentinel errors. Every one of them is recoverable: the frame renders
// without the effect and the same condition is evaluated again next frame.
var (
	// ErrProgramUnavailable is matched by every ProgramError.
	ErrProgramUnavailable = errors.New("bloom: pixel program unavailable")

	// ErrInvalidSource is returned when the source color buffer is missing
	// or its valid rectangle is degenerate.
	ErrInvalidSource = errors.New("bloom: invalid source buffer")

	// ErrViewExcluded is returned for reflection captures, scene captures
	// and other non-standard views.
	ErrViewExcluded = errors.New("bloom: view excluded")

	// ErrShowFlags is returned when rendering or post-processing is off, or
	// wireframe is on.
	ErrShowFlags = errors.New("bloom: show flags exclude post-processing")

	// ErrNoActiveEffect is returned when no registered configuration is
	// enabled.
	ErrNoActiveEffect = errors.New("bloom: no active effect")

	// ErrZeroIntensity is returned when the active intensity is <= 0.
	ErrZeroIntensity = errors.New("bloom: intensity is not positive")

	// ErrStaleHandle is returned when a handle's slot has been destroyed.
	ErrStaleHandle = errors.New("bloom: stale effect handle")

	// ErrInvalidConfig is wrapped by every Config.Validate failure.
	ErrInvalidConfig = errors.New("bloom: invalid configuration")

	// errFallback asks the strategy dispatcher to build the standard blur.
	errFallback = errors.New("bloom: fall back to standard blur")
)

// ProgramError reports a pixel program that cannot be used this frame.
type ProgramError struct {
	Program shader.ProgramID
	Stage   string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("bloom: %s: program %s unavailable", e.Stage, e.Program)
}

// Is reports whether target is ErrProgramUnavailable.
func (e *ProgramError) Is(target error) bool {
	return target == ErrProgramUnavailable
}

// FieldError reports one out-of-range configuration field.
type FieldError struct {
	Field string
	Value any
	Range string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("bloom: %s = %v, want %s", e.Field, e.Value, e.Range)
}

// Unwrap returns ErrInvalidConfig.
func (e *FieldError) Unwrap() error {
	return ErrInvalidConfig
}
