package bloom

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadPreset decodes a JSON preset layered over DefaultConfig: fields the
// preset omits keep their defaults. Unknown fields are rejected and the
// result is validated.
//
//	{"mode": "kawase", "intensity": 1.5, "kawase": {"mip_count": 6}}
func LoadPreset(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("bloom: decode preset: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadPresetFile reads a preset from path.
func LoadPresetFile(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the caller
	if err != nil {
		return Config{}, fmt.Errorf("bloom: open preset: %w", err)
	}
	defer f.Close()
	return LoadPreset(f)
}

// SavePreset writes cfg as indented JSON.
func SavePreset(w io.Writer, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("bloom: encode preset: %w", err)
	}
	return nil
}
