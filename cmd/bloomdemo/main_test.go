package main

import (
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/bloom/shader"
)

// countingLibraries registers "fast" and "slow" and counts constructions.
func countingLibraries(built map[string]int) *gpucontext.Registry[shader.Library] {
	r := gpucontext.NewRegistry[shader.Library](gpucontext.WithPriority("fast", "slow"))
	for _, name := range []string{"fast", "slow"} {
		r.Register(name, func() shader.Library {
			built[name]++
			return shader.Builtin()
		})
	}
	return r
}

func TestPickLibrary(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		wantName  string
		wantBuilt map[string]int
		wantErr   bool
	}{
		{"default", "", "fast", map[string]int{"fast": 1}, false},
		{"named", "slow", "slow", map[string]int{"slow": 1}, false},
		{"unknown", "metal", "", map[string]int{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built := make(map[string]int)
			lib, name, err := pickLibrary(countingLibraries(built), tt.flag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pickLibrary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName {
				t.Errorf("pickLibrary() name = %q, want %q", name, tt.wantName)
			}
			if !tt.wantErr && lib == nil {
				t.Error("pickLibrary() returned a nil library")
			}
			if len(built) != len(tt.wantBuilt) {
				t.Errorf("constructed %v, want %v", built, tt.wantBuilt)
			}
			for k, v := range tt.wantBuilt {
				if built[k] != v {
					t.Errorf("constructed %s %d times, want %d", k, built[k], v)
				}
			}
		})
	}
}
