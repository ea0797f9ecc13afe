package renderer

import (
	"path/filepath"
	"testing"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(*Params) {}, false},
		{"short hex", func(p *Params) { p.Colors[0] = "#fff" }, false},
		{"unknown pattern", func(p *Params) { p.Pattern = "fire" }, true},
		{"bad color", func(p *Params) { p.Colors[2] = "teal" }, true},
		{"zero density", func(p *Params) { p.Density = 0 }, true},
		{"negative zoom", func(p *Params) { p.Zoom = -1 }, true},
		{"strength above one", func(p *Params) { p.Strength = 1.5 }, true},
	}

	for _, tt := range tests {
		p := DefaultParams()
		tt.mutate(&p)
		err := p.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestParams_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	want := DefaultParams()
	want.Pattern = "metaballs"
	want.Speed = 2.5
	want.Colors[1] = "#ff8800"

	if err := SaveParams(path, want); err != nil {
		t.Fatalf("SaveParams error: %v", err)
	}
	got, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams error: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadParams_Missing(t *testing.T) {
	if _, err := LoadParams(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPatterns_Sorted(t *testing.T) {
	ps := Patterns()
	if len(ps) != 5 {
		t.Fatalf("expected 5 patterns, got %d", len(ps))
	}
	for i := 1; i < len(ps); i++ {
		if ps[i-1].Name >= ps[i].Name {
			t.Errorf("patterns not sorted: %q before %q", ps[i-1].Name, ps[i].Name)
		}
	}
}
