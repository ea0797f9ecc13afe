package renderer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/gg"
)

// Params is a snapshot of everything a pattern reads on each pass.
type Params struct {
	Pattern    string    `json:"pattern"`
	Colors     [3]string `json:"colors"`
	Speed      float64   `json:"speed"`
	Density    float64   `json:"density"`
	Strength   float64   `json:"strength"`
	Zoom       float64   `json:"zoom"`
	Rotation   float64   `json:"rotation"` // degrees
	TimeOffset float64   `json:"time_offset"`
}

// DefaultParams returns the studio's starting look.
func DefaultParams() Params {
	return Params{
		Pattern:    "aurora",
		Colors:     [3]string{"#0f172a", "#7c3aed", "#22d3ee"},
		Speed:      1,
		Density:    1,
		Strength:   0.8,
		Zoom:       1,
		Rotation:   0,
		TimeOffset: 0,
	}
}

// Validate rejects params no pattern can draw.
func (p Params) Validate() error {
	if _, ok := Lookup(p.Pattern); !ok {
		return fmt.Errorf("unknown pattern %q", p.Pattern)
	}
	for i, c := range p.Colors {
		if !validHex(c) {
			return fmt.Errorf("color %d: %q is not a hex color", i+1, c)
		}
	}
	if p.Density <= 0 {
		return fmt.Errorf("density must be positive, got %v", p.Density)
	}
	if p.Zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %v", p.Zoom)
	}
	if p.Strength < 0 || p.Strength > 1 {
		return fmt.Errorf("strength %v outside 0..1", p.Strength)
	}
	return nil
}

// Palette resolves the three hex colors.
func (p Params) Palette() [3]gg.RGBA {
	return [3]gg.RGBA{gg.Hex(p.Colors[0]), gg.Hex(p.Colors[1]), gg.Hex(p.Colors[2])}
}

// LoadParams reads a JSON params file. Missing fields keep their defaults.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("reading params: %w", err)
	}
	p := DefaultParams()
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parsing params %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("params %s: %w", path, err)
	}
	return p, nil
}

// SaveParams writes p as indented JSON.
func SaveParams(path string, p Params) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing params: %w", err)
	}
	return nil
}

func validHex(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
