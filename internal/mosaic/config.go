package mosaic

import (
	"fmt"
	"strings"

	"covermosaic/pkg/tile"
)

// ReusePolicy governs how often a single tile may appear in the mosaic.
type ReusePolicy int

const (
	// ReuseUnlimited places the best match with no repetition limit.
	ReuseUnlimited ReusePolicy = iota
	// ReuseNone places every tile at most once.
	ReuseNone
	// ReuseMax places every tile at most Config.MaxReuse times.
	ReuseMax
)

// BackgroundMode selects how the background color is obtained.
type BackgroundMode int

const (
	BackgroundNone BackgroundMode = iota
	BackgroundFixed
	BackgroundAuto
)

// TintMode selects per-tile tinting behavior.
type TintMode int

const (
	TintNone TintMode = iota
	// TintUniform washes every tile with Config.TintColor.
	TintUniform
	// TintRegion picks the wash per cell by classifying the target's
	// color against Config.Palette.
	TintRegion
)

// BlendMode is a per-pixel compositing formula, used both for tile tints
// and for the final target overlay.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendSoftLight
	BlendColor
)

// ParseBlendMode parses a blend mode name.
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return BlendNormal, nil
	case "multiply":
		return BlendMultiply, nil
	case "screen":
		return BlendScreen, nil
	case "overlay":
		return BlendOverlay, nil
	case "soft_light", "soft-light":
		return BlendSoftLight, nil
	case "color":
		return BlendColor, nil
	}
	return 0, fmt.Errorf("unknown blend mode %q", s)
}

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	case BlendOverlay:
		return "overlay"
	case BlendSoftLight:
		return "soft_light"
	case BlendColor:
		return "color"
	}
	return "unknown"
}

// PaletteEntry names a region color. Cells whose mean color is nearest to
// Match (within the region tolerance) receive Tint; a nil Tint means the
// region is recognized but left untinted, which is how white areas are
// normally handled.
type PaletteEntry struct {
	Name  string
	Match tile.Color
	Tint  *tile.Color
}

// DefaultPalette returns the built-in region palette.
func DefaultPalette() []PaletteEntry {
	pink := tile.Color{R: 244, G: 114, B: 182}
	black := tile.Color{}
	yellow := tile.Color{R: 255, G: 255}
	return []PaletteEntry{
		{Name: "pink", Match: pink, Tint: &pink},
		{Name: "black", Match: black, Tint: &black},
		{Name: "yellow", Match: yellow, Tint: &yellow},
		{Name: "white", Match: tile.Color{R: 255, G: 255, B: 255}, Tint: nil},
	}
}

// ParsePalette parses entries of the form "name=MATCH" or
// "name=MATCH:TINT". A tint of "none" (or an omitted tint) leaves matching
// cells untinted. Color specs follow tile.ParseColor.
func ParsePalette(specs []string) ([]PaletteEntry, error) {
	var entries []PaletteEntry
	for _, spec := range specs {
		name, rest, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid palette entry %q: want name=MATCH[:TINT]", spec)
		}
		matchSpec, tintSpec, hasTint := strings.Cut(rest, ":")
		match, err := tile.ParseColor(matchSpec)
		if err != nil {
			return nil, fmt.Errorf("palette entry %q: %w", spec, err)
		}
		entry := PaletteEntry{Name: name, Match: match}
		if hasTint && !strings.EqualFold(tintSpec, "none") {
			t, err := tile.ParseColor(tintSpec)
			if err != nil {
				return nil, fmt.Errorf("palette entry %q: %w", spec, err)
			}
			entry.Tint = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Config holds every knob for a single mosaic run. It is built once and
// never mutated by the pipeline.
type Config struct {
	CellSize int
	Enlarge  int

	Reuse       ReusePolicy
	MaxReuse    int
	MinDistance int

	Background          BackgroundMode
	BackgroundColor     tile.Color
	BackgroundThreshold float64

	ColorMatch      bool
	DiversityWeight float64
	Seed            int64

	Tint      TintMode
	TintColor tile.Color
	TintAlpha float64
	TintBlend BlendMode
	Palette   []PaletteEntry

	// Overlay blends the enlarged target over the finished mosaic.
	Overlay      float64
	OverlayBlend BlendMode

	Recursive bool
}

// Validate reports the first fatal configuration error, before any
// processing starts.
func (c *Config) Validate() error {
	switch {
	case c.CellSize <= 0:
		return fmt.Errorf("cell size must be positive, got %d", c.CellSize)
	case c.Enlarge < 1:
		return fmt.Errorf("enlarge factor must be at least 1, got %d", c.Enlarge)
	case c.Reuse == ReuseMax && c.MaxReuse < 1:
		return fmt.Errorf("max reuse must be at least 1, got %d", c.MaxReuse)
	case c.MinDistance < 0:
		return fmt.Errorf("min distance must not be negative, got %d", c.MinDistance)
	case c.BackgroundThreshold < 0 || c.BackgroundThreshold > 1:
		return fmt.Errorf("background threshold must be in [0,1], got %g", c.BackgroundThreshold)
	case c.DiversityWeight < 0:
		return fmt.Errorf("diversity weight must not be negative, got %g", c.DiversityWeight)
	case c.TintAlpha < 0 || c.TintAlpha > 1:
		return fmt.Errorf("tint alpha must be in [0,1], got %g", c.TintAlpha)
	case c.Overlay < 0 || c.Overlay > 1:
		return fmt.Errorf("overlay fraction must be in [0,1], got %g", c.Overlay)
	case c.Tint == TintRegion && len(c.Palette) == 0:
		return fmt.Errorf("region tint requires a palette")
	}
	return nil
}

// DefaultConfig returns the configuration used when no flags are given:
// straight color matching with unlimited reuse.
func DefaultConfig() *Config {
	return &Config{
		CellSize:            40,
		Enlarge:             1,
		Reuse:               ReuseUnlimited,
		MinDistance:         3,
		BackgroundThreshold: 0.7,
		ColorMatch:          true,
		TintAlpha:           0.25,
		TintBlend:           BlendNormal,
		OverlayBlend:        BlendNormal,
		Palette:             DefaultPalette(),
	}
}
