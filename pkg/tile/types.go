package tile

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB color. Alpha is ignored throughout; tiles and
// targets are flattened to opaque RGB when loaded.
type Color struct {
	R, G, B uint8
}

// Distance returns the Euclidean distance between two colors in RGB space.
func (c Color) Distance(o Color) float64 {
	dr := int(c.R) - int(o.R)
	dg := int(c.G) - int(o.G)
	db := int(c.B) - int(o.B)
	return math.Sqrt(float64(dr*dr + dg*dg + db*db))
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor parses a color spec. Accepted forms: "F472B6", "#F472B6",
// "244,114,182", and the names "white" and "black".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "white":
		return Color{255, 255, 255}, nil
	case "black":
		return Color{}, nil
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("invalid color %q: want R,G,B", s)
		}
		var ch [3]uint8
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return Color{}, fmt.Errorf("invalid color %q: channel %q out of range", s, p)
			}
			ch[i] = uint8(v)
		}
		return Color{ch[0], ch[1], ch[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Tile is one candidate image in the library, already center-cropped and
// resized to the mosaic's cell dimensions. Index is stable for the lifetime
// of the Library and is what the selector records.
type Tile struct {
	Index int
	Path  string
	Image *image.NRGBA
	Mean  Color
}

// MeanColor computes the arithmetic mean RGB over the region r of img.
// The region is clamped to the image bounds, so partial edge regions are
// averaged over the pixels that actually exist.
func MeanColor(img image.Image, r image.Rectangle) Color {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return Color{}
	}

	var sumR, sumG, sumB uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			sumR += uint64(pr >> 8)
			sumG += uint64(pg >> 8)
			sumB += uint64(pb >> 8)
		}
	}

	n := uint64(r.Dx() * r.Dy())
	return Color{
		R: uint8(math.Round(float64(sumR) / float64(n))),
		G: uint8(math.Round(float64(sumG) / float64(n))),
		B: uint8(math.Round(float64(sumB) / float64(n))),
	}
}
