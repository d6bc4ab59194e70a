package mosaic

import (
	"image"

	"covermosaic/pkg/tile"
)

// backgroundPixelTolerance is the per-pixel color distance below which a
// pixel counts as matching the background.
const backgroundPixelTolerance = 30.0

// ClassifyBackground marks every cell whose pixel-match fraction against
// bg meets threshold. It runs once per grid, before selection, and is
// deterministic for a given target and threshold.
func ClassifyBackground(img image.Image, g *Grid, bg tile.Color, threshold float64) int {
	marked := 0
	for i := range g.Cells {
		c := &g.Cells[i]
		if backgroundFraction(img, c.TargetRect, bg) >= threshold {
			c.Background = true
			marked++
		}
	}
	return marked
}

func backgroundFraction(img image.Image, r image.Rectangle, bg tile.Color) float64 {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return 0
	}

	matching := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			p := tile.Color{R: uint8(pr >> 8), G: uint8(pg >> 8), B: uint8(pb >> 8)}
			if p.Distance(bg) <= backgroundPixelTolerance {
				matching++
			}
		}
	}
	return float64(matching) / float64(r.Dx()*r.Dy())
}
