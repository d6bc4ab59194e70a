package mosaic

import (
	"image"
	"image/color"
	"image/draw"

	"covermosaic/pkg/tile"
)

// regionMatchTolerance is the maximum distance at which a cell's mean
// color is still considered part of a palette region.
const regionMatchTolerance = 80.0

// RenderGrid composites every cell of the grid onto a fresh canvas sized
// cols*cellSize*enlarge by rows*cellSize*enlarge. Background cells are
// flat-filled with bg; tile cells render their assigned tile with any
// configured tint.
func RenderGrid(g *Grid, tiles []tile.Tile, bg tile.Color, cfg *Config) *image.NRGBA {
	outCell := cfg.CellSize * cfg.Enlarge
	canvas := image.NewNRGBA(image.Rect(0, 0, g.Cols*outCell, g.Rows*outCell))

	bgFill := image.NewUniform(color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 255})
	for i := range g.Cells {
		c := &g.Cells[i]
		if c.Background {
			draw.Draw(canvas, c.OutRect, bgFill, image.Point{}, draw.Src)
			continue
		}

		img := tiles[c.TileIndex].Image
		if t := cellTint(c, cfg); t != nil {
			c.Tint = t
			img = TintImage(img, *t, cfg.TintAlpha, cfg.TintBlend)
		}
		draw.Draw(canvas, c.OutRect, img, img.Bounds().Min, draw.Src)
	}
	return canvas
}

// cellTint resolves the tint color for a tile cell, or nil for none.
func cellTint(c *Cell, cfg *Config) *tile.Color {
	switch cfg.Tint {
	case TintUniform:
		t := cfg.TintColor
		return &t
	case TintRegion:
		return classifyRegion(c.Mean, cfg.Palette)
	}
	return nil
}

// classifyRegion finds the palette entry nearest to the cell color within
// tolerance and returns its tint. No match, or a match whose entry has no
// tint (the usual white-region policy), yields nil.
func classifyRegion(c tile.Color, palette []PaletteEntry) *tile.Color {
	best := -1
	bestDist := regionMatchTolerance
	for i, e := range palette {
		if d := c.Distance(e.Match); d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return nil
	}
	return palette[best].Tint
}
