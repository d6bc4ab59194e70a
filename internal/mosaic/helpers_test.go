package mosaic

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"covermosaic/pkg/tile"
)

// solidImage returns a w x h image filled with c.
func solidImage(w, h int, c tile.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Bounds(), c)
	return img
}

func fillRect(img *image.NRGBA, r image.Rectangle, c tile.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
}

// solidTiles builds an in-memory library of solid-color tiles of the
// given size, indexed in order.
func solidTiles(size int, colors ...tile.Color) []tile.Tile {
	tiles := make([]tile.Tile, len(colors))
	for i, c := range colors {
		tiles[i] = tile.Tile{
			Index: i,
			Image: solidImage(size, size, c),
			Mean:  c,
		}
	}
	return tiles
}

// writePNG writes img to path as a test fixture.
func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// assignments flattens the grid's tile indices in row-major order, with
// -1 for background cells.
func assignments(g *Grid) []int {
	out := make([]int, len(g.Cells))
	for i := range g.Cells {
		out[i] = g.Cells[i].TileIndex
	}
	return out
}

// pixelAt reads the pixel at (x, y) as a tile color, ignoring alpha.
func pixelAt(img *image.NRGBA, x, y int) tile.Color {
	i := img.PixOffset(x, y)
	return tile.Color{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
