package mosaic

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"covermosaic/pkg/tile"
)

// Cell is one position in the mosaic grid. TargetRect covers the cell's
// pixels in the source image (edge cells may be partial); OutRect is the
// full-size destination rectangle in the output canvas.
type Cell struct {
	Col, Row   int
	TargetRect image.Rectangle
	OutRect    image.Rectangle
	Mean       tile.Color

	Background bool
	// TileIndex is the assigned tile, or -1 before selection and for
	// background cells.
	TileIndex int
	// Tint is the wash applied during compositing, nil for none.
	Tint *tile.Color
}

// Grid is the row-major cell layout for one run.
type Grid struct {
	Rows, Cols int
	Cells      []Cell
}

// At returns the cell at the given column and row.
func (g *Grid) At(col, row int) *Cell {
	return &g.Cells[row*g.Cols+col]
}

// EligibleCells counts cells that will receive a tile.
func (g *Grid) EligibleCells() int {
	n := 0
	for i := range g.Cells {
		if !g.Cells[i].Background {
			n++
		}
	}
	return n
}

// AnalyzeTarget divides the target into ceil(h/cellSize) rows and
// ceil(w/cellSize) columns and computes each cell's geometry and mean
// color. Partial edge cells are averaged over their actual pixels but
// still map to a full-size output rectangle.
func AnalyzeTarget(img image.Image, cellSize, enlarge int) *Grid {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cols := (w + cellSize - 1) / cellSize
	rows := (h + cellSize - 1) / cellSize

	outCell := cellSize * enlarge
	g := &Grid{
		Rows:  rows,
		Cols:  cols,
		Cells: make([]Cell, 0, rows*cols),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			tr := image.Rect(
				b.Min.X+col*cellSize,
				b.Min.Y+row*cellSize,
				b.Min.X+(col+1)*cellSize,
				b.Min.Y+(row+1)*cellSize,
			).Intersect(b)
			c := Cell{
				Col:        col,
				Row:        row,
				TargetRect: tr,
				OutRect:    image.Rect(col*outCell, row*outCell, (col+1)*outCell, (row+1)*outCell),
				Mean:       tile.MeanColor(img, tr),
				TileIndex:  -1,
			}
			g.Cells = append(g.Cells, c)
		}
	}
	return g
}

// Corner sampling for background auto-detection.
const (
	cornerPatchSize = 20
	// cornerAgreementTolerance is the max pairwise distance between corner
	// means before detection is considered low-confidence.
	cornerAgreementTolerance = 40.0
)

// DetectBackground samples a small patch at each of the four corners of
// the target and returns the mean color across all samples. The second
// return is false when the corner means disagree beyond tolerance; the
// mean is still usable, but callers should warn.
func DetectBackground(img image.Image) (tile.Color, bool) {
	b := img.Bounds()
	patch := cornerPatchSize
	if patch > b.Dx() {
		patch = b.Dx()
	}
	if patch > b.Dy() {
		patch = b.Dy()
	}

	rects := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+patch, b.Min.Y+patch),
		image.Rect(b.Max.X-patch, b.Min.Y, b.Max.X, b.Min.Y+patch),
		image.Rect(b.Min.X, b.Max.Y-patch, b.Min.X+patch, b.Max.Y),
		image.Rect(b.Max.X-patch, b.Max.Y-patch, b.Max.X, b.Max.Y),
	}

	var rs, gs, bs []float64
	corners := make([]tile.Color, 0, len(rects))
	for _, r := range rects {
		m := tile.MeanColor(img, r)
		corners = append(corners, m)
		rs = append(rs, float64(m.R))
		gs = append(gs, float64(m.G))
		bs = append(bs, float64(m.B))
	}

	detected := tile.Color{
		R: uint8(stat.Mean(rs, nil) + 0.5),
		G: uint8(stat.Mean(gs, nil) + 0.5),
		B: uint8(stat.Mean(bs, nil) + 0.5),
	}

	confident := true
	for i := 0; i < len(corners) && confident; i++ {
		for j := i + 1; j < len(corners); j++ {
			if corners[i].Distance(corners[j]) > cornerAgreementTolerance {
				confident = false
				break
			}
		}
	}
	return detected, confident
}
