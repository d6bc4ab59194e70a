package mosaic

import (
	"fmt"
	"image"
	"math/rand"
	"os"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"covermosaic/pkg/tile"
)

// Result summarizes one completed run.
type Result struct {
	Rows, Cols    int
	Width, Height int

	TilesLoaded  int
	TilesSkipped int

	BackgroundUsed  bool
	BackgroundColor tile.Color
	BackgroundCells int

	Relaxations int

	// Usage distribution across the library, for judging diversity.
	UsageMean     float64
	UsageVariance float64
}

// Generator runs the whole pipeline: load tiles, analyze the target,
// classify background cells, select tiles, composite, and optionally
// overlay the original. One Generator may be reused across runs; all
// per-run state lives in locals.
type Generator struct {
	cfg  *Config
	logf func(format string, args ...any)
}

// NewGenerator validates nothing; call Config.Validate before Generate.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		cfg: cfg,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
		},
	}
}

// Generate produces the mosaic for targetPath from the tile library at
// tilesDir and returns the canvas plus run statistics.
func (g *Generator) Generate(targetPath, tilesDir string) (*image.NRGBA, *Result, error) {
	cfg := g.cfg
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	target, err := imaging.Open(targetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load target image %s: %w", targetPath, err)
	}
	tb := target.Bounds()
	g.logf("==Target: %s (%dx%d)\n", targetPath, tb.Dx(), tb.Dy())

	lib, err := tile.LoadLibrary(tilesDir, tile.LoadOptions{
		Size:      cfg.CellSize * cfg.Enlarge,
		Recursive: cfg.Recursive,
	})
	if err != nil {
		return nil, nil, err
	}
	g.logf("==Tiles: %d loaded, %d skipped\n", len(lib.Tiles), lib.Skipped)

	grid := AnalyzeTarget(target, cfg.CellSize, cfg.Enlarge)
	g.logf("==Grid: %dx%d = %d cells\n", grid.Cols, grid.Rows, len(grid.Cells))

	res := &Result{
		Rows:         grid.Rows,
		Cols:         grid.Cols,
		TilesLoaded:  len(lib.Tiles),
		TilesSkipped: lib.Skipped,
	}

	switch cfg.Background {
	case BackgroundFixed:
		res.BackgroundUsed = true
		res.BackgroundColor = cfg.BackgroundColor
	case BackgroundAuto:
		detected, confident := DetectBackground(target)
		if !confident {
			g.logf("warning: corner samples disagree, background detection is low-confidence (using %s)\n", detected)
		}
		res.BackgroundUsed = true
		res.BackgroundColor = detected
	}
	if res.BackgroundUsed {
		res.BackgroundCells = ClassifyBackground(target, grid, res.BackgroundColor, cfg.BackgroundThreshold)
		g.logf("==Background: %s, %d of %d cells\n", res.BackgroundColor, res.BackgroundCells, len(grid.Cells))
	}

	sel := NewSelector(lib.Tiles, cfg, rand.New(rand.NewSource(cfg.Seed)))
	sel.logf = g.logf
	if err := sel.Assign(grid); err != nil {
		return nil, nil, err
	}
	res.Relaxations = sel.Relaxations()

	usage := make([]float64, len(lib.Tiles))
	for i, n := range sel.Usage() {
		usage[i] = float64(n)
	}
	res.UsageMean = stat.Mean(usage, nil)
	res.UsageVariance = stat.Variance(usage, nil)

	canvas := RenderGrid(grid, lib.Tiles, res.BackgroundColor, cfg)
	cb := canvas.Bounds()
	res.Width, res.Height = cb.Dx(), cb.Dy()

	if cfg.Overlay > 0 {
		g.logf("==Overlay: %.0f%% %s blend of original\n", cfg.Overlay*100, cfg.OverlayBlend)
		enlarged := imaging.Resize(target, res.Width, res.Height, imaging.Lanczos)
		OverlayImage(canvas, enlarged, cfg.Overlay, cfg.OverlayBlend)
	}

	return canvas, res, nil
}

// GenerateFile runs Generate and writes the canvas to outputPath
// atomically.
func (g *Generator) GenerateFile(targetPath, tilesDir, outputPath string) (*Result, error) {
	canvas, res, err := g.Generate(targetPath, tilesDir)
	if err != nil {
		return nil, err
	}
	if err := WriteImage(canvas, outputPath); err != nil {
		return nil, err
	}
	g.logf("==Output: %s (%dx%d)\n", outputPath, res.Width, res.Height)
	return res, nil
}
