package mosaic

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"covermosaic/pkg/tile"
)

func testSelector(tiles []tile.Tile, cfg *Config, seed int64) *Selector {
	s := NewSelector(tiles, cfg, rand.New(rand.NewSource(seed)))
	s.logf = func(string, ...any) {}
	return s
}

// uniformTestGrid builds a rows x cols grid whose cells all share mean
// color c, for driving the selector without a real target image.
func uniformTestGrid(cols, rows int, c tile.Color) *Grid {
	img := solidImage(cols*4, rows*4, c)
	return AnalyzeTarget(img, 4, 1)
}

func TestSelectorPicksNearestColor(t *testing.T) {
	tiles := solidTiles(4,
		tile.Color{R: 250},
		tile.Color{G: 250},
		tile.Color{B: 250},
	)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.MinDistance = 0

	g := uniformTestGrid(2, 2, tile.Color{G: 240})
	if err := testSelector(tiles, cfg, 1).Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	for _, idx := range assignments(g) {
		if idx != 1 {
			t.Fatalf("assignments = %v, want all green tile (1)", assignments(g))
		}
	}
}

func TestSelectorTieBreaksByLowestIndex(t *testing.T) {
	same := tile.Color{R: 100, G: 100, B: 100}
	tiles := solidTiles(4, same, same, same)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.MinDistance = 0

	g := uniformTestGrid(3, 1, same)
	if err := testSelector(tiles, cfg, 1).Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	for _, idx := range assignments(g) {
		if idx != 0 {
			t.Fatalf("assignments = %v, want all tile 0 (lowest-index tie break)", assignments(g))
		}
	}
}

func TestSelectorDeterministic(t *testing.T) {
	tiles := solidTiles(4,
		tile.Color{R: 10, G: 200, B: 30},
		tile.Color{R: 200, G: 10, B: 30},
		tile.Color{R: 30, G: 10, B: 200},
		tile.Color{R: 128, G: 128, B: 128},
	)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.DiversityWeight = 0.5

	run := func() []int {
		g := uniformTestGrid(5, 5, tile.Color{R: 100, G: 100, B: 100})
		if err := testSelector(tiles, cfg, 1).Assign(g); err != nil {
			t.Fatalf("Assign: %v", err)
		}
		return assignments(g)
	}

	first := run()
	second := run()
	if !intsEqual(first, second) {
		t.Errorf("color-match selection not deterministic:\n%v\n%v", first, second)
	}
}

func TestSelectorRandomModeSeeded(t *testing.T) {
	tiles := solidTiles(4,
		tile.Color{R: 250}, tile.Color{G: 250}, tile.Color{B: 250}, tile.Color{R: 250, G: 250},
	)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.ColorMatch = false
	cfg.MinDistance = 0

	run := func(seed int64) []int {
		g := uniformTestGrid(4, 4, tile.Color{R: 50})
		if err := testSelector(tiles, cfg, seed).Assign(g); err != nil {
			t.Fatalf("Assign: %v", err)
		}
		return assignments(g)
	}

	if !intsEqual(run(42), run(42)) {
		t.Error("random mode with the same seed should reproduce assignments")
	}
}

func TestSelectorRandomModePrefersUnused(t *testing.T) {
	tiles := solidTiles(4,
		tile.Color{R: 250}, tile.Color{G: 250}, tile.Color{B: 250}, tile.Color{R: 250, G: 250},
	)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.ColorMatch = false
	cfg.MinDistance = 0

	g := uniformTestGrid(4, 1, tile.Color{R: 50})
	s := testSelector(tiles, cfg, 7)
	if err := s.Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// Four cells, four tiles: every tile must be used exactly once
	// before any repeats.
	for i, n := range s.Usage() {
		if n != 1 {
			t.Errorf("tile %d used %d times, want 1 (usage %v)", i, n, s.Usage())
		}
	}
}

func TestNoReuseFailsFastOnCapacity(t *testing.T) {
	tiles := solidTiles(4, tile.Color{R: 250}, tile.Color{G: 250})
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.Reuse = ReuseNone

	g := uniformTestGrid(2, 2, tile.Color{R: 100})
	err := testSelector(tiles, cfg, 1).Assign(g)

	var insufficient *InsufficientTilesError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientTilesError", err)
	}
	if insufficient.Tiles != 2 || insufficient.CellsRemaining != 4 {
		t.Errorf("error reports %d tiles / %d cells, want 2 / 4", insufficient.Tiles, insufficient.CellsRemaining)
	}
}

func TestNoReusePlacesEachTileOnce(t *testing.T) {
	colors := make([]tile.Color, 9)
	for i := range colors {
		colors[i] = tile.Color{R: uint8(i * 25)}
	}
	tiles := solidTiles(4, colors...)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.Reuse = ReuseNone
	cfg.MinDistance = 0

	g := uniformTestGrid(3, 3, tile.Color{R: 100})
	s := testSelector(tiles, cfg, 1)
	if err := s.Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	for i, n := range s.Usage() {
		if n > 1 {
			t.Errorf("tile %d used %d times under no-reuse", i, n)
		}
	}
	seen := make(map[int]bool)
	for _, idx := range assignments(g) {
		if seen[idx] {
			t.Errorf("tile %d assigned to more than one cell", idx)
		}
		seen[idx] = true
	}
}

func TestMaxReuseBound(t *testing.T) {
	tiles := solidTiles(4, tile.Color{R: 100}, tile.Color{R: 110}, tile.Color{R: 120})
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.Reuse = ReuseMax
	cfg.MaxReuse = 2
	cfg.MinDistance = 0

	g := uniformTestGrid(5, 1, tile.Color{R: 100})
	s := testSelector(tiles, cfg, 1)
	if err := s.Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	for i, n := range s.Usage() {
		if n > cfg.MaxReuse {
			t.Errorf("tile %d used %d times, max-reuse is %d", i, n, cfg.MaxReuse)
		}
	}
	if s.Relaxations() != 0 {
		t.Errorf("unexpected relaxations: %d", s.Relaxations())
	}
}

func TestMinDistanceChebyshev(t *testing.T) {
	// Two identical tiles, four cells in a row, min distance 2. The
	// same tile may only repeat two or more columns away, forcing an
	// alternating pattern.
	same := tile.Color{R: 100}
	tiles := solidTiles(4, same, same)
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.MinDistance = 2

	g := uniformTestGrid(4, 1, same)
	if err := testSelector(tiles, cfg, 1).Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	want := []int{0, 1, 0, 1}
	if !intsEqual(assignments(g), want) {
		t.Errorf("assignments = %v, want %v", assignments(g), want)
	}

	// Invariant: any two cells sharing a tile are >= D apart.
	for i := range g.Cells {
		for j := i + 1; j < len(g.Cells); j++ {
			a, b := &g.Cells[i], &g.Cells[j]
			if a.TileIndex != b.TileIndex {
				continue
			}
			d := chebyshev(image.Pt(a.Col, a.Row), image.Pt(b.Col, b.Row))
			if d < cfg.MinDistance {
				t.Errorf("cells (%d,%d) and (%d,%d) share tile %d at distance %d",
					a.Col, a.Row, b.Col, b.Row, a.TileIndex, d)
			}
		}
	}
}

func TestMinDistanceAppliesToAnyPriorPlacement(t *testing.T) {
	// One tile, unlimited reuse, min distance 3 on a 1x5 row. Every
	// placement within 2 columns of any earlier one must relax.
	tiles := solidTiles(4, tile.Color{R: 100})
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.MinDistance = 3

	g := uniformTestGrid(5, 1, tile.Color{R: 100})
	s := testSelector(tiles, cfg, 1)
	if err := s.Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// Only cell 0 places cleanly: relaxed placements are recorded too,
	// so every later cell sits within 2 columns of some prior one.
	if s.Relaxations() != 4 {
		t.Errorf("relaxations = %d, want 4", s.Relaxations())
	}
	for _, idx := range assignments(g) {
		if idx != 0 {
			t.Fatalf("assignments = %v, want all tile 0", assignments(g))
		}
	}
}

func TestMaxReuseRelaxesWhenExhausted(t *testing.T) {
	// A single tile capped at one use cannot cover two cells. The run
	// must still finish, reporting the relaxation instead of failing.
	tiles := solidTiles(4, tile.Color{R: 100})
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.Reuse = ReuseMax
	cfg.MaxReuse = 1
	cfg.MinDistance = 0

	g := uniformTestGrid(2, 1, tile.Color{R: 100})
	s := testSelector(tiles, cfg, 1)
	if err := s.Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if got := s.Usage()[0]; got != 2 {
		t.Errorf("tile 0 used %d times, want 2 after relaxation", got)
	}
	if s.Relaxations() != 1 {
		t.Errorf("relaxations = %d, want 1", s.Relaxations())
	}
}

func TestDiversityFlattensUsage(t *testing.T) {
	// A target of many similar cells and a small library: without
	// diversity every cell picks the single best tile; with weight 1.0
	// usage must spread measurably.
	tiles := solidTiles(4,
		tile.Color{R: 100},
		tile.Color{R: 104},
		tile.Color{R: 108},
		tile.Color{R: 112},
	)

	variance := func(weight float64) float64 {
		cfg := DefaultConfig()
		cfg.CellSize = 4
		cfg.MinDistance = 0
		cfg.DiversityWeight = weight

		g := uniformTestGrid(6, 6, tile.Color{R: 100})
		s := testSelector(tiles, cfg, 1)
		if err := s.Assign(g); err != nil {
			t.Fatalf("Assign: %v", err)
		}

		var mean float64
		for _, n := range s.Usage() {
			mean += float64(n)
		}
		mean /= float64(len(tiles))
		var v float64
		for _, n := range s.Usage() {
			d := float64(n) - mean
			v += d * d
		}
		return v / float64(len(tiles))
	}

	v0 := variance(0)
	v1 := variance(1.0)
	if v1 >= v0 {
		t.Errorf("usage variance at weight 1.0 (%.2f) should be below weight 0 (%.2f)", v1, v0)
	}
}

func TestBackgroundCellsNeverAssigned(t *testing.T) {
	tiles := solidTiles(4, tile.Color{R: 100})
	cfg := DefaultConfig()
	cfg.CellSize = 4
	cfg.MinDistance = 0

	g := uniformTestGrid(2, 2, tile.Color{R: 100})
	g.Cells[0].Background = true
	g.Cells[3].Background = true

	if err := testSelector(tiles, cfg, 1).Assign(g); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	want := []int{-1, 0, 0, -1}
	if !intsEqual(assignments(g), want) {
		t.Errorf("assignments = %v, want %v", assignments(g), want)
	}
}

func TestChebyshev(t *testing.T) {
	tests := []struct {
		a, b image.Point
		want int
	}{
		{image.Pt(0, 0), image.Pt(0, 0), 0},
		{image.Pt(0, 0), image.Pt(3, 1), 3},
		{image.Pt(5, 2), image.Pt(4, 8), 6},
		{image.Pt(2, 2), image.Pt(0, 0), 2},
	}
	for _, tt := range tests {
		if got := chebyshev(tt.a, tt.b); got != tt.want {
			t.Errorf("chebyshev(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
