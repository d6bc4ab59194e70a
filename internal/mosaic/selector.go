package mosaic

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"os"

	"covermosaic/pkg/tile"
)

// diversityPenaltyScale sets how much distance a maximally-used tile is
// penalized at diversity weight 1.0. 100 is a meaningful fraction of the
// RGB distance range (0..~441).
const diversityPenaltyScale = 100.0

// Selector assigns tiles to grid cells. It owns the only mutable state of
// a run: per-tile usage counts and placement positions. Cells are visited
// in row-major order, which makes color-match selection fully
// deterministic for a fixed library order.
type Selector struct {
	tiles []tile.Tile
	cfg   *Config
	rng   *rand.Rand

	usage      []int
	placements [][]image.Point
	maxUsage   int

	relaxations int
	logf        func(format string, args ...any)
}

// NewSelector builds a selector over the library. rng is only consulted in
// random mode; passing a seeded generator makes that mode reproducible.
func NewSelector(tiles []tile.Tile, cfg *Config, rng *rand.Rand) *Selector {
	return &Selector{
		tiles:      tiles,
		cfg:        cfg,
		rng:        rng,
		usage:      make([]int, len(tiles)),
		placements: make([][]image.Point, len(tiles)),
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
		},
	}
}

// Usage returns the per-tile usage counts accumulated so far.
func (s *Selector) Usage() []int { return s.usage }

// Relaxations returns how many cells required dropping the max-reuse or
// min-distance filters to find a candidate.
func (s *Selector) Relaxations() int { return s.relaxations }

// Assign fills every tile-eligible cell of the grid. Under the no-reuse
// policy it fails fast with InsufficientTilesError when the library cannot
// cover the eligible cells.
func (s *Selector) Assign(g *Grid) error {
	eligible := g.EligibleCells()
	if s.cfg.Reuse == ReuseNone && len(s.tiles) < eligible {
		return &InsufficientTilesError{Tiles: len(s.tiles), CellsRemaining: eligible}
	}

	remaining := eligible
	for i := range g.Cells {
		c := &g.Cells[i]
		if c.Background {
			continue
		}
		idx, err := s.pick(c, remaining)
		if err != nil {
			return err
		}
		c.TileIndex = idx
		s.record(idx, c)
		remaining--
	}
	return nil
}

func (s *Selector) pick(c *Cell, remaining int) (int, error) {
	pos := image.Pt(c.Col, c.Row)
	pool := s.candidates(pos)

	if len(pool) == 0 {
		// The conjunction of filters emptied the pool. Never crash the
		// run over placement aesthetics: keep the no-reuse guarantee and
		// relax the rest, loudly.
		if s.cfg.Reuse == ReuseNone {
			pool = s.unusedTiles()
			if len(pool) == 0 {
				return 0, &InsufficientTilesError{Tiles: len(s.tiles), CellsRemaining: remaining}
			}
		} else {
			pool = s.allTiles()
		}
		s.relaxations++
		s.logf("relaxed reuse constraints at cell (%d,%d): no candidates passed filters\n", c.Col, c.Row)
	}

	if !s.cfg.ColorMatch {
		return s.pickRandom(pool), nil
	}
	return s.pickByColor(c.Mean, pool), nil
}

// candidates returns tile indices, in ascending order, that pass the
// active reuse filters for a placement at pos.
func (s *Selector) candidates(pos image.Point) []int {
	var pool []int
	for i := range s.tiles {
		if s.allowed(i, pos) {
			pool = append(pool, i)
		}
	}
	return pool
}

func (s *Selector) allowed(i int, pos image.Point) bool {
	switch s.cfg.Reuse {
	case ReuseNone:
		if s.usage[i] > 0 {
			return false
		}
	case ReuseMax:
		if s.usage[i] >= s.cfg.MaxReuse {
			return false
		}
	}

	if s.cfg.MinDistance > 0 {
		for _, p := range s.placements[i] {
			if chebyshev(p, pos) < s.cfg.MinDistance {
				return false
			}
		}
	}
	return true
}

func (s *Selector) unusedTiles() []int {
	var pool []int
	for i := range s.tiles {
		if s.usage[i] == 0 {
			pool = append(pool, i)
		}
	}
	return pool
}

func (s *Selector) allTiles() []int {
	pool := make([]int, len(s.tiles))
	for i := range pool {
		pool[i] = i
	}
	return pool
}

// pickByColor selects the pool entry with the lowest effective score:
// Euclidean RGB distance plus, when diversity weighting is on, a penalty
// proportional to how heavily the tile has already been used. Ties go to
// the lowest tile index because the pool is iterated in ascending order
// with a strict comparison.
func (s *Selector) pickByColor(target tile.Color, pool []int) int {
	maxUsage := s.maxUsage
	if maxUsage < 1 {
		maxUsage = 1
	}

	best := pool[0]
	bestScore := math.Inf(1)
	for _, i := range pool {
		score := target.Distance(s.tiles[i].Mean)
		if s.cfg.DiversityWeight > 0 {
			score += float64(s.usage[i]) / float64(maxUsage) * s.cfg.DiversityWeight * diversityPenaltyScale
		}
		if score < bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// pickRandom draws uniformly from the pool, preferring tiles that have
// never been placed so small libraries cycle through everything before
// repeating.
func (s *Selector) pickRandom(pool []int) int {
	var unused []int
	for _, i := range pool {
		if s.usage[i] == 0 {
			unused = append(unused, i)
		}
	}
	if len(unused) > 0 {
		return unused[s.rng.Intn(len(unused))]
	}
	return pool[s.rng.Intn(len(pool))]
}

func (s *Selector) record(i int, c *Cell) {
	s.usage[i]++
	if s.usage[i] > s.maxUsage {
		s.maxUsage = s.usage[i]
	}
	s.placements[i] = append(s.placements[i], image.Pt(c.Col, c.Row))
}

// chebyshev is the grid distance used for the min-distance constraint:
// the larger of the row and column deltas.
func chebyshev(a, b image.Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
