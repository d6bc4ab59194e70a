package mosaic

import "fmt"

// InsufficientTilesError is returned when the no-reuse policy runs out of
// tiles before the grid is filled. It reports capacity so the caller can
// tell how far short the library fell.
type InsufficientTilesError struct {
	// Tiles is the number of tiles in the library.
	Tiles int
	// CellsRemaining is the number of tile-eligible cells still unfilled
	// at the point of failure.
	CellsRemaining int
}

func (e *InsufficientTilesError) Error() string {
	return fmt.Sprintf("no-reuse policy exhausted: %d tiles for %d remaining cells",
		e.Tiles, e.CellsRemaining)
}
