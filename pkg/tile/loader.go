package tile

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrEmptyLibrary is returned when a tile directory yields no decodable
// images. The selector cannot run without candidates, so callers treat
// this as fatal.
var ErrEmptyLibrary = errors.New("tile library contains no decodable images")

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// LoadOptions controls how a tile library is built.
type LoadOptions struct {
	// Size is the pixel edge length each tile is prepared to.
	Size int
	// Recursive walks subdirectories instead of only the top level.
	Recursive bool
}

// Library is an ordered, immutable set of prepared tiles. Ordering is by
// file path, so two loads of the same directory produce identical indices.
type Library struct {
	Tiles []Tile
	// Skipped counts files that matched a supported extension but failed
	// to decode. These are warnings, not errors.
	Skipped int
}

// LoadLibrary reads every supported image under dir, center-crops each to a
// square and resizes it to opts.Size with Lanczos resampling, and computes
// its mean color. Files that fail to decode are skipped and counted.
func LoadLibrary(dir string, opts LoadOptions) (*Library, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", opts.Size)
	}

	paths, err := listImageFiles(dir, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("scan tile directory: %w", err)
	}

	lib := &Library{}
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			lib.Skipped++
			continue
		}
		prepared := imaging.Fill(img, opts.Size, opts.Size, imaging.Center, imaging.Lanczos)
		t := Tile{
			Index: len(lib.Tiles),
			Path:  p,
			Image: prepared,
			Mean:  MeanColor(prepared, prepared.Bounds()),
		}
		lib.Tiles = append(lib.Tiles, t)
	}

	if len(lib.Tiles) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptyLibrary)
	}
	return lib, nil
}

func listImageFiles(dir string, recursive bool) ([]string, error) {
	var paths []string

	if recursive {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && supportedExts[strings.ToLower(filepath.Ext(p))] {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := filepath.Glob(filepath.Join(dir, "*"))
		if err != nil {
			return nil, err
		}
		for _, p := range entries {
			if supportedExts[strings.ToLower(filepath.Ext(p))] {
				paths = append(paths, p)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}
