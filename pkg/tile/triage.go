package tile

import "image"

// Text-card heuristics. Album libraries scraped from the web pick up
// placeholder cards (white background, a line or two of black text) that
// look terrible in a mosaic. A card is betrayed by a very high white-pixel
// ratio together with a tiny number of distinct colors.
const (
	whiteChannelFloor  = 240
	textCardWhiteRatio = 0.85
	textCardMaxColors  = 15
	colorQuantStep     = 32
)

// Metrics summarizes the content of a single tile image for triage.
type Metrics struct {
	// WhiteRatio is the fraction of pixels with all channels above 240.
	WhiteRatio float64
	// UniqueColors counts distinct colors after quantizing each channel
	// to multiples of 32, which suppresses JPEG noise.
	UniqueColors int
}

// TextCard reports whether the metrics look like a text placeholder card
// rather than artwork.
func (m Metrics) TextCard() bool {
	return m.WhiteRatio > textCardWhiteRatio && m.UniqueColors < textCardMaxColors
}

// Analyze computes triage metrics over every pixel of img.
func Analyze(img image.Image) Metrics {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return Metrics{}
	}

	white := 0
	seen := make(map[Color]struct{})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			pr, pg, pb := uint8(r>>8), uint8(g>>8), uint8(bb>>8)
			if pr > whiteChannelFloor && pg > whiteChannelFloor && pb > whiteChannelFloor {
				white++
			}
			q := Color{
				R: pr / colorQuantStep * colorQuantStep,
				G: pg / colorQuantStep * colorQuantStep,
				B: pb / colorQuantStep * colorQuantStep,
			}
			seen[q] = struct{}{}
		}
	}

	return Metrics{
		WhiteRatio:   float64(white) / float64(total),
		UniqueColors: len(seen),
	}
}
