package mosaic

import (
	"image"

	"covermosaic/pkg/tile"
)

// rgb is a normalized [0,1] working color for per-pixel compositing math.
type rgb struct {
	r, g, b float64
}

func rgbFromColor(c tile.Color) rgb {
	return rgb{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

func (c rgb) luminance() float64 {
	return 0.299*c.r + 0.587*c.g + 0.114*c.b
}

// blendPixel applies the blend formula to a base/overlay pair. The caller
// mixes the result back over the base at the configured fraction, so
// BlendNormal simply returns the overlay.
func blendPixel(base, over rgb, mode BlendMode) rgb {
	switch mode {
	case BlendMultiply:
		return rgb{base.r * over.r, base.g * over.g, base.b * over.b}
	case BlendScreen:
		return rgb{
			1 - (1-base.r)*(1-over.r),
			1 - (1-base.g)*(1-over.g),
			1 - (1-base.b)*(1-over.b),
		}
	case BlendOverlay:
		return rgb{
			overlayChannel(base.r, over.r),
			overlayChannel(base.g, over.g),
			overlayChannel(base.b, over.b),
		}
	case BlendSoftLight:
		return rgb{
			softLightChannel(base.r, over.r),
			softLightChannel(base.g, over.g),
			softLightChannel(base.b, over.b),
		}
	case BlendColor:
		return colorBlend(base, over)
	default:
		return over
	}
}

func overlayChannel(base, over float64) float64 {
	if base < 0.5 {
		return 2 * base * over
	}
	return 1 - 2*(1-base)*(1-over)
}

func softLightChannel(base, over float64) float64 {
	return (1-2*over)*base*base + 2*over*base
}

// colorBlend keeps the base pixel's luminance and takes its chroma from
// the overlay by rescaling the overlay to the base luminance. A
// near-black overlay degenerates to gray at the base luminance.
func colorBlend(base, over rgb) rgb {
	baseLum := base.luminance()
	overLum := over.luminance()
	if overLum <= 0.001 {
		return rgb{baseLum, baseLum, baseLum}
	}
	scale := baseLum / overLum
	return rgb{
		clamp01(over.r * scale),
		clamp01(over.g * scale),
		clamp01(over.b * scale),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mix(base, blended rgb, alpha float64) rgb {
	return rgb{
		clamp01((1-alpha)*base.r + alpha*blended.r),
		clamp01((1-alpha)*base.g + alpha*blended.g),
		clamp01((1-alpha)*base.b + alpha*blended.b),
	}
}

func toByte(v float64) uint8 {
	return uint8(v*255 + 0.5)
}

// TintImage returns a copy of img washed with the tint color at the given
// opacity using the blend mode. Zero alpha returns the input untouched.
func TintImage(img *image.NRGBA, tint tile.Color, alpha float64, mode BlendMode) *image.NRGBA {
	if alpha <= 0 {
		return img
	}

	over := rgbFromColor(tint)
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			base := rgb{
				float64(img.Pix[i]) / 255,
				float64(img.Pix[i+1]) / 255,
				float64(img.Pix[i+2]) / 255,
			}
			res := mix(base, blendPixel(base, over, mode), alpha)
			o := out.PixOffset(x, y)
			out.Pix[o] = toByte(res.r)
			out.Pix[o+1] = toByte(res.g)
			out.Pix[o+2] = toByte(res.b)
			out.Pix[o+3] = 255
		}
	}
	return out
}

// OverlayImage blends over onto base in place at the given fraction.
// Both images must share bounds; over pixels outside base are ignored.
func OverlayImage(base, over *image.NRGBA, fraction float64, mode BlendMode) {
	if fraction <= 0 {
		return
	}

	b := base.Bounds().Intersect(over.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			bi := base.PixOffset(x, y)
			oi := over.PixOffset(x, y)
			bp := rgb{
				float64(base.Pix[bi]) / 255,
				float64(base.Pix[bi+1]) / 255,
				float64(base.Pix[bi+2]) / 255,
			}
			op := rgb{
				float64(over.Pix[oi]) / 255,
				float64(over.Pix[oi+1]) / 255,
				float64(over.Pix[oi+2]) / 255,
			}
			res := mix(bp, blendPixel(bp, op, mode), fraction)
			base.Pix[bi] = toByte(res.r)
			base.Pix[bi+1] = toByte(res.g)
			base.Pix[bi+2] = toByte(res.b)
			base.Pix[bi+3] = 255
		}
	}
}
