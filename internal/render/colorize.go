package render

import (
	"image"
	"image/draw"

	"colorforge/internal/palette"
)

// contrastFactor matches the legacy contrast enhancement step.
const contrastFactor = 2

// Colorize applies the additive color-injection transform: grayscale,
// contrast stretch around the image's own mean, optional tonal
// inversion, then per-channel additive injection clamped at 255. The
// alpha channel is set aside untouched and restored verbatim; fully
// transparent pixels are still colorized.
func Colorize(img image.Image, rgb palette.RGB, invert bool) *image.NRGBA {
	src := toNRGBA(img)
	out := image.NewNRGBA(src.Bounds())

	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	npix := width * height
	if npix == 0 {
		return out
	}

	// Luminance uses the Pillow "L" integer weighting so outputs stay
	// bit-identical with the reference renderer.
	gray := make([]uint8, npix)
	var sum uint64
	for i, j := 0, 0; i < len(src.Pix); i, j = i+4, j+1 {
		r := uint32(src.Pix[i])
		g := uint32(src.Pix[i+1])
		b := uint32(src.Pix[i+2])
		l := uint8((19595*r + 38470*g + 7471*b + 0x8000) >> 16)
		gray[j] = l
		sum += uint64(l)
	}
	mean := int(float64(sum)/float64(npix) + 0.5)

	for i, j := 0, 0; i < len(out.Pix); i, j = i+4, j+1 {
		p := mean + (int(gray[j])-mean)*contrastFactor
		if p < 0 {
			p = 0
		} else if p > 255 {
			p = 255
		}
		if invert {
			p = 255 - p
		}
		out.Pix[i] = clamp8(p + int(rgb.R))
		out.Pix[i+1] = clamp8(p + int(rgb.G))
		out.Pix[i+2] = clamp8(p + int(rgb.B))
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

func clamp8(v int) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	out := image.NewNRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
