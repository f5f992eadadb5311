// Package colorutil provides shared colors for masks and canvas overlays.
package colorutil

import (
	"image/color"
)

// Mask values. The mask is 8-bit grayscale: strokes are pure white on black.
var (
	MaskOff = color.Gray{Y: 0}
	MaskOn  = color.Gray{Y: 255}
)

// Common overlay colors used by the canvases.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}

	// BrushTint is painted over the photo wherever the display mask is set.
	BrushTint = color.NRGBA{R: 255, G: 40, B: 80, A: 140}

	// Letterbox fills the padding around a fitted image.
	Letterbox = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// BlendOver returns src composited over dst using src's alpha. dst is
// treated as opaque.
func BlendOver(dst color.RGBA, src color.NRGBA) color.RGBA {
	a := uint32(src.A)
	inv := 255 - a
	return color.RGBA{
		R: uint8((uint32(src.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(src.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(src.B)*a + uint32(dst.B)*inv) / 255),
		A: 255,
	}
}

// IsMaskOn reports whether a mask sample counts as marked.
func IsMaskOn(y uint8) bool {
	return y >= 128
}
