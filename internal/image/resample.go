//go:build !gocv

package image

import (
	"image"

	"golang.org/x/image/draw"
)

// resample scales src to w x h using Catmull-Rom.
func resample(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
