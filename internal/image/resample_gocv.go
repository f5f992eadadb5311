//go:build gocv

package image

import (
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// resample scales src to w x h with OpenCV area interpolation, falling back
// to Catmull-Rom if the Mat cannot be built.
func resample(src *image.NRGBA, w, h int) *image.NRGBA {
	b := src.Bounds()
	if src.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		src = imaging.Clone(src)
		b = src.Bounds()
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, src.Pix)
	if err != nil {
		return fallbackResample(src, w, h)
	}
	defer mat.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(mat, &scaled, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(dst.Pix, scaled.ToBytes())
	return dst
}

func fallbackResample(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
