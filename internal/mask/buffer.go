// Package mask holds the dual-resolution stroke mask: a display buffer sized
// to the on-screen image box and a native buffer sized to the photo.
package mask

import (
	"image"
	"math"

	"room-stager/pkg/colorutil"
	"room-stager/pkg/geometry"
)

// minRadius keeps single-pixel brushes visible.
const minRadius = 0.5

// Buffer is a binary 8-bit grayscale raster: 0 is background, 255 is marked.
type Buffer struct {
	img *image.Gray
}

// NewBuffer allocates a cleared buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{img: image.NewGray(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Gray exposes the raster for encoding and display.
func (b *Buffer) Gray() *image.Gray { return b.img }

// Clear resets every pixel to background.
func (b *Buffer) Clear() {
	clear(b.img.Pix)
}

// FillDisc marks every pixel whose center lies within r of c.
func (b *Buffer) FillDisc(c geometry.Point2D, r float64) {
	b.FillCapsule(c, c, r)
}

// FillCapsule marks every pixel whose center lies within r of segment a-b.
func (b *Buffer) FillCapsule(a, c geometry.Point2D, r float64) {
	r = math.Max(r, minRadius)
	w, h := b.Width(), b.Height()

	x0 := max(int(math.Floor(math.Min(a.X, c.X)-r)), 0)
	y0 := max(int(math.Floor(math.Min(a.Y, c.Y)-r)), 0)
	x1 := min(int(math.Ceil(math.Max(a.X, c.X)+r)), w-1)
	y1 := min(int(math.Ceil(math.Max(a.Y, c.Y)+r)), h-1)

	for y := y0; y <= y1; y++ {
		row := b.img.Pix[y*b.img.Stride:]
		for x := x0; x <= x1; x++ {
			if row[x] == colorutil.MaskOn.Y {
				continue
			}
			center := geometry.Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if geometry.DistanceToSegment(center, a, c) <= r {
				row[x] = colorutil.MaskOn.Y
			}
		}
	}
}

// Count returns the number of marked pixels.
func (b *Buffer) Count() int {
	n := 0
	for _, v := range b.img.Pix {
		if colorutil.IsMaskOn(v) {
			n++
		}
	}
	return n
}

// Coverage returns the marked fraction of the buffer.
func (b *Buffer) Coverage() float64 {
	total := b.Width() * b.Height()
	if total == 0 {
		return 0
	}
	return float64(b.Count()) / float64(total)
}

// Equal reports whether two buffers have identical size and contents.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.Width() != other.Width() || b.Height() != other.Height() {
		return false
	}
	for y := 0; y < b.Height(); y++ {
		r1 := b.img.Pix[y*b.img.Stride : y*b.img.Stride+b.Width()]
		r2 := other.img.Pix[y*other.img.Stride : y*other.img.Stride+other.Width()]
		for i := range r1 {
			if r1[i] != r2[i] {
				return false
			}
		}
	}
	return true
}

// BufferPair is the display and native buffer for one photo at one display
// size. ScaleFactor is native pixels per display pixel and is fixed for the
// life of the pair.
type BufferPair struct {
	Display     *Buffer
	Native      *Buffer
	ScaleFactor float64
}

// DisplayHeight derives the display height from the display width so both
// buffers share one scale factor.
func DisplayHeight(nativeW, nativeH, displayW int) int {
	if displayW <= 0 || nativeW <= 0 {
		return 0
	}
	scale := float64(nativeW) / float64(displayW)
	return max(int(math.Round(float64(nativeH)/scale)), 1)
}

// NewBufferPair allocates cleared buffers for a native image and display width.
func NewBufferPair(nativeW, nativeH, displayW int) *BufferPair {
	displayH := DisplayHeight(nativeW, nativeH, displayW)
	scale := 0.0
	if displayW > 0 {
		scale = float64(nativeW) / float64(displayW)
	}
	return &BufferPair{
		Display:     NewBuffer(displayW, displayH),
		Native:      NewBuffer(nativeW, nativeH),
		ScaleFactor: scale,
	}
}

// Clear resets both buffers.
func (p *BufferPair) Clear() {
	p.Display.Clear()
	p.Native.Clear()
}

// stamp draws one segment (a disc when a == c) given in native coordinates
// into both buffers. The display brush is derived from the native one.
func (p *BufferPair) stamp(a, c geometry.Point2D, brushNative float64) {
	p.Native.FillCapsule(a, c, brushNative/2)
	if p.ScaleFactor <= 0 {
		return
	}
	inv := 1 / p.ScaleFactor
	p.Display.FillCapsule(a.Scale(inv), c.Scale(inv), brushNative*inv/2)
}
