package image

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"room-stager/pkg/colorutil"
)

// Layer is one image placed into a composite at a destination rectangle.
type Layer struct {
	Image   image.Image
	Rect    image.Rectangle
	Opacity float64
}

// Composite stacks layers bottom to top.
type Composite struct {
	Width     int
	Height    int
	Layers    []Layer
	BackColor color.Color
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: colorutil.Letterbox,
	}
}

// AddLayer scales img into rect when rendering.
func (c *Composite) AddLayer(img image.Image, rect image.Rectangle, opacity float64) {
	c.Layers = append(c.Layers, Layer{Image: img, Rect: rect, Opacity: opacity})
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), image.NewUniform(c.BackColor), image.Point{}, draw.Src)

	for _, l := range c.Layers {
		if l.Image == nil || l.Rect.Empty() || l.Opacity <= 0 {
			continue
		}
		var opts *draw.Options
		if l.Opacity < 1 {
			opts = &draw.Options{DstMask: image.NewUniform(color.Alpha{A: uint8(l.Opacity * 255)})}
		}
		draw.CatmullRom.Scale(result, l.Rect, l.Image, l.Image.Bounds(), draw.Over, opts)
	}
	return result
}

// Preview composites product over the room photo inside rect, given in room
// pixel coordinates. Areas of rect outside the photo are clipped.
func Preview(room *NormalizedImage, product image.Image, rect image.Rectangle) *image.RGBA {
	c := NewComposite(room.Width(), room.Height())
	c.AddLayer(room.Image(), image.Rect(0, 0, room.Width(), room.Height()), 1)
	if product != nil {
		c.AddLayer(product, rect, 1)
	}
	return c.Render()
}
