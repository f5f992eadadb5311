package canvas

import (
	"image"
	"image/draw"
	"math"

	"room-stager/internal/app"
	roomimage "room-stager/internal/image"
	"room-stager/internal/logger"
	"room-stager/internal/mask"
	"room-stager/internal/pointer"
	"room-stager/pkg/colorutil"
	"room-stager/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

// MaskCanvas shows the room photo letterboxed in the widget and lets the
// user paint the cleanup mask over it.
type MaskCanvas struct {
	widget.BaseWidget
	*pointerInput

	session *app.Session
	raster  *fynecanvas.Raster
	logger  *zap.Logger

	// Scaled photo cache, rebuilt when the photo or the box size changes.
	cachePhoto *roomimage.NormalizedImage
	cacheSize  image.Point
	cache      *image.RGBA
}

// NewMaskCanvas creates a mask canvas bound to a session.
func NewMaskCanvas(s *app.Session, l *zap.Logger) *MaskCanvas {
	mc := &MaskCanvas{
		session: s,
		logger:  logger.OrNop(l).Named("mask_canvas"),
	}
	mc.pointerInput = newPointerInput(mc.route)
	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.ExtendBaseWidget(mc)

	refresh := func(interface{}) { mc.raster.Refresh() }
	s.On(app.EventMaskChanged, refresh)
	s.On(app.EventPhotoLoaded, refresh)
	return mc
}

func (mc *MaskCanvas) route(ev pointer.Event) {
	a := mc.session.HandleMaskPointer(ev)
	if a.Kind == pointer.ActionSuppressClick {
		mc.logger.Debug("click after stroke suppressed")
	}
}

// Tapped implements fyne.Tappable.
func (mc *MaskCanvas) Tapped(ev *fyne.PointEvent) {
	mc.emit(mouseID, pointer.KindMouse, pointer.PhaseClick, ev.Position)
}

// MinSize returns the minimum canvas size.
func (mc *MaskCanvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

// draw is the raster drawing function. w and h are in device pixels.
func (mc *MaskCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(output, output.Bounds(), image.NewUniform(colorutil.Letterbox), image.Point{}, draw.Src)

	photo := mc.session.Photo()
	size := mc.Size()
	if photo == nil || w <= 0 || h <= 0 || size.Width <= 0 {
		return output
	}

	// Layout is kept in fyne units; the raster may be denser.
	pxPerUnit := float64(w) / float64(size.Width)
	box := mc.session.MaskLayout().ImageBox()
	dst := image.Rect(
		int(math.Round(box.X*pxPerUnit)),
		int(math.Round(box.Y*pxPerUnit)),
		int(math.Round((box.X+box.Width)*pxPerUnit)),
		int(math.Round((box.Y+box.Height)*pxPerUnit)),
	).Intersect(output.Bounds())
	if dst.Empty() {
		return output
	}

	draw.Draw(output, dst, mc.scaledPhoto(photo, dst.Size()), image.Point{}, draw.Src)
	mc.session.WithMask(func(pair *mask.BufferPair, _ int) {
		if pair != nil {
			tintMask(output, dst, pair.Display.Gray())
		}
	})
	return output
}

func (mc *MaskCanvas) scaledPhoto(photo *roomimage.NormalizedImage, size image.Point) *image.RGBA {
	if mc.cache != nil && mc.cachePhoto == photo && mc.cacheSize == size {
		return mc.cache
	}
	scaled := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), photo.Image(), photo.Image().Bounds(), xdraw.Src, nil)
	mc.cachePhoto, mc.cacheSize, mc.cache = photo, size, scaled
	return scaled
}

// tintMask blends the brush tint over dst wherever the display mask is set.
// The mask is sampled nearest-neighbour across the box.
func tintMask(output *image.RGBA, dst image.Rectangle, display *image.Gray) {
	mw, mh := display.Rect.Dx(), display.Rect.Dy()
	if mw == 0 || mh == 0 {
		return
	}
	bw, bh := dst.Dx(), dst.Dy()
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		my := min((y-dst.Min.Y)*mh/bh, mh-1)
		for x := dst.Min.X; x < dst.Max.X; x++ {
			mx := min((x-dst.Min.X)*mw/bw, mw-1)
			if !colorutil.IsMaskOn(display.GrayAt(mx, my).Y) {
				continue
			}
			output.SetRGBA(x, y, colorutil.BlendOver(output.RGBAAt(x, y), colorutil.BrushTint))
		}
	}
}

// CreateRenderer implements fyne.Widget.
func (mc *MaskCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &maskCanvasRenderer{canvas: mc}
}

type maskCanvasRenderer struct {
	canvas *MaskCanvas
}

func (r *maskCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	r.canvas.session.SetMaskCanvas(geometry.NewRect(0, 0, float64(size.Width), float64(size.Height)))
}

func (r *maskCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *maskCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *maskCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *maskCanvasRenderer) Destroy() {}
