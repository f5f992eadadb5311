package canvas

import (
	"image"
	"image/color"

	"room-stager/internal/app"
	"room-stager/internal/logger"
	"room-stager/internal/pointer"
	"room-stager/pkg/colorutil"
	"room-stager/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

// PlacementCanvas shows the room photo with a draggable, resizable product
// overlay on top.
type PlacementCanvas struct {
	widget.BaseWidget
	*pointerInput

	session *app.Session
	logger  *zap.Logger

	background *fynecanvas.Rectangle
	room       *fynecanvas.Image
	product    *fynecanvas.Image
	outline    *fynecanvas.Rectangle
	handle     *fynecanvas.Rectangle
}

// NewPlacementCanvas creates a placement canvas bound to a session.
func NewPlacementCanvas(s *app.Session, l *zap.Logger) *PlacementCanvas {
	pc := &PlacementCanvas{
		session:    s,
		logger:     logger.OrNop(l).Named("placement_canvas"),
		background: fynecanvas.NewRectangle(colorutil.Letterbox),
		room:       &fynecanvas.Image{FillMode: fynecanvas.ImageFillContain},
		product:    &fynecanvas.Image{FillMode: fynecanvas.ImageFillStretch},
	}
	pc.outline = fynecanvas.NewRectangle(color.Transparent)
	pc.outline.StrokeColor = colorutil.Cyan
	pc.outline.StrokeWidth = 1
	pc.handle = fynecanvas.NewRectangle(colorutil.White)
	pc.handle.StrokeColor = colorutil.Black
	pc.handle.StrokeWidth = 1

	pc.pointerInput = newPointerInput(pc.route)
	pc.ExtendBaseWidget(pc)

	s.On(app.EventPhotoLoaded, func(interface{}) { pc.Refresh() })
	s.On(app.EventPlacementChanged, func(interface{}) { pc.Refresh() })
	return pc
}

// SetProduct sets the product image drawn in the overlay.
func (pc *PlacementCanvas) SetProduct(img image.Image) {
	pc.product.Image = img
	pc.Refresh()
}

func (pc *PlacementCanvas) route(ev pointer.Event) {
	pc.session.HandlePlacementPointer(ev)
}

// Scrolled implements fyne.Scrollable. Each notch scales the overlay by one
// wheel step.
func (pc *PlacementCanvas) Scrolled(ev *fyne.ScrollEvent) {
	dy := float64(ev.Scrolled.DY)
	switch {
	case dy > 0:
		dy = 1
	case dy < 0:
		dy = -1
	}
	pc.session.PlacementWheel(dy)
}

// MinSize returns the minimum canvas size.
func (pc *PlacementCanvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

// CreateRenderer implements fyne.Widget.
func (pc *PlacementCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &placementCanvasRenderer{canvas: pc}
}

type placementCanvasRenderer struct {
	canvas *PlacementCanvas
}

func (r *placementCanvasRenderer) Layout(size fyne.Size) {
	pc := r.canvas
	pc.background.Resize(size)
	pc.room.Resize(size)
	pc.session.SetPlacementContainer(geometry.NewRect(0, 0, float64(size.Width), float64(size.Height)))
	r.layoutOverlay()
}

// layoutOverlay positions the product, its outline and the resize handle.
func (r *placementCanvasRenderer) layoutOverlay() {
	pc := r.canvas
	_, rect := pc.session.Placement()
	pos, size := toFyne(rect)
	pc.product.Move(pos)
	pc.product.Resize(size)
	pc.outline.Move(pos)
	pc.outline.Resize(size)

	hp, hsz := toFyne(pc.session.PlacementHandle())
	pc.handle.Move(hp)
	pc.handle.Resize(hsz)
}

func toFyne(r geometry.Rect) (fyne.Position, fyne.Size) {
	return fyne.NewPos(float32(r.X), float32(r.Y)), fyne.NewSize(float32(r.Width), float32(r.Height))
}

func (r *placementCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *placementCanvasRenderer) Refresh() {
	pc := r.canvas
	if photo := pc.session.Photo(); photo != nil && pc.room.Image != photo.Image() {
		pc.room.Image = photo.Image()
	}
	r.layoutOverlay()
	for _, o := range r.Objects() {
		o.Refresh()
	}
}

func (r *placementCanvasRenderer) Objects() []fyne.CanvasObject {
	pc := r.canvas
	return []fyne.CanvasObject{pc.background, pc.room, pc.product, pc.outline, pc.handle}
}

func (r *placementCanvasRenderer) Destroy() {}
