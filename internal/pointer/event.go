// Package pointer translates mouse, touch and pen input into a single event
// stream and maps client coordinates onto a letterboxed image.
package pointer

import (
	"math"
	"time"

	"room-stager/pkg/geometry"
)

// Kind identifies the input device.
type Kind int

const (
	KindMouse Kind = iota
	KindTouch
	KindPen
)

func (k Kind) String() string {
	switch k {
	case KindMouse:
		return "mouse"
	case KindTouch:
		return "touch"
	case KindPen:
		return "pen"
	default:
		return "unknown"
	}
}

// Phase is the lifecycle stage of a pointer event.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseMove
	PhaseUp
	PhaseCancel
	PhaseLeave
	PhaseClick
)

func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhaseMove:
		return "move"
	case PhaseUp:
		return "up"
	case PhaseCancel:
		return "cancel"
	case PhaseLeave:
		return "leave"
	case PhaseClick:
		return "click"
	default:
		return "unknown"
	}
}

// Event is a device-independent pointer event in client coordinates.
type Event struct {
	ID    int
	Kind  Kind
	Phase Phase
	X, Y  float64
	Time  time.Time
}

// Pos returns the event position.
func (e Event) Pos() geometry.Point2D {
	return geometry.Point2D{X: e.X, Y: e.Y}
}

// Layout describes where an image of Native size is drawn inside Container.
type Layout struct {
	Container geometry.Rect
	Native    geometry.Size
}

// ImageBox returns the rendered image box inside the container.
func (l Layout) ImageBox() geometry.Rect {
	return geometry.FitContain(l.Container, l.Native)
}

// Scale returns native pixels per client pixel.
func (l Layout) Scale() float64 {
	box := l.ImageBox()
	if box.Width <= 0 {
		return 0
	}
	return l.Native.Width / box.Width
}

// Mapped is the result of mapping a client point.
type Mapped struct {
	Point geometry.Point2D
	Valid bool
}

// Map converts a client point to native image coordinates. Points in the
// padding around the image box are rejected.
func (l Layout) Map(x, y float64) Mapped {
	box := l.ImageBox()
	if box.Empty() {
		return Mapped{}
	}
	p := geometry.Point2D{X: x, Y: y}
	if !box.Contains(p) {
		return Mapped{}
	}
	s := l.Native.Width / box.Width
	return Mapped{
		Point: geometry.Point2D{X: (x - box.X) * s, Y: (y - box.Y) * s},
		Valid: true,
	}
}

// Unmap converts a native point back to client coordinates.
func (l Layout) Unmap(p geometry.Point2D) geometry.Point2D {
	box := l.ImageBox()
	if l.Native.Width <= 0 {
		return box.TopLeft()
	}
	s := box.Width / l.Native.Width
	return geometry.Point2D{X: box.X + p.X*s, Y: box.Y + p.Y*s}
}

// DisplaySize returns the integer display buffer size: the box width rounded,
// and the height derived from the shared scale factor so that both buffers
// agree on one factor.
func (l Layout) DisplaySize() (int, int) {
	box := l.ImageBox()
	w := int(math.Round(box.Width))
	if w <= 0 || l.Native.Width <= 0 {
		return 0, 0
	}
	scale := l.Native.Width / float64(w)
	h := int(math.Round(l.Native.Height / scale))
	return w, max(h, 1)
}
