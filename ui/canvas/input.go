// Package canvas provides the fyne widgets for painting a cleanup mask and
// placing a product over a room photo.
package canvas

import (
	"time"

	"room-stager/internal/pointer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
)

// fyne delivers one mouse stream and one touch stream per window.
const (
	mouseID = 0
	touchID = 1
)

// pointerInput converts fyne input callbacks into pointer events. Widgets
// embed it to pick up the desktop.Mouseable, desktop.Hoverable,
// fyne.Draggable and mobile.Touchable methods.
type pointerInput struct {
	sink func(pointer.Event)
	now  func() time.Time

	active int
	kind   pointer.Kind
	down   bool
	last   fyne.Position
}

func newPointerInput(sink func(pointer.Event)) *pointerInput {
	return &pointerInput{sink: sink, now: time.Now, kind: pointer.KindMouse}
}

func (in *pointerInput) emit(id int, kind pointer.Kind, phase pointer.Phase, pos fyne.Position) {
	in.sink(pointer.Event{
		ID:    id,
		Kind:  kind,
		Phase: phase,
		X:     float64(pos.X),
		Y:     float64(pos.Y),
		Time:  in.now(),
	})
}

func (in *pointerInput) press(id int, kind pointer.Kind, pos fyne.Position) {
	if in.down {
		// A second stream while one is active; report it so multi-pointer
		// consumers can see it, without changing the tracked stream.
		in.emit(id, kind, pointer.PhaseDown, pos)
		return
	}
	in.active, in.kind, in.down, in.last = id, kind, true, pos
	in.emit(id, kind, pointer.PhaseDown, pos)
}

func (in *pointerInput) drag(pos fyne.Position) {
	if !in.down {
		return
	}
	in.last = pos
	in.emit(in.active, in.kind, pointer.PhaseMove, pos)
}

func (in *pointerInput) release(id int, kind pointer.Kind, phase pointer.Phase, pos fyne.Position) {
	if !in.down || id != in.active {
		in.emit(id, kind, phase, pos)
		return
	}
	in.down = false
	in.emit(id, in.kind, phase, pos)
}

// MouseDown implements desktop.Mouseable.
func (in *pointerInput) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	in.press(mouseID, pointer.KindMouse, ev.Position)
}

// MouseUp implements desktop.Mouseable.
func (in *pointerInput) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	in.release(mouseID, pointer.KindMouse, pointer.PhaseUp, ev.Position)
}

// MouseIn implements desktop.Hoverable.
func (in *pointerInput) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable. fyne reports button-down motion
// through Dragged, so plain hover is ignored.
func (in *pointerInput) MouseMoved(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (in *pointerInput) MouseOut() {
	if in.down && in.kind == pointer.KindMouse {
		in.release(mouseID, pointer.KindMouse, pointer.PhaseLeave, in.last)
	}
}

// Dragged implements fyne.Draggable.
func (in *pointerInput) Dragged(ev *fyne.DragEvent) {
	in.drag(ev.Position)
}

// DragEnd implements fyne.Draggable.
func (in *pointerInput) DragEnd() {
	if in.down {
		in.release(in.active, in.kind, pointer.PhaseUp, in.last)
	}
}

// TouchDown implements mobile.Touchable.
func (in *pointerInput) TouchDown(ev *mobile.TouchEvent) {
	in.press(touchID, pointer.KindTouch, ev.Position)
}

// TouchUp implements mobile.Touchable.
func (in *pointerInput) TouchUp(ev *mobile.TouchEvent) {
	in.release(touchID, pointer.KindTouch, pointer.PhaseUp, ev.Position)
}

// TouchCancel implements mobile.Touchable.
func (in *pointerInput) TouchCancel(ev *mobile.TouchEvent) {
	in.release(touchID, pointer.KindTouch, pointer.PhaseCancel, ev.Position)
}
