// Package placement turns drag, resize-handle and pinch gestures on a product
// overlay into a normalized placement transform.
package placement

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"room-stager/internal/logger"
	"room-stager/internal/pointer"
	"room-stager/pkg/geometry"
)

// Defaults for Options.
const (
	DefaultScaleMin   = 0.2
	DefaultScaleMax   = 3.0
	DefaultBaseWidth  = 0.3
	DefaultHandleSize = 24.0
	DefaultWheelStep  = 1.1
)

// State is the overlay center as a fraction of the container, plus a scale
// multiplier on the base width.
type State struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Initial is the state when the placement screen opens.
var Initial = State{X: 0.5, Y: 0.5, Scale: 1.0}

// Target is what a press landed on.
type Target int

const (
	TargetNone Target = iota
	TargetBody
	TargetHandle
)

func (t Target) String() string {
	switch t {
	case TargetBody:
		return "body"
	case TargetHandle:
		return "handle"
	default:
		return "none"
	}
}

// Mode is the active gesture. Gestures are mutually exclusive.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrag
	ModeResize
	ModePinch
)

func (m Mode) String() string {
	switch m {
	case ModeDrag:
		return "drag"
	case ModeResize:
		return "resize"
	case ModePinch:
		return "pinch"
	default:
		return "idle"
	}
}

// Options configures an Engine.
type Options struct {
	ScaleMin   float64
	ScaleMax   float64
	BaseWidth  float64 // overlay width at Scale 1, as a fraction of the container width
	HandleSize float64 // resize handle side in client pixels
	WheelStep  float64
}

func (o Options) withDefaults() Options {
	if o.ScaleMin <= 0 {
		o.ScaleMin = DefaultScaleMin
	}
	if o.ScaleMax < o.ScaleMin {
		o.ScaleMax = math.Max(DefaultScaleMax, o.ScaleMin)
	}
	if o.BaseWidth <= 0 {
		o.BaseWidth = DefaultBaseWidth
	}
	if o.HandleSize <= 0 {
		o.HandleSize = DefaultHandleSize
	}
	if o.WheelStep <= 1 {
		o.WheelStep = DefaultWheelStep
	}
	return o
}

// Payload is the placement sent to the render service. X and Y are relative
// to the room photo's rendered box.
type Payload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Engine tracks the overlay state and the pointers touching it.
type Engine struct {
	opts      Options
	container geometry.Rect
	aspect    float64
	logger    *zap.Logger

	state    State
	pointers map[int]r2.Vec
	mode     Mode

	// gesture bookkeeping, valid while mode != ModeIdle
	primary    int
	pinchIDs   [2]int
	grab       r2.Vec
	origin     r2.Vec
	startDist  float64
	scaleStart float64
	before     State
}

// NewEngine creates an Engine in the initial state.
func NewEngine(opts Options, l *zap.Logger) *Engine {
	return &Engine{
		opts:     opts.withDefaults(),
		aspect:   1,
		logger:   logger.OrNop(l),
		state:    Initial,
		pointers: make(map[int]r2.Vec),
	}
}

// SetContainer sets the overlay container in client coordinates.
func (e *Engine) SetContainer(r geometry.Rect) {
	e.container = r
}

// Container returns the overlay container.
func (e *Engine) Container() geometry.Rect {
	return e.container
}

// SetProductAspect sets the product width/height ratio.
func (e *Engine) SetProductAspect(aspect float64) {
	if aspect > 0 {
		e.aspect = aspect
	}
}

// Reset returns to the initial state and drops all pointers.
func (e *Engine) Reset() {
	e.state = Initial
	e.mode = ModeIdle
	clear(e.pointers)
}

// State returns the current placement.
func (e *Engine) State() State { return e.state }

// SetState replaces the placement, clamping every field.
func (e *Engine) SetState(s State) {
	e.state = State{
		X:     geometry.Clamp(s.X, 0, 1),
		Y:     geometry.Clamp(s.Y, 0, 1),
		Scale: e.clampScale(s.Scale),
	}
}

// Mode returns the active gesture.
func (e *Engine) Mode() Mode { return e.mode }

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) clampScale(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return e.state.Scale
	}
	return geometry.Clamp(s, e.opts.ScaleMin, e.opts.ScaleMax)
}

func (e *Engine) center() r2.Vec {
	return r2.Vec{
		X: e.container.X + e.state.X*e.container.Width,
		Y: e.container.Y + e.state.Y*e.container.Height,
	}
}

// OverlayRect returns the product box in client coordinates.
func (e *Engine) OverlayRect() geometry.Rect {
	w := e.container.Width * e.opts.BaseWidth * e.state.Scale
	h := w / e.aspect
	c := e.center()
	return geometry.RectAround(geometry.Point2D{X: c.X, Y: c.Y}, w, h)
}

// HandleRect returns the resize handle, a square centered on the overlay's
// bottom-right corner.
func (e *Engine) HandleRect() geometry.Rect {
	return geometry.RectAround(e.OverlayRect().BottomRight(), e.opts.HandleSize, e.opts.HandleSize)
}

// HitTest reports what lies under p. The handle wins over the body.
func (e *Engine) HitTest(p geometry.Point2D) Target {
	if e.HandleRect().Contains(p) {
		return TargetHandle
	}
	if e.OverlayRect().Contains(p) {
		return TargetBody
	}
	return TargetNone
}

// Handle applies one pointer event and reports whether the state changed.
func (e *Engine) Handle(ev pointer.Event) bool {
	p := r2.Vec{X: ev.X, Y: ev.Y}
	switch ev.Phase {
	case pointer.PhaseDown:
		return e.down(ev.ID, p)
	case pointer.PhaseMove:
		return e.move(ev.ID, p)
	case pointer.PhaseUp, pointer.PhaseCancel, pointer.PhaseLeave:
		e.up(ev.ID)
	}
	return false
}

func (e *Engine) down(id int, p r2.Vec) bool {
	if _, ok := e.pointers[id]; !ok && len(e.pointers) >= 2 {
		return false
	}
	e.pointers[id] = p

	switch len(e.pointers) {
	case 1:
		e.primary = id
		e.before = e.state
		switch e.HitTest(geometry.Point2D{X: p.X, Y: p.Y}) {
		case TargetHandle:
			e.mode = ModeResize
			e.origin = r2.Sub(p, e.center())
			e.startDist = r2.Norm(e.origin)
			e.scaleStart = e.state.Scale
		case TargetBody:
			e.mode = ModeDrag
			e.grab = r2.Sub(p, e.center())
		default:
			e.mode = ModeIdle
		}
		e.logger.Debug("placement gesture started", zap.Stringer("mode", e.mode), zap.Int("pointer", id))
		return false

	case 2:
		changed := false
		if e.mode == ModeDrag || e.mode == ModeResize {
			changed = e.state != e.before
			e.state = e.before
		}
		ids := [2]int{}
		i := 0
		for pid := range e.pointers {
			ids[i] = pid
			i++
		}
		e.pinchIDs = ids
		e.startDist = r2.Norm(r2.Sub(e.pointers[ids[0]], e.pointers[ids[1]]))
		e.scaleStart = e.state.Scale
		e.mode = ModePinch
		e.logger.Debug("pinch started", zap.Float64("distance", e.startDist))
		return changed
	}
	return false
}

func (e *Engine) move(id int, p r2.Vec) bool {
	if _, ok := e.pointers[id]; !ok {
		return false
	}
	e.pointers[id] = p
	prev := e.state

	switch e.mode {
	case ModeDrag:
		if id != e.primary || e.container.Empty() {
			return false
		}
		e.state.X = geometry.Clamp((p.X-e.grab.X-e.container.X)/e.container.Width, 0, 1)
		e.state.Y = geometry.Clamp((p.Y-e.grab.Y-e.container.Y)/e.container.Height, 0, 1)

	case ModeResize:
		if id != e.primary || e.startDist == 0 {
			return false
		}
		d := r2.Norm(r2.Sub(p, e.center()))
		e.state.Scale = e.clampScale(e.scaleStart * d / e.startDist)

	case ModePinch:
		if e.startDist == 0 {
			return false
		}
		d := r2.Norm(r2.Sub(e.pointers[e.pinchIDs[0]], e.pointers[e.pinchIDs[1]]))
		e.state.Scale = e.clampScale(e.scaleStart * d / e.startDist)
	}
	return e.state != prev
}

func (e *Engine) up(id int) {
	if _, ok := e.pointers[id]; !ok {
		return
	}
	delete(e.pointers, id)

	switch e.mode {
	case ModePinch:
		if id == e.pinchIDs[0] || id == e.pinchIDs[1] {
			e.mode = ModeIdle
		}
	case ModeDrag, ModeResize:
		if id == e.primary {
			e.mode = ModeIdle
		}
	}
	if e.mode == ModeIdle {
		e.logger.Debug("placement gesture ended", zap.Float64("x", e.state.X),
			zap.Float64("y", e.state.Y), zap.Float64("scale", e.state.Scale))
	}
}

// Wheel scales the overlay by one step per notch; dy > 0 grows it.
func (e *Engine) Wheel(dy float64) bool {
	if dy == 0 || e.mode != ModeIdle {
		return false
	}
	prev := e.state.Scale
	if dy > 0 {
		e.state.Scale = e.clampScale(prev * e.opts.WheelStep)
	} else {
		e.state.Scale = e.clampScale(prev / e.opts.WheelStep)
	}
	return e.state.Scale != prev
}

// Payload converts the state into coordinates relative to roomBox, the
// rendered box of the room photo inside the container.
func (e *Engine) Payload(roomBox geometry.Rect) Payload {
	if roomBox.Empty() {
		return Payload{X: e.state.X, Y: e.state.Y, Scale: e.state.Scale}
	}
	c := e.center()
	return Payload{
		X:     geometry.Clamp((c.X-roomBox.X)/roomBox.Width, 0, 1),
		Y:     geometry.Clamp((c.Y-roomBox.Y)/roomBox.Height, 0, 1),
		Scale: e.state.Scale,
	}
}
