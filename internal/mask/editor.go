package mask

import (
	"go.uber.org/zap"

	roomimage "room-stager/internal/image"
	"room-stager/internal/logger"
	"room-stager/pkg/geometry"
)

// State is the editor's initialization state.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// Brush limits in display pixels.
const (
	DefaultBrushSize = 24.0
	DefaultBrushMin  = 4.0
	DefaultBrushMax  = 120.0
)

// Options configures an Editor.
type Options struct {
	BrushSize float64
	BrushMin  float64
	BrushMax  float64
}

// Editor turns stroke input into the display and native buffers. It needs a
// photo (Load) and a display width (Resize) before it can draw; until both
// are known it is Uninitialized and drawing calls are no-ops.
//
// Editor is not safe for concurrent use.
type Editor struct {
	opts    Options
	brush   float64
	logger  *zap.Logger
	img     *roomimage.NormalizedImage
	width   int
	pair    *BufferPair
	history *History
	state   State
	current *Stroke
}

// NewEditor creates an Uninitialized editor.
func NewEditor(opts Options, l *zap.Logger) *Editor {
	if opts.BrushMin <= 0 {
		opts.BrushMin = DefaultBrushMin
	}
	if opts.BrushMax < opts.BrushMin {
		opts.BrushMax = max(DefaultBrushMax, opts.BrushMin)
	}
	if opts.BrushSize == 0 {
		opts.BrushSize = DefaultBrushSize
	}
	e := &Editor{
		opts:    opts,
		logger:  logger.OrNop(l),
		history: NewHistory(),
	}
	e.SetBrushSize(opts.BrushSize)
	return e
}

// State returns the initialization state.
func (e *Editor) State() State { return e.state }

// Drawing reports whether a stroke is in progress.
func (e *Editor) Drawing() bool { return e.current != nil }

// Image returns the loaded photo, or nil.
func (e *Editor) Image() *roomimage.NormalizedImage { return e.img }

// Pair returns the current buffers, or nil while Uninitialized.
func (e *Editor) Pair() *BufferPair { return e.pair }

// History returns the stroke history.
func (e *Editor) History() *History { return e.history }

// BrushSize returns the brush diameter in display pixels.
func (e *Editor) BrushSize() float64 { return e.brush }

// SetBrushSize sets the brush diameter in display pixels, clamped to the
// configured range.
func (e *Editor) SetBrushSize(size float64) {
	e.brush = geometry.Clamp(size, e.opts.BrushMin, e.opts.BrushMax)
}

// Load sets the photo and rebuilds the buffers. Existing strokes are kept
// and replayed.
func (e *Editor) Load(img *roomimage.NormalizedImage) {
	e.img = img
	e.reinit()
}

// Reset loads a new photo and discards all strokes.
func (e *Editor) Reset(img *roomimage.NormalizedImage) {
	e.history.Clear()
	e.current = nil
	e.Load(img)
}

// Resize sets the display width and rebuilds the buffers.
func (e *Editor) Resize(displayWidth int) {
	if displayWidth == e.width && e.state == StateReady {
		return
	}
	e.width = displayWidth
	e.reinit()
}

func (e *Editor) reinit() {
	if e.img == nil || e.width <= 0 {
		e.pair = nil
		e.state = StateUninitialized
		return
	}
	e.pair = NewBufferPair(e.img.Width(), e.img.Height(), e.width)
	e.history.Replay(e.pair)
	if e.current != nil {
		e.current.Draw(e.pair)
	}
	e.state = StateReady
	e.logger.Debug("mask buffers initialized",
		zap.Int("display_width", e.pair.Display.Width()),
		zap.Int("display_height", e.pair.Display.Height()),
		zap.Int("native_width", e.pair.Native.Width()),
		zap.Int("native_height", e.pair.Native.Height()),
		zap.Float64("scale", e.pair.ScaleFactor),
		zap.Int("strokes", e.history.Len()))
}

// ready attempts initialization if needed.
func (e *Editor) ready() bool {
	if e.state != StateReady {
		e.reinit()
	}
	return e.state == StateReady
}

// BeginStroke starts a stroke at p (native coordinates). An unfinished
// stroke is ended first.
func (e *Editor) BeginStroke(p geometry.Point2D) bool {
	if !e.ready() {
		return false
	}
	if e.current != nil {
		e.EndStroke()
	}
	s := NewStroke(p, e.brush*e.pair.ScaleFactor)
	e.current = &s
	e.pair.stamp(p, p, s.BrushSizeNative)
	return true
}

// ExtendStroke adds p (native coordinates) to the current stroke.
func (e *Editor) ExtendStroke(p geometry.Point2D) bool {
	if !e.ready() || e.current == nil {
		return false
	}
	prev := e.current.Points[len(e.current.Points)-1]
	e.current.Points = append(e.current.Points, p)
	e.pair.stamp(prev, p, e.current.BrushSizeNative)
	return true
}

// EndStroke seals the current stroke into the history.
func (e *Editor) EndStroke() bool {
	if e.current == nil {
		return false
	}
	e.history.Push(*e.current)
	e.logger.Debug("stroke completed",
		zap.Stringer("id", e.current.ID),
		zap.Int("points", len(e.current.Points)),
		zap.Float64("brush_native", e.current.BrushSizeNative))
	e.current = nil
	return true
}

// Undo removes the last stroke and rebuilds the buffers from the rest.
func (e *Editor) Undo() bool {
	if e.current != nil {
		return false
	}
	if _, ok := e.history.Undo(); !ok {
		return false
	}
	e.history.Replay(e.pair)
	return true
}

// Clear removes every stroke.
func (e *Editor) Clear() {
	e.history.Clear()
	e.current = nil
	if e.pair != nil {
		e.pair.Clear()
	}
}

// Snapshot captures the completed strokes.
func (e *Editor) Snapshot() []Stroke {
	return e.history.Snapshot()
}

// Restore replaces the strokes with a snapshot and redraws.
func (e *Editor) Restore(snapshot []Stroke) {
	e.current = nil
	e.history.Restore(snapshot)
	e.history.Replay(e.pair)
}

// Export encodes the native buffer.
func (e *Editor) Export() (*ExportedMask, error) {
	return Export(e.img, e.pair, e.history)
}
