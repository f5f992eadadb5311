package pointer

import (
	"time"

	"go.uber.org/zap"

	"room-stager/internal/logger"
	"room-stager/pkg/geometry"
)

// DefaultClickCooldown suppresses the click a browser or toolkit synthesizes
// right after a drawing stroke.
const DefaultClickCooldown = 300 * time.Millisecond

// ActionKind tells the mask editor what to do with an event.
type ActionKind int

const (
	ActionIgnored ActionKind = iota
	ActionBegin
	ActionExtend
	ActionEnd
	ActionClick
	ActionSuppressClick
)

func (k ActionKind) String() string {
	switch k {
	case ActionIgnored:
		return "ignored"
	case ActionBegin:
		return "begin"
	case ActionExtend:
		return "extend"
	case ActionEnd:
		return "end"
	case ActionClick:
		return "click"
	case ActionSuppressClick:
		return "suppress-click"
	default:
		return "unknown"
	}
}

// Action is the router's decision for one event. Point is in native image
// coordinates and is only meaningful for Begin, Extend and Click.
type Action struct {
	Kind  ActionKind
	Point geometry.Point2D
}

// Router owns pointer capture for one canvas. At most one pointer draws at a
// time; events from any other pointer are ignored until it is released.
type Router struct {
	layout   Layout
	cooldown time.Duration
	logger   *zap.Logger

	captured  bool
	captureID int
	lastEnd   time.Time
}

// NewRouter creates a Router. A zero cooldown selects DefaultClickCooldown.
func NewRouter(cooldown time.Duration, l *zap.Logger) *Router {
	if cooldown <= 0 {
		cooldown = DefaultClickCooldown
	}
	return &Router{cooldown: cooldown, logger: logger.OrNop(l)}
}

// SetLayout updates the container and native size.
func (r *Router) SetLayout(l Layout) {
	r.layout = l
}

// Layout returns the current layout.
func (r *Router) Layout() Layout {
	return r.layout
}

// Capturing reports whether a pointer is currently captured.
func (r *Router) Capturing() bool {
	return r.captured
}

// Reset drops any capture, e.g. when the photo changes mid-stroke.
func (r *Router) Reset() {
	r.captured = false
}

// Handle routes one event.
func (r *Router) Handle(ev Event) Action {
	switch ev.Phase {
	case PhaseDown:
		if r.captured {
			return Action{Kind: ActionIgnored}
		}
		m := r.layout.Map(ev.X, ev.Y)
		if !m.Valid {
			return Action{Kind: ActionIgnored}
		}
		r.captured = true
		r.captureID = ev.ID
		r.logger.Debug("pointer captured", zap.Int("id", ev.ID), zap.Stringer("kind", ev.Kind))
		return Action{Kind: ActionBegin, Point: m.Point}

	case PhaseMove:
		if !r.captured || ev.ID != r.captureID {
			return Action{Kind: ActionIgnored}
		}
		m := r.layout.Map(ev.X, ev.Y)
		if !m.Valid {
			return Action{Kind: ActionIgnored}
		}
		return Action{Kind: ActionExtend, Point: m.Point}

	case PhaseUp, PhaseCancel, PhaseLeave:
		if !r.captured || ev.ID != r.captureID {
			return Action{Kind: ActionIgnored}
		}
		r.captured = false
		r.lastEnd = ev.Time
		r.logger.Debug("pointer released", zap.Int("id", ev.ID), zap.Stringer("phase", ev.Phase))
		return Action{Kind: ActionEnd}

	case PhaseClick:
		if !r.lastEnd.IsZero() && ev.Time.Sub(r.lastEnd) < r.cooldown {
			return Action{Kind: ActionSuppressClick}
		}
		m := r.layout.Map(ev.X, ev.Y)
		if !m.Valid {
			return Action{Kind: ActionIgnored}
		}
		return Action{Kind: ActionClick, Point: m.Point}
	}
	return Action{Kind: ActionIgnored}
}
