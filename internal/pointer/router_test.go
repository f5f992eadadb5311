package pointer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-stager/pkg/geometry"
)

// 400x400 container showing a 2048x1024 image: box is (0,100)-(400,300).
func letterboxLayout() Layout {
	return Layout{
		Container: geometry.NewRect(0, 0, 400, 400),
		Native:    geometry.NewSize(2048, 1024),
	}
}

func TestMapRejectsLetterbox(t *testing.T) {
	l := letterboxLayout()

	tests := []struct {
		name  string
		x, y  float64
		valid bool
		want  geometry.Point2D
	}{
		{"top padding", 200, 50, false, geometry.Point2D{}},
		{"bottom padding", 200, 350, false, geometry.Point2D{}},
		{"box origin", 0, 100, true, geometry.Point2D{X: 0, Y: 0}},
		{"box center", 200, 200, true, geometry.Point2D{X: 1024, Y: 512}},
		{"box corner", 400, 300, true, geometry.Point2D{X: 2048, Y: 1024}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := l.Map(tt.x, tt.y)
			assert.Equal(t, tt.valid, m.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want.X, m.Point.X, 1e-9)
				assert.InDelta(t, tt.want.Y, m.Point.Y, 1e-9)
			}
		})
	}
}

func TestMapRoundTripWithinOnePixel(t *testing.T) {
	l := Layout{Container: geometry.NewRect(13, 7, 731, 529), Native: geometry.NewSize(2048, 1536)}
	box := l.ImageBox()
	for i := 0; i <= 20; i++ {
		for j := 0; j <= 20; j++ {
			x := box.X + box.Width*float64(i)/20
			y := box.Y + box.Height*float64(j)/20
			m := l.Map(x, y)
			require.True(t, m.Valid)
			back := l.Unmap(m.Point)
			assert.InDelta(t, x, back.X, 1)
			assert.InDelta(t, y, back.Y, 1)
		}
	}
}

func TestDisplaySize(t *testing.T) {
	l := Layout{Container: geometry.NewRect(0, 0, 800, 800), Native: geometry.NewSize(2048, 1536)}
	w, h := l.DisplaySize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.InDelta(t, 2.56, l.Scale(), 1e-9)

	w, h = Layout{}.DisplaySize()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestRouterCapture(t *testing.T) {
	r := NewRouter(0, nil)
	r.SetLayout(letterboxLayout())
	t0 := time.Unix(1000, 0)

	a := r.Handle(Event{ID: 1, Phase: PhaseDown, X: 100, Y: 150, Time: t0})
	require.Equal(t, ActionBegin, a.Kind)
	assert.InDelta(t, 512.0, a.Point.X, 1e-9)
	assert.True(t, r.Capturing())

	// Second finger is ignored while the first one draws.
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 2, Phase: PhaseDown, X: 200, Y: 200}).Kind)
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 2, Phase: PhaseMove, X: 210, Y: 200}).Kind)
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 2, Phase: PhaseUp, X: 210, Y: 200}).Kind)

	assert.Equal(t, ActionExtend, r.Handle(Event{ID: 1, Phase: PhaseMove, X: 120, Y: 150}).Kind)
	// Moving into the letterbox drops the point but keeps the stroke.
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 1, Phase: PhaseMove, X: 120, Y: 50}).Kind)
	assert.True(t, r.Capturing())
	assert.Equal(t, ActionExtend, r.Handle(Event{ID: 1, Phase: PhaseMove, X: 130, Y: 150}).Kind)

	assert.Equal(t, ActionEnd, r.Handle(Event{ID: 1, Phase: PhaseUp, X: 130, Y: 150, Time: t0}).Kind)
	assert.False(t, r.Capturing())
}

func TestRouterDownOutsideBoxDoesNotCapture(t *testing.T) {
	r := NewRouter(0, nil)
	r.SetLayout(letterboxLayout())
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 1, Phase: PhaseDown, X: 200, Y: 20}).Kind)
	assert.False(t, r.Capturing())
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 1, Phase: PhaseMove, X: 200, Y: 200}).Kind)
}

func TestRouterCancelAndLeaveEndStroke(t *testing.T) {
	for _, phase := range []Phase{PhaseCancel, PhaseLeave} {
		t.Run(phase.String(), func(t *testing.T) {
			r := NewRouter(0, nil)
			r.SetLayout(letterboxLayout())
			r.Handle(Event{ID: 7, Kind: KindTouch, Phase: PhaseDown, X: 200, Y: 200})
			assert.Equal(t, ActionEnd, r.Handle(Event{ID: 7, Kind: KindTouch, Phase: phase}).Kind)
			assert.False(t, r.Capturing())
		})
	}
}

func TestRouterClickCooldown(t *testing.T) {
	r := NewRouter(300*time.Millisecond, nil)
	r.SetLayout(letterboxLayout())
	t0 := time.Unix(2000, 0)

	r.Handle(Event{ID: 1, Phase: PhaseDown, X: 200, Y: 200, Time: t0})
	r.Handle(Event{ID: 1, Phase: PhaseUp, X: 200, Y: 200, Time: t0.Add(50 * time.Millisecond)})

	a := r.Handle(Event{ID: 1, Phase: PhaseClick, X: 200, Y: 200, Time: t0.Add(100 * time.Millisecond)})
	assert.Equal(t, ActionSuppressClick, a.Kind)

	a = r.Handle(Event{ID: 1, Phase: PhaseClick, X: 200, Y: 200, Time: t0.Add(500 * time.Millisecond)})
	assert.Equal(t, ActionClick, a.Kind)
}

func TestRouterReset(t *testing.T) {
	r := NewRouter(0, nil)
	r.SetLayout(letterboxLayout())
	r.Handle(Event{ID: 1, Phase: PhaseDown, X: 200, Y: 200})
	r.Reset()
	assert.False(t, r.Capturing())
	assert.Equal(t, ActionIgnored, r.Handle(Event{ID: 1, Phase: PhaseUp}).Kind)
}
