package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitContain(t *testing.T) {
	tests := []struct {
		name      string
		container Rect
		content   Size
		want      Rect
	}{
		{
			name:      "wider image is letterboxed",
			container: NewRect(0, 0, 400, 400),
			content:   NewSize(2048, 1024),
			want:      NewRect(0, 100, 400, 200),
		},
		{
			name:      "taller image is pillarboxed",
			container: NewRect(10, 20, 400, 300),
			content:   NewSize(1000, 1500),
			want:      NewRect(110, 20, 200, 300),
		},
		{
			name:      "same aspect fills container",
			container: NewRect(0, 0, 800, 600),
			content:   NewSize(2048, 1536),
			want:      NewRect(0, 0, 800, 600),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitContain(tt.container, tt.content)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
		})
	}
}

func TestFitContainDegenerate(t *testing.T) {
	got := FitContain(NewRect(5, 5, 0, 100), NewSize(10, 10))
	assert.True(t, got.Empty())
}

func TestRectToRectRoundTrip(t *testing.T) {
	src := NewRect(40, 25, 500, 375)
	dst := NewRect(0, 0, 2048, 1536)

	fwd := RectToRect(src, dst)
	inv, ok := fwd.Inverse()
	require.True(t, ok)

	p := NewPoint2D(123.5, 301.25)
	mapped := fwd.Apply(p)
	back := inv.Apply(mapped)

	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
	assert.InDelta(t, 0.0, fwd.Apply(src.TopLeft()).X, 1e-9)
	assert.InDelta(t, 1536.0, fwd.Apply(src.BottomRight()).Y, 1e-9)
}

func TestDistanceToSegment(t *testing.T) {
	a := NewPoint2D(0, 0)
	b := NewPoint2D(10, 0)

	assert.InDelta(t, 5.0, DistanceToSegment(NewPoint2D(5, 5), a, b), 1e-9)
	assert.InDelta(t, 5.0, DistanceToSegment(NewPoint2D(-3, 4), a, b), 1e-9)
	assert.InDelta(t, math.Sqrt2, DistanceToSegment(NewPoint2D(1, 1), a, a), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.25, Clamp(0.25, 0, 1))
}
