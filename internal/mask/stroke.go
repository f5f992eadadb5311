package mask

import (
	"github.com/google/uuid"

	"room-stager/pkg/geometry"
)

// Stroke is one press-to-release brush path in native image coordinates.
type Stroke struct {
	ID              uuid.UUID          `json:"id"`
	Points          []geometry.Point2D `json:"points"`
	BrushSizeNative float64            `json:"brushSizeNative"`
}

// NewStroke starts a stroke at p.
func NewStroke(p geometry.Point2D, brushNative float64) Stroke {
	return Stroke{
		ID:              uuid.New(),
		Points:          []geometry.Point2D{p},
		BrushSizeNative: brushNative,
	}
}

// Clone returns a deep copy.
func (s Stroke) Clone() Stroke {
	s.Points = append([]geometry.Point2D(nil), s.Points...)
	return s
}

// Draw renders the stroke into both buffers of pair: a disc at the first
// point and a capsule per segment. Live drawing emits the same primitives,
// so a replay reproduces the live result exactly.
func (s Stroke) Draw(pair *BufferPair) {
	if len(s.Points) == 0 {
		return
	}
	pair.stamp(s.Points[0], s.Points[0], s.BrushSizeNative)
	for i := 1; i < len(s.Points); i++ {
		pair.stamp(s.Points[i-1], s.Points[i], s.BrushSizeNative)
	}
}
