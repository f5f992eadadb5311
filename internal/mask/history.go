package mask

// History is the ordered list of completed strokes. It is the source of
// truth for the mask; buffers are always derivable by replaying it.
type History struct {
	strokes []Stroke
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// Push appends a completed stroke.
func (h *History) Push(s Stroke) {
	h.strokes = append(h.strokes, s)
}

// Undo removes and returns the most recent stroke.
func (h *History) Undo() (Stroke, bool) {
	if len(h.strokes) == 0 {
		return Stroke{}, false
	}
	last := h.strokes[len(h.strokes)-1]
	h.strokes = h.strokes[:len(h.strokes)-1]
	return last, true
}

// Clear removes all strokes.
func (h *History) Clear() {
	h.strokes = nil
}

// Len returns the number of strokes.
func (h *History) Len() int {
	return len(h.strokes)
}

// Strokes returns a copy of the stroke list.
func (h *History) Strokes() []Stroke {
	return cloneStrokes(h.strokes)
}

// Replay clears pair and redraws every stroke in order.
func (h *History) Replay(pair *BufferPair) {
	if pair == nil {
		return
	}
	pair.Clear()
	for _, s := range h.strokes {
		s.Draw(pair)
	}
}

// Snapshot captures the stroke list for a later Restore.
func (h *History) Snapshot() []Stroke {
	return cloneStrokes(h.strokes)
}

// Restore replaces the stroke list with a snapshot.
func (h *History) Restore(snapshot []Stroke) {
	h.strokes = cloneStrokes(snapshot)
}

func cloneStrokes(in []Stroke) []Stroke {
	if len(in) == 0 {
		return nil
	}
	out := make([]Stroke, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
