package image

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AspectRatio is a named width:height ratio.
type AspectRatio struct {
	Label string
	W, H  int
}

// Value returns W/H.
func (r AspectRatio) Value() float64 {
	return float64(r.W) / float64(r.H)
}

func (r AspectRatio) String() string {
	return r.Label
}

// SupportedRatios is the ordered candidate list. Order matters for ties.
var SupportedRatios = []AspectRatio{
	{Label: "1:1", W: 1, H: 1},
	{Label: "4:3", W: 4, H: 3},
	{Label: "3:4", W: 3, H: 4},
	{Label: "3:2", W: 3, H: 2},
	{Label: "2:3", W: 2, H: 3},
	{Label: "16:9", W: 16, H: 9},
	{Label: "9:16", W: 9, H: 16},
}

// ParseRatio parses "W:H".
func ParseRatio(s string) (AspectRatio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio height in %q", s)
	}
	return AspectRatio{Label: fmt.Sprintf("%d:%d", w, h), W: w, H: h}, nil
}

// ParseRatios parses a list of labels, keeping order.
func ParseRatios(labels []string) ([]AspectRatio, error) {
	out := make([]AspectRatio, 0, len(labels))
	for _, l := range labels {
		r, err := ParseRatio(l)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ClosestRatio returns the candidate minimizing |width/height - candidate|.
// Ties keep the earlier candidate.
func ClosestRatio(width, height int, candidates []AspectRatio) AspectRatio {
	if len(candidates) == 0 {
		candidates = SupportedRatios
	}
	in := float64(width) / float64(height)
	best := candidates[0]
	bestDiff := math.Abs(in - best.Value())
	for _, c := range candidates[1:] {
		if d := math.Abs(in - c.Value()); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best
}

// cropSize returns the largest width x height with the given ratio that fits
// in w x h.
func cropSize(w, h int, r AspectRatio) (int, int) {
	if float64(w)*float64(r.H) > float64(h)*float64(r.W) {
		cw := int(math.Round(float64(h) * float64(r.W) / float64(r.H)))
		return max(1, min(cw, w)), h
	}
	ch := int(math.Round(float64(w) * float64(r.H) / float64(r.W)))
	return w, max(1, min(ch, h))
}

// targetSize derives output dimensions from the ratio so that the long side
// is at most maxDim. Sizes already within bounds are kept.
func targetSize(cw, ch, maxDim int, r AspectRatio) (int, int) {
	if maxDim <= 0 || max(cw, ch) <= maxDim {
		return cw, ch
	}
	if r.W >= r.H {
		h := int(math.Round(float64(maxDim) * float64(r.H) / float64(r.W)))
		return maxDim, max(1, h)
	}
	w := int(math.Round(float64(maxDim) * float64(r.W) / float64(r.H)))
	return max(1, w), maxDim
}
