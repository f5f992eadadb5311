package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"room-stager/internal/app"
	"room-stager/internal/pointer"
	"room-stager/pkg/geometry"

	"gopkg.in/yaml.v3"
)

// strokeScript lists brush strokes in display coordinates. JSON is accepted
// as well as YAML.
type strokeScript struct {
	DisplayWidth int            `yaml:"display_width"`
	Strokes      []scriptStroke `yaml:"strokes"`
}

type scriptStroke struct {
	Brush  float64            `yaml:"brush"`
	Points []geometry.Point2D `yaml:"points"`
}

// gestureScript lists pointer events against the placement container.
type gestureScript struct {
	Events []scriptEvent `yaml:"events"`
}

type scriptEvent struct {
	Pointer int     `yaml:"pointer"`
	Phase   string  `yaml:"phase"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Wheel   float64 `yaml:"wheel"`
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadStrokes(path string) (*strokeScript, error) {
	var s strokeScript
	if err := readYAML(path, &s); err != nil {
		return nil, err
	}
	for i, st := range s.Strokes {
		if len(st.Points) == 0 {
			return nil, fmt.Errorf("stroke %d has no points", i)
		}
	}
	return &s, nil
}

func loadGestures(path string) (*gestureScript, error) {
	var g gestureScript
	if err := readYAML(path, &g); err != nil {
		return nil, err
	}
	for i, ev := range g.Events {
		if ev.Phase == "wheel" {
			continue
		}
		if _, err := parsePhase(ev.Phase); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return &g, nil
}

func parsePhase(s string) (pointer.Phase, error) {
	for p := pointer.PhaseDown; p <= pointer.PhaseClick; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// parseSize parses "WxH".
func parseSize(s string) (geometry.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return geometry.Size{}, fmt.Errorf("invalid size %q, want WxH", s)
	}
	wf, err1 := strconv.ParseFloat(w, 64)
	hf, err2 := strconv.ParseFloat(h, 64)
	if err1 != nil || err2 != nil || wf <= 0 || hf <= 0 {
		return geometry.Size{}, fmt.Errorf("invalid size %q, want WxH", s)
	}
	return geometry.NewSize(wf, hf), nil
}

// paintStrokes replays a stroke script through the session's mask canvas.
// The canvas is sized so the photo fills it at the script's display width.
func paintStrokes(s *app.Session, script *strokeScript, displayWidth int) {
	if script.DisplayWidth > 0 {
		displayWidth = script.DisplayWidth
	}
	photo := s.Photo()
	h := float64(photo.Height()) * float64(displayWidth) / float64(photo.Width())
	s.SetMaskCanvas(geometry.NewRect(0, 0, float64(displayWidth), h))

	brush := s.BrushSize()
	// Strokes are separated in time so no release reads as a click.
	at := time.Unix(0, 0)
	for _, st := range script.Strokes {
		if st.Brush > 0 {
			s.SetBrushSize(st.Brush)
		} else {
			s.SetBrushSize(brush)
		}
		for i, p := range st.Points {
			phase := pointer.PhaseMove
			if i == 0 {
				phase = pointer.PhaseDown
			}
			s.HandleMaskPointer(pointer.Event{Phase: phase, X: p.X, Y: p.Y, Time: at})
		}
		last := st.Points[len(st.Points)-1]
		s.HandleMaskPointer(pointer.Event{Phase: pointer.PhaseUp, X: last.X, Y: last.Y, Time: at})
		at = at.Add(time.Second)
	}
	s.SetBrushSize(brush)
}

// playGestures feeds a gesture script to the placement engine.
func playGestures(s *app.Session, script *gestureScript) {
	at := time.Unix(0, 0)
	for _, ev := range script.Events {
		at = at.Add(16 * time.Millisecond)
		if ev.Phase == "wheel" {
			s.PlacementWheel(ev.Wheel)
			continue
		}
		phase, _ := parsePhase(ev.Phase)
		s.HandlePlacementPointer(pointer.Event{
			ID:    ev.Pointer,
			Kind:  pointer.KindTouch,
			Phase: phase,
			X:     ev.X,
			Y:     ev.Y,
			Time:  at,
		})
	}
}
