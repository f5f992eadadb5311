package panels

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-stager/internal/app"
	"room-stager/internal/mask"
	"room-stager/internal/pointer"
	"room-stager/pkg/geometry"
	"room-stager/ui/canvas"
	"room-stager/ui/prefs"
)

func loadedSession(t *testing.T) *app.Session {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	s := app.New(nil, app.Options{}, nil)
	require.NoError(t, s.LoadPhoto(&buf))
	s.SetMaskCanvas(geometry.NewRect(0, 0, 400, 300))
	t.Cleanup(s.Close)
	return s
}

func stroke(s *app.Session, x, y float64) {
	now := time.Now()
	s.HandleMaskPointer(pointer.Event{Phase: pointer.PhaseDown, X: x, Y: y, Time: now})
	s.HandleMaskPointer(pointer.Event{Phase: pointer.PhaseMove, X: x + 10, Y: y, Time: now})
	s.HandleMaskPointer(pointer.Event{Phase: pointer.PhaseUp, X: x + 10, Y: y, Time: now})
}

func newMaskPanel(t *testing.T, s *app.Session) *MaskPanel {
	t.Helper()
	p := prefs.LoadFrom(t.TempDir())
	return NewMaskPanel(s, mask.Options{BrushMin: 4, BrushMax: 120}, p, nil)
}

func TestMaskPanelTracksStrokes(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	mp := newMaskPanel(t, s)
	assert.Equal(t, "No strokes", mp.strokesLabel.Text)
	assert.True(t, mp.undoButton.Disabled())

	stroke(s, 50, 50)
	stroke(s, 100, 100)
	assert.Equal(t, "2 strokes", mp.strokesLabel.Text)
	assert.False(t, mp.undoButton.Disabled())

	test.Tap(mp.undoButton)
	assert.Equal(t, 1, s.StrokeCount())
	assert.Equal(t, "1 stroke", mp.strokesLabel.Text)

	test.Tap(mp.clearButton)
	assert.Equal(t, 0, s.StrokeCount())
	assert.True(t, mp.clearButton.Disabled())
}

func TestMaskPanelBrush(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	mp := newMaskPanel(t, s)

	mp.onBrushChanged(50)
	assert.Equal(t, 50.0, s.BrushSize())
	assert.Equal(t, "Size: 50 px", mp.brushLabel.Text)

	mp.brushSlider.OnChangeEnded(50)
	assert.Equal(t, 50.0, mp.prefs.Float(prefs.KeyBrushSize, 0))
}

func TestMaskPanelEmptySubmit(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	mp := newMaskPanel(t, s)

	test.Tap(mp.submitButton)
	assert.Eventually(t, func() bool {
		return mp.statusLabel.Text == "Paint over the area to remove first"
	}, time.Second, 10*time.Millisecond)
}

func TestCleanupStatus(t *testing.T) {
	assert.Equal(t, "Marked area removed", cleanupStatus(app.CleanupOutcome{}))
	assert.Contains(t, cleanupStatus(app.CleanupOutcome{Err: assert.AnError, Restored: true}), "failed")
}

func newPlacementPanel(t *testing.T, s *app.Session) (*PlacementPanel, *canvas.PlacementCanvas) {
	t.Helper()
	pc := canvas.NewPlacementCanvas(s, nil)
	pc.Resize(fyne.NewSize(400, 300))
	pp := NewPlacementPanel(s, pc, prefs.LoadFrom(t.TempDir()), nil)
	return pp, pc
}

func TestPlacementPanelSetProduct(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	pp, _ := newPlacementPanel(t, s)

	product := image.NewNRGBA(image.Rect(0, 0, 50, 100))
	require.NoError(t, pp.SetProduct(product, "lamp.png"))
	assert.Equal(t, "lamp.png", pp.productLabel.Text)
	assert.Equal(t, "x 0.50  y 0.50  scale 1.00", pp.stateLabel.Text)

	payload, err := s.PlacementPayload()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, payload.X, 1e-9)
}

func TestPlacementPanelRenderNeedsProductID(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	pp, _ := newPlacementPanel(t, s)
	pp.productEntry.SetText("  ")

	test.Tap(pp.renderButton)
	assert.Equal(t, "Enter a product ID", pp.statusLabel.Text)
}

func TestPlacementPanelPreviewNeedsProduct(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	pp, _ := newPlacementPanel(t, s)

	pp.onPreview()
	assert.Equal(t, "Load a product image first", pp.statusLabel.Text)
}

func TestSidePanelSteps(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := loadedSession(t)
	mp := newMaskPanel(t, s)
	pp, _ := newPlacementPanel(t, s)
	sp := NewSidePanel(mp, pp)

	var got []Step
	sp.OnStep(func(step Step) { got = append(got, step) })

	assert.Equal(t, StepMask, sp.Step())
	sp.SelectStep(StepPlace)
	assert.Equal(t, StepPlace, sp.Step())
	assert.Equal(t, []Step{StepPlace}, got)
}
