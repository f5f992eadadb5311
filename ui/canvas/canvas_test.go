package canvas

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"room-stager/internal/app"
	"room-stager/internal/logger"
	"room-stager/pkg/colorutil"
	"room-stager/pkg/geometry"
)

func newSession(t *testing.T, l *zap.Logger) *app.Session {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	for i := range img.Pix {
		img.Pix[i] = 200
		if i%4 == 3 {
			img.Pix[i] = 255
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	s := app.New(nil, app.Options{MaxDimension: 2048}, l)
	require.NoError(t, s.LoadPhoto(&buf))
	t.Cleanup(s.Close)
	return s
}

func mouse(x, y float32, button desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     button,
	}
}

func dragTo(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func touch(x, y float32) *mobile.TouchEvent {
	return &mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestMaskCanvasLayoutSetsContainer(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(800, 300))

	layout := s.MaskLayout()
	assert.InDelta(t, 800.0, layout.Container.Width, 1e-6)
	box := layout.ImageBox()
	assert.InDelta(t, 200.0, box.X, 1e-6)
	assert.InDelta(t, 400.0, box.Width, 1e-6)
}

func TestMaskCanvasMouseStroke(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(400, 300))

	mc.MouseDown(mouse(100, 100, desktop.MouseButtonPrimary))
	mc.Dragged(dragTo(150, 120))
	mc.DragEnd()
	mc.MouseUp(mouse(150, 120, desktop.MouseButtonPrimary))

	assert.Equal(t, 1, s.StrokeCount())
	strokes := s.Strokes()
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Points, 2)
}

func TestMaskCanvasSecondaryButtonIgnored(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(400, 300))

	mc.MouseDown(mouse(100, 100, desktop.MouseButtonSecondary))
	mc.Dragged(dragTo(150, 120))
	mc.MouseUp(mouse(150, 120, desktop.MouseButtonSecondary))

	assert.Equal(t, 0, s.StrokeCount())
}

func TestMaskCanvasMouseOutEndsStroke(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(400, 300))

	mc.MouseDown(mouse(100, 100, desktop.MouseButtonPrimary))
	mc.Dragged(dragTo(390, 120))
	mc.MouseOut()
	assert.Equal(t, 1, s.StrokeCount())

	// The release after leaving does not start or end anything.
	mc.MouseUp(mouse(420, 120, desktop.MouseButtonPrimary))
	assert.Equal(t, 1, s.StrokeCount())
}

func TestMaskCanvasTouchStroke(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(400, 300))

	mc.TouchDown(touch(50, 50))
	mc.Dragged(dragTo(80, 60))
	mc.TouchUp(touch(80, 60))

	assert.Equal(t, 1, s.StrokeCount())
}

func TestMaskCanvasTouchCancelEndsStroke(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(400, 300))

	mc.TouchDown(touch(50, 50))
	mc.TouchCancel(touch(50, 50))
	mc.Dragged(dragTo(80, 60))

	require.Len(t, s.Strokes(), 1)
	assert.Len(t, s.Strokes()[0].Points, 1)
}

func TestMaskCanvasTapAfterStrokeSuppressed(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	l, logs := logger.TestLogger()
	s := newSession(t, nil)
	mc := NewMaskCanvas(s, l)
	mc.Resize(fyne.NewSize(400, 300))

	mc.MouseDown(mouse(100, 100, desktop.MouseButtonPrimary))
	mc.MouseUp(mouse(100, 100, desktop.MouseButtonPrimary))
	mc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(100, 100)})

	assert.Equal(t, 1, logs.FilterMessage("click after stroke suppressed").Len())
	assert.Equal(t, 1, s.StrokeCount())
}

func TestMaskCanvasDrawTintsMask(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(400, 300))

	mc.MouseDown(mouse(100, 100, desktop.MouseButtonPrimary))
	mc.MouseUp(mouse(100, 100, desktop.MouseButtonPrimary))

	out, ok := mc.draw(400, 300).(*image.RGBA)
	require.True(t, ok)

	painted := out.RGBAAt(100, 100)
	assert.Greater(t, int(painted.R), int(painted.G)+50)

	clean := out.RGBAAt(350, 250)
	assert.Equal(t, clean.R, clean.G)
	assert.InDelta(t, 200, int(clean.R), 2)
}

func TestMaskCanvasDrawLetterbox(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(800, 300))

	out, ok := mc.draw(800, 300).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, colorutil.Letterbox, out.RGBAAt(10, 10))
	assert.NotEqual(t, colorutil.Letterbox, out.RGBAAt(400, 150))
}

func TestMaskCanvasDrawWithoutPhoto(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := app.New(nil, app.Options{}, nil)
	defer s.Close()
	mc := NewMaskCanvas(s, nil)
	mc.Resize(fyne.NewSize(100, 100))

	out, ok := mc.draw(100, 100).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, colorutil.Letterbox, out.RGBAAt(50, 50))
}

func newPlacement(t *testing.T) (*app.Session, *PlacementCanvas) {
	t.Helper()
	s := newSession(t, nil)
	product := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := range product.Pix {
		product.Pix[i] = 255
	}
	pc := NewPlacementCanvas(s, nil)
	pc.SetProduct(product)
	pc.Resize(fyne.NewSize(400, 300))
	require.NoError(t, s.BeginPlacement(product, geometry.NewRect(0, 0, 400, 300)))
	_, rect := s.Placement()
	require.False(t, rect.Empty())
	return s, pc
}

func TestPlacementCanvasLayout(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s, pc := newPlacement(t)
	pc.Resize(fyne.NewSize(400, 300))
	pc.Refresh()

	_, rect := s.Placement()
	assert.InDelta(t, 120.0, rect.Width, 1e-6)
	assert.InDelta(t, 140.0, float64(pc.product.Position().X), 1e-3)
	assert.InDelta(t, 90.0, float64(pc.product.Position().Y), 1e-3)
	assert.InDelta(t, 120.0, float64(pc.product.Size().Width), 1e-3)

	handle := s.PlacementHandle()
	assert.InDelta(t, handle.X, float64(pc.handle.Position().X), 1e-3)
}

func TestPlacementCanvasDrag(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s, pc := newPlacement(t)

	pc.MouseDown(mouse(200, 150, desktop.MouseButtonPrimary))
	pc.Dragged(dragTo(250, 150))
	pc.DragEnd()
	pc.MouseUp(mouse(250, 150, desktop.MouseButtonPrimary))

	st, _ := s.Placement()
	assert.InDelta(t, 0.625, st.X, 1e-6)
	assert.InDelta(t, 0.5, st.Y, 1e-6)
	assert.InDelta(t, 1.0, st.Scale, 1e-9)
}

func TestPlacementCanvasScroll(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s, pc := newPlacement(t)

	pc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, 10)})
	st, _ := s.Placement()
	assert.InDelta(t, 1.1, st.Scale, 1e-9)

	pc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, -3)})
	st, _ = s.Placement()
	assert.InDelta(t, 1.0, st.Scale, 1e-9)
}

func TestPlacementCanvasIgnoredBeforeBegin(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s := newSession(t, nil)
	pc := NewPlacementCanvas(s, nil)
	pc.Resize(fyne.NewSize(400, 300))

	pc.MouseDown(mouse(200, 150, desktop.MouseButtonPrimary))
	pc.Dragged(dragTo(250, 150))
	pc.MouseUp(mouse(250, 150, desktop.MouseButtonPrimary))

	_, err := s.PlacementPayload()
	assert.ErrorIs(t, err, app.ErrNoPlacement)
}
