package mainwindow

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-stager/internal/app"
	"room-stager/ui/panels"
	"room-stager/ui/prefs"
)

func newTestWindow(t *testing.T) (*MainWindow, *app.Session) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	s := app.New(nil, app.Options{}, nil)
	t.Cleanup(s.Close)
	mw := New(a, s, Options{Prefs: prefs.LoadFrom(t.TempDir())})
	return mw, s
}

func TestWindowStatusFollowsPhoto(t *testing.T) {
	mw, s := newTestWindow(t)
	assert.Equal(t, "Open a room photo to begin", mw.statusBar.Text)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 640, 480))))
	require.NoError(t, s.LoadPhoto(&buf))

	assert.Equal(t, "Photo 640x480 (4:3)", mw.statusBar.Text)
}

func TestWindowShowStep(t *testing.T) {
	mw, _ := newTestWindow(t)
	assert.True(t, mw.maskCanvas.Visible())
	assert.False(t, mw.placementCanvas.Visible())

	mw.showStep(panels.StepPlace)
	assert.False(t, mw.maskCanvas.Visible())
	assert.True(t, mw.placementCanvas.Visible())

	mw.showStep(panels.StepMask)
	assert.True(t, mw.maskCanvas.Visible())
}

func TestWindowUndoWithoutStrokes(t *testing.T) {
	mw, _ := newTestWindow(t)
	mw.onUndo()
	assert.Equal(t, "Nothing to undo", mw.statusBar.Text)
}
