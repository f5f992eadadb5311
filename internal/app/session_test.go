package app

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"room-stager/internal/collab"
	"room-stager/internal/collab/collabtest"
	"room-stager/internal/logger"
	"room-stager/internal/mask"
	"room-stager/internal/pointer"
	"room-stager/pkg/geometry"
)

func photoPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testOptions() Options {
	return Options{
		MaxDimension:   2048,
		CleanupTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
		MaxPolls:       20,
	}
}

func newFakeSession(t *testing.T, fake collabtest.Options, opts Options) (*Session, *collabtest.Server, *observer.ObservedLogs) {
	t.Helper()
	srv := collabtest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := collab.NewHTTPClient(collab.ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)

	l, logs := logger.TestLogger()
	s := New(client, opts, l)
	require.NoError(t, s.LoadPhoto(bytes.NewReader(photoPNG(t, 400, 300))))
	s.SetMaskCanvas(geometry.NewRect(0, 0, 400, 300))
	return s, srv, logs
}

func drawOneStroke(s *Session) {
	s.HandleMaskPointer(pointer.Event{ID: 1, Phase: pointer.PhaseDown, X: 100, Y: 100})
	s.HandleMaskPointer(pointer.Event{ID: 1, Phase: pointer.PhaseMove, X: 150, Y: 120})
	s.HandleMaskPointer(pointer.Event{ID: 1, Phase: pointer.PhaseUp, X: 150, Y: 120})
}

func TestLoadPhotoInitializesEditor(t *testing.T) {
	s, _, _ := newFakeSession(t, collabtest.Options{}, testOptions())
	require.NotNil(t, s.Photo())
	assert.Equal(t, 400, s.Photo().Width())
	assert.Equal(t, "4:3", s.Photo().AspectLabel())

	s.WithMask(func(pair *mask.BufferPair, strokes int) {
		require.NotNil(t, pair)
		assert.Equal(t, 400, pair.Native.Width())
		assert.Equal(t, 300, pair.Native.Height())
		assert.Zero(t, strokes)
	})
}

func TestLoadPhotoRejectsGarbage(t *testing.T) {
	s := New(nil, testOptions(), nil)
	err := s.LoadPhoto(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
	assert.Nil(t, s.Photo())
}

func TestEmptyMaskNeverReachesNetwork(t *testing.T) {
	s, srv, _ := newFakeSession(t, collabtest.Options{}, testOptions())

	_, err := s.SubmitMask(context.Background())
	assert.ErrorIs(t, err, mask.ErrEmptyMask)
	assert.Empty(t, srv.Requests())
	assert.Equal(t, collab.OpIdle, s.Tracker().State(collab.OpCleanup))
}

func TestSubmitMaskSuccess(t *testing.T) {
	s, srv, _ := newFakeSession(t, collabtest.Options{PendingPolls: 1}, testOptions())
	drawOneStroke(s)
	require.Equal(t, 1, s.StrokeCount())

	var finished []CleanupOutcome
	s.On(EventCleanupFinished, func(data interface{}) {
		finished = append(finished, data.(CleanupOutcome))
	})

	cleaned, err := s.SubmitMask(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 400, cleaned.Width())
	assert.Same(t, cleaned, s.Photo())
	assert.Zero(t, s.StrokeCount())
	assert.NotEmpty(t, s.RoomID())
	assert.Equal(t, collab.OpSucceeded, s.Tracker().State(collab.OpCleanup))
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/rooms/"+s.RoomID()+"/cleanup"))

	maskPNG, err := png.Decode(bytes.NewReader(srv.Mask(s.RoomID())))
	require.NoError(t, err)
	assert.Equal(t, 400, maskPNG.Bounds().Dx())
	assert.Equal(t, color.Gray{Y: 255}, maskPNG.At(125, 110))

	// The masked area comes back painted over.
	r, _, _, _ := cleaned.Image().At(125, 110).RGBA()
	assert.Equal(t, uint32(128)*0x101, r)

	require.Len(t, finished, 1)
	assert.NoError(t, finished[0].Err)
}

func TestSubmitMaskFailureRestoresStrokes(t *testing.T) {
	s, _, logs := newFakeSession(t, collabtest.Options{FailCleanup: true}, testOptions())
	drawOneStroke(s)
	before := s.Strokes()

	_, err := s.SubmitMask(context.Background())
	assert.ErrorIs(t, err, collab.ErrJobFailed)
	assert.Equal(t, before, s.Strokes())
	assert.Equal(t, collab.OpFailed, s.Tracker().State(collab.OpCleanup))
	assert.Equal(t, 1, logs.FilterMessage("cleanup failed, strokes restored").Len())

	s.WithMask(func(pair *mask.BufferPair, strokes int) {
		assert.Equal(t, 1, strokes)
		assert.NotZero(t, pair.Native.Count())
	})
}

func TestSubmitMaskHTTPErrorRestoresStrokes(t *testing.T) {
	s, _, _ := newFakeSession(t, collabtest.Options{CleanupStatus: http.StatusBadRequest}, testOptions())
	drawOneStroke(s)

	_, err := s.SubmitMask(context.Background())
	var se *collab.StatusError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, 1, s.StrokeCount())
}

func TestSubmitMaskPollTimeout(t *testing.T) {
	opts := testOptions()
	opts.MaxPolls = 3
	s, srv, _ := newFakeSession(t, collabtest.Options{NeverComplete: true}, opts)
	drawOneStroke(s)

	_, err := s.SubmitMask(context.Background())
	assert.ErrorIs(t, err, collab.ErrPollTimeout)
	assert.Equal(t, collab.OpTimedOut, s.Tracker().State(collab.OpCleanup))
	assert.Equal(t, 1, s.StrokeCount())
	assert.Equal(t, 3, srv.Count(http.MethodGet, "/jobs/"))
}

func TestSubmitMaskCleanupTimeout(t *testing.T) {
	opts := testOptions()
	opts.CleanupTimeout = 50 * time.Millisecond
	opts.PollInterval = 10 * time.Millisecond
	opts.MaxPolls = 1000
	s, _, _ := newFakeSession(t, collabtest.Options{NeverComplete: true}, opts)
	drawOneStroke(s)

	_, err := s.SubmitMask(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, collab.OpTimedOut, s.Tracker().State(collab.OpCleanup))
	assert.Equal(t, 1, s.StrokeCount())
}

// blockingCleaner holds Cleanup until release is closed.
type blockingCleaner struct {
	collab.Service
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCleaner) Cleanup(ctx context.Context, sub collab.MaskSubmission) (*collab.JobResult, error) {
	close(b.entered)
	<-b.release
	return b.Service.Cleanup(ctx, sub)
}

func TestStaleCleanupResultDiscarded(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{})
	defer srv.Close()
	client, err := collab.NewHTTPClient(collab.ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	svc := &blockingCleaner{Service: client, entered: make(chan struct{}), release: make(chan struct{})}

	s := New(svc, testOptions(), nil)
	require.NoError(t, s.LoadPhoto(bytes.NewReader(photoPNG(t, 400, 300))))
	s.SetMaskCanvas(geometry.NewRect(0, 0, 400, 300))
	drawOneStroke(s)

	errc := make(chan error, 1)
	go func() {
		_, err := s.SubmitMask(context.Background())
		errc <- err
	}()

	<-svc.entered
	require.NoError(t, s.LoadPhoto(bytes.NewReader(photoPNG(t, 300, 400))))
	newPhoto := s.Photo()
	close(svc.release)

	assert.ErrorIs(t, <-errc, ErrStaleResult)
	assert.Same(t, newPhoto, s.Photo())
	assert.Equal(t, "3:4", s.Photo().AspectLabel())
	assert.Zero(t, s.StrokeCount())
}

func TestSubmitPlacement(t *testing.T) {
	s, srv, _ := newFakeSession(t, collabtest.Options{}, testOptions())
	product := image.NewNRGBA(image.Rect(0, 0, 100, 50))

	// 500x500 container shows the 4:3 photo letterboxed to 500x375.
	require.NoError(t, s.BeginPlacement(product, geometry.NewRect(0, 0, 500, 500)))
	s.HandlePlacementPointer(pointer.Event{ID: 1, Phase: pointer.PhaseDown, X: 250, Y: 250})
	assert.True(t, s.HandlePlacementPointer(pointer.Event{ID: 1, Phase: pointer.PhaseMove, X: 300, Y: 250}))
	s.HandlePlacementPointer(pointer.Event{ID: 1, Phase: pointer.PhaseUp, X: 300, Y: 250})

	st, _ := s.Placement()
	assert.InDelta(t, 0.6, st.X, 1e-9)

	res, err := s.SubmitPlacement(context.Background(), "chair-7")
	require.NoError(t, err)
	assert.Equal(t, collab.StatusCompleted, res.Status)
	assert.Equal(t, collab.OpSucceeded, s.Tracker().State(collab.OpRender))

	renders := srv.Renders()
	require.Len(t, renders, 1)
	assert.Equal(t, "chair-7", renders[0].ProductID)
	assert.InDelta(t, 0.6, renders[0].Placement.X, 1e-9)
	assert.InDelta(t, 0.5, renders[0].Placement.Y, 1e-9)
	assert.Equal(t, 1.0, renders[0].Placement.Scale)
}

func TestSubmitPlacementRequiresBegin(t *testing.T) {
	s, srv, _ := newFakeSession(t, collabtest.Options{}, testOptions())
	_, err := s.SubmitPlacement(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoPlacement)
	assert.Empty(t, srv.Requests())
}

func TestPreview(t *testing.T) {
	s, _, _ := newFakeSession(t, collabtest.Options{}, testOptions())
	product := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(product.Pix); i += 4 {
		product.Pix[i+2], product.Pix[i+3] = 255, 255
	}
	require.NoError(t, s.BeginPlacement(product, geometry.NewRect(0, 0, 400, 300)))

	out, err := s.Preview()
	require.NoError(t, err)
	assert.Equal(t, 400, out.Bounds().Dx())
	r, _, b, _ := out.At(200, 150).RGBA()
	assert.InDelta(t, 0, r, 0x100)
	assert.InDelta(t, 0xffff, b, 0x100)
}

func TestClose(t *testing.T) {
	s, _, _ := newFakeSession(t, collabtest.Options{}, testOptions())
	closed := false
	s.On(EventClosed, func(interface{}) { closed = true })

	s.Close()
	s.Close()
	assert.True(t, closed)

	_, err := s.SubmitMask(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.LoadPhoto(bytes.NewReader(photoPNG(t, 10, 10))), ErrSessionClosed)
	assert.Equal(t, pointer.ActionIgnored, s.HandleMaskPointer(pointer.Event{Phase: pointer.PhaseDown, X: 10, Y: 10}).Kind)
}
