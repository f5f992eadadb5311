package collab_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-stager/internal/collab"
	"room-stager/internal/collab/collabtest"
)

func newClient(t *testing.T, baseURL string) *collab.HTTPClient {
	t.Helper()
	c, err := collab.NewHTTPClient(collab.ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry: collab.RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2,
		},
	}, nil)
	require.NoError(t, err)
	return c
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func startRoom(t *testing.T, ctx context.Context, c *collab.HTTPClient) string {
	t.Helper()
	sess, err := c.StartSession(ctx, "image/png")
	require.NoError(t, err)
	require.NoError(t, c.Upload(ctx, sess.UploadURL, "image/png", pngBytes(t, 8, 6)))
	require.NoError(t, c.Confirm(ctx, sess.RoomSessionID))
	return sess.RoomSessionID
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	_, err := collab.NewHTTPClient(collab.ClientConfig{BaseURL: "ftp://nope"}, nil)
	assert.Error(t, err)
}

func TestCleanupRoundTrip(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{PendingPolls: 2})
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	room := startRoom(t, ctx, c)
	mask := pngBytes(t, 8, 6)
	job, err := c.Cleanup(ctx, collab.MaskSubmission{
		RoomSessionID: room,
		MaskImage:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(mask),
	})
	require.NoError(t, err)
	assert.Equal(t, collab.StatusPending, job.Status)
	require.NotEmpty(t, job.JobID)

	p := collab.NewPoller(c, time.Millisecond, 10, nil)
	done, err := p.Wait(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, collab.StatusCompleted, done.Status)
	assert.Equal(t, 3, srv.Count(http.MethodGet, "/jobs/"))
	assert.Equal(t, mask, srv.Mask(room))

	img, err := c.Download(ctx, done.ImageURL)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
}

func TestCleanupRejectsNonPNGMask(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{})
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	room := startRoom(t, ctx, c)
	_, err := c.Cleanup(ctx, collab.MaskSubmission{RoomSessionID: room, MaskImage: "hello"})

	var se *collab.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestRenderSubmitsPlacement(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{})
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	room := startRoom(t, ctx, c)
	sub := collab.PlacementSubmission{
		RoomSessionID: room,
		ProductID:     "sofa-42",
		Placement:     collab.Placement{X: 0.4, Y: 0.6, Scale: 1.25},
	}
	job, err := c.Render(ctx, sub)
	require.NoError(t, err)

	done, err := collab.NewPoller(c, time.Millisecond, 5, nil).Wait(ctx, job)
	require.NoError(t, err)
	assert.NotEmpty(t, done.ImageURL)
	assert.Equal(t, []collab.PlacementSubmission{sub}, srv.Renders())
}

func TestPollerTimeout(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{NeverComplete: true})
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	room := startRoom(t, ctx, c)
	job, err := c.Render(ctx, collab.PlacementSubmission{RoomSessionID: room, ProductID: "lamp"})
	require.NoError(t, err)

	_, err = collab.NewPoller(c, time.Millisecond, 4, nil).Wait(ctx, job)
	assert.ErrorIs(t, err, collab.ErrPollTimeout)
	assert.Equal(t, 4, srv.Count(http.MethodGet, "/jobs/"))
}

func TestPollerJobFailed(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{FailRender: true})
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	room := startRoom(t, ctx, c)
	job, err := c.Render(ctx, collab.PlacementSubmission{RoomSessionID: room, ProductID: "lamp"})
	require.NoError(t, err)

	res, err := collab.NewPoller(c, time.Millisecond, 4, nil).Wait(ctx, job)
	assert.ErrorIs(t, err, collab.ErrJobFailed)
	require.NotNil(t, res)
	assert.Equal(t, collab.StatusFailed, res.Status)
}

func TestPollerTerminalWithoutPolling(t *testing.T) {
	p := collab.NewPoller(nil, time.Hour, 1, nil)
	res, err := p.Wait(context.Background(), &collab.JobResult{Status: collab.StatusCompleted, ImageURL: "/x"})
	require.NoError(t, err)
	assert.Equal(t, "/x", res.ImageURL)
}

func TestPollerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := collab.NewPoller(nil, time.Hour, 3, nil)
	_, err := p.Wait(ctx, &collab.JobResult{Status: collab.StatusPending, JobID: "j"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryOnServerError(t *testing.T) {
	srv := collabtest.NewServer(collabtest.Options{FlakyStatus: http.StatusServiceUnavailable})
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	sess, err := c.StartSession(ctx, "image/png")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Count(http.MethodPost, "/rooms/start"))

	// The PUT body must be replayed on retry.
	require.NoError(t, c.Upload(ctx, sess.UploadURL, "image/png", pngBytes(t, 4, 4)))
	assert.Equal(t, 2, srv.Count(http.MethodPut, "/uploads/"))
}

func TestNoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.JobStatus(context.Background(), "abc")

	var se *collab.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "nope", se.Body)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRetryGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.JobStatus(context.Background(), "abc")

	var se *collab.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(3), hits.Load())
}
