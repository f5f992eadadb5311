// Package collab talks to the remote services that upload the room photo,
// erase the masked region and render the product into the room.
package collab

import (
	"context"
	"errors"
	"fmt"
)

// Status is the lifecycle of a remote job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further polling is needed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrPollTimeout means a job did not finish within the polling bound.
	ErrPollTimeout = errors.New("job polling timed out")
	// ErrJobFailed means the service reported the job as failed.
	ErrJobFailed = errors.New("job failed")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// RoomSession is returned when an upload is started.
type RoomSession struct {
	RoomSessionID string `json:"roomSessionId"`
	UploadURL     string `json:"uploadUrl"`
}

// MaskSubmission asks the service to erase the masked region. MaskImage is a
// PNG data URL.
type MaskSubmission struct {
	RoomSessionID string `json:"roomSessionId"`
	MaskImage     string `json:"maskImage"`
}

// Placement is the normalized product position.
type Placement struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// PlacementSubmission asks the service to render a product into the room.
type PlacementSubmission struct {
	RoomSessionID string    `json:"roomSessionId"`
	ProductID     string    `json:"productId"`
	Placement     Placement `json:"placement"`
}

// JobResult is the state of an asynchronous job.
type JobResult struct {
	Status   Status `json:"status"`
	ImageURL string `json:"imageUrl,omitempty"`
	JobID    string `json:"jobId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Uploader starts a room session and uploads the normalized photo.
type Uploader interface {
	StartSession(ctx context.Context, contentType string) (*RoomSession, error)
	Upload(ctx context.Context, uploadURL, contentType string, data []byte) error
	Confirm(ctx context.Context, roomSessionID string) error
}

// Cleaner erases the masked region of the room photo.
type Cleaner interface {
	Cleanup(ctx context.Context, sub MaskSubmission) (*JobResult, error)
}

// Renderer composites a product into the room photo.
type Renderer interface {
	Render(ctx context.Context, sub PlacementSubmission) (*JobResult, error)
}

// JobPoller reports the state of a job.
type JobPoller interface {
	JobStatus(ctx context.Context, jobID string) (*JobResult, error)
}

// Downloader fetches a result image.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Service is everything the editor session needs from the remote side.
type Service interface {
	Uploader
	Cleaner
	Renderer
	JobPoller
	Downloader
}
