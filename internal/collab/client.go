package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"room-stager/internal/logger"
	"room-stager/internal/version"
)

// maxBodyBytes caps downloaded images and error bodies.
const maxBodyBytes = 64 << 20

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
}

// HTTPClient implements Service over JSON/HTTP.
type HTTPClient struct {
	baseURL *url.URL
	http    *RetryableHTTPClient
	logger  *zap.Logger
}

var _ Service = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the service at cfg.BaseURL.
func NewHTTPClient(cfg ClientConfig, l *zap.Logger) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}
	l = logger.OrNop(l).Named("collab")
	return &HTTPClient{
		baseURL: base,
		http:    NewRetryableHTTPClient(cfg.Timeout, cfg.Retry, l),
		logger:  l,
	}, nil
}

func (c *HTTPClient) endpoint(path string) string {
	return c.baseURL.String() + path
}

// StartSession begins a room upload.
func (c *HTTPClient) StartSession(ctx context.Context, contentType string) (*RoomSession, error) {
	var out RoomSession
	body := map[string]string{"contentType": contentType}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/rooms/start"), body, &out); err != nil {
		return nil, err
	}
	if out.RoomSessionID == "" || out.UploadURL == "" {
		return nil, fmt.Errorf("start session: incomplete response")
	}
	return &out, nil
}

// Upload PUTs the photo bytes to uploadURL.
func (c *HTTPClient) Upload(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return err
	}
	c.logger.Debug("photo uploaded", zap.Int("bytes", len(data)))
	return nil
}

// Confirm marks the upload as complete.
func (c *HTTPClient) Confirm(ctx context.Context, roomSessionID string) error {
	path := "/rooms/" + url.PathEscape(roomSessionID) + "/confirm"
	return c.doJSON(ctx, http.MethodPost, c.endpoint(path), struct{}{}, nil)
}

// Cleanup submits a mask for object removal.
func (c *HTTPClient) Cleanup(ctx context.Context, sub MaskSubmission) (*JobResult, error) {
	var out JobResult
	path := "/rooms/" + url.PathEscape(sub.RoomSessionID) + "/cleanup"
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint(path), sub, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Render submits a product placement.
func (c *HTTPClient) Render(ctx context.Context, sub PlacementSubmission) (*JobResult, error) {
	var out JobResult
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/renders"), sub, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JobStatus fetches the current state of a job.
func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (*JobResult, error) {
	var out JobResult
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/jobs/"+url.PathEscape(jobID)), nil, &out); err != nil {
		return nil, err
	}
	if out.JobID == "" {
		out.JobID = jobID
	}
	return &out, nil
}

// Download fetches a result image. Relative URLs resolve against BaseURL.
func (c *HTTPClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image url %q: %w", rawURL, err)
	}
	target := c.baseURL.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(req, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		Method: req.Method,
		URL:    req.URL.String(),
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(data)),
	}
}
