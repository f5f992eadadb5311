package collab

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"room-stager/internal/logger"
)

// RetryConfig contains retry logic settings
type RetryConfig struct {
	Enabled        bool
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     int
}

// RetryableHTTPClient wraps http.Client with retry logic
type RetryableHTTPClient struct {
	client *http.Client
	config RetryConfig
	logger *zap.Logger
}

// NewRetryableHTTPClient creates a new retryable HTTP client
func NewRetryableHTTPClient(timeout time.Duration, config RetryConfig, l *zap.Logger) *RetryableHTTPClient {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 1
	}
	return &RetryableHTTPClient{
		client: &http.Client{Timeout: timeout},
		config: config,
		logger: logger.OrNop(l),
	}
}

// Do executes an HTTP request with retry logic. Requests with a body must
// set GetBody (http.NewRequest does for in-memory readers).
func (r *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if !r.config.Enabled {
		return r.client.Do(req)
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		reqClone, err := r.cloneRequest(req, attempt)
		if err != nil {
			return nil, err
		}

		r.logger.Debug("HTTP request attempt",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.config.MaxAttempts),
			zap.String("url", req.URL.String()),
			zap.String("method", req.Method))

		resp, err := r.client.Do(reqClone)

		if err == nil {
			if !isRetryableStatusCode(resp.StatusCode) || attempt >= r.config.MaxAttempts {
				return resp, nil
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			r.logger.Debug("Received retryable status code",
				zap.Int("status_code", resp.StatusCode),
				zap.Int("attempt", attempt))
		} else if !isRetryableError(err) {
			return nil, err
		} else {
			lastErr = err
			r.logger.Debug("Retryable error encountered",
				zap.Error(err),
				zap.Int("attempt", attempt))
		}

		if attempt < r.config.MaxAttempts {
			backoff := r.calculateBackoff(attempt)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("max retry attempts (%d) exceeded, last error: %w", r.config.MaxAttempts, lastErr)
}

func (r *RetryableHTTPClient) cloneRequest(req *http.Request, attempt int) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if attempt > 1 && req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, errors.New("cannot retry request with non-rewindable body")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "EOF")
}

// isRetryableStatusCode determines if an HTTP status code should trigger a retry
func isRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff calculates the backoff delay for a given attempt
func (r *RetryableHTTPClient) calculateBackoff(attempt int) time.Duration {
	backoff := r.config.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= time.Duration(r.config.Multiplier)
	}
	if r.config.MaxBackoff > 0 && backoff > r.config.MaxBackoff {
		backoff = r.config.MaxBackoff
	}
	return backoff
}
