package collab

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"room-stager/internal/logger"
)

// Poller waits for jobs to reach a terminal status.
type Poller struct {
	jobs     JobPoller
	interval time.Duration
	maxPolls int
	logger   *zap.Logger
}

// NewPoller creates a Poller that checks every interval, at most maxPolls times.
func NewPoller(jobs JobPoller, interval time.Duration, maxPolls int, l *zap.Logger) *Poller {
	if maxPolls <= 0 {
		maxPolls = 1
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Poller{jobs: jobs, interval: interval, maxPolls: maxPolls, logger: logger.OrNop(l)}
}

// Wait returns the completed job. A failed job yields ErrJobFailed; running
// out of polls yields ErrPollTimeout. A job that is already terminal is
// returned without polling.
func (p *Poller) Wait(ctx context.Context, job *JobResult) (*JobResult, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: no job", ErrJobFailed)
	}
	if job.Status.Terminal() {
		return finish(job)
	}
	if job.JobID == "" {
		return nil, fmt.Errorf("%w: pending job without id", ErrJobFailed)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for poll := 1; poll <= p.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		cur, err := p.jobs.JobStatus(ctx, job.JobID)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("job polled",
			zap.String("job_id", job.JobID),
			zap.String("status", string(cur.Status)),
			zap.Int("poll", poll))
		if cur.Status.Terminal() {
			return finish(cur)
		}
	}

	return nil, fmt.Errorf("%w: job %s still pending after %d polls", ErrPollTimeout, job.JobID, p.maxPolls)
}

func finish(job *JobResult) (*JobResult, error) {
	if job.Status == StatusFailed {
		msg := job.Error
		if msg == "" {
			msg = "no reason given"
		}
		return job, fmt.Errorf("%w: %s", ErrJobFailed, msg)
	}
	return job, nil
}
