package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/store"
)

// transportRetries is the sub-budget for transient poll-request errors.
// A network blip retries the same poll attempt this many times before
// the attempt counts against MaxAttempts.
const transportRetries = 2

// PollConfig bounds one polling cycle: at most MaxAttempts genuine polls
// spaced Interval apart.
type PollConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

// Poller submits documents for extraction and polls to a terminal state
// or a distinguished timeout. Each job instance polls at most once
// concurrently and never again after it returns.
type Poller struct {
	svc    Service
	jobs   *store.JobStore
	logger *slog.Logger
}

func NewPoller(svc Service, jobs *store.JobStore, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{svc: svc, jobs: jobs, logger: logger}
}

// Jobs exposes the job store for read access.
func (p *Poller) Jobs() *store.JobStore { return p.jobs }

// SubmitAndAwait submits the stored document and polls until terminal
// state, budget exhaustion, or ctx cancellation. Timeout is not failure:
// the job may still complete server-side, and the returned job carries
// the remote id for a later re-poll.
func (p *Poller) SubmitAndAwait(ctx context.Context, serverDocumentID string, cfg PollConfig) (entity.ExtractJob, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 60
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	job := entity.ExtractJob{
		ID:               uuid.New(),
		ServerDocumentID: serverDocumentID,
		State:            constants.JobPending,
		MaxAttempts:      cfg.MaxAttempts,
		Interval:         cfg.Interval,
		StartedAt:        time.Now(),
	}
	p.jobs.Put(job)

	remoteID, err := p.svc.SubmitJob(ctx, serverDocumentID)
	if err != nil {
		job.State = constants.JobFailed
		job.ErrorMessage = err.Error()
		p.jobs.Finish(job.ID, job)
		p.logger.Error("extract.submit.failed", "job_id", job.ID, "document_id", serverDocumentID, "err", err)
		return job, &common.ExtractionFailedError{JobID: job.ID.String(), Message: err.Error()}
	}
	job.RemoteJobID = remoteID
	job.State = constants.JobProcessing
	p.jobs.Put(job)
	p.logger.Info("extract.submit.ok", "job_id", job.ID, "remote_job_id", remoteID)

	// wall-clock ceiling alongside the attempt budget
	deadline := time.Now().Add(time.Duration(cfg.MaxAttempts+1) * cfg.Interval)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := sleep(ctx, cfg.Interval); err != nil {
			p.jobs.Put(job)
			return job, err
		}
		if time.Now().After(deadline) {
			break
		}

		resp, err := p.pollOnce(ctx, remoteID)
		job.AttemptCount = attempt
		p.jobs.Update(job.ID, func(j *entity.ExtractJob) { j.AttemptCount = attempt })
		if err != nil {
			if ctx.Err() != nil {
				return job, ctx.Err()
			}
			// transport sub-budget exhausted; the attempt still counts
			p.logger.Warn("extract.poll.transport_error", "job_id", job.ID, "attempt", attempt, "err", err)
			continue
		}

		p.logger.Debug("extract.poll", "job_id", job.ID, "attempt", attempt, "state", resp.State)

		if resp.State.Terminal() {
			job.State = resp.State
			switch resp.State {
			case constants.JobFailed:
				job.ErrorMessage = resp.ErrorMessage
				p.jobs.Finish(job.ID, job)
				p.logger.Error("extract.failed", "job_id", job.ID, "attempt", attempt, "err", resp.ErrorMessage)
				return job, &common.ExtractionFailedError{JobID: job.ID.String(), Message: resp.ErrorMessage}
			default: // completed or requires_review
				job.Result = &entity.ExtractionResult{Fields: resp.Fields, RawText: resp.RawText}
				p.jobs.Finish(job.ID, job)
				p.logger.Info("extract.done", "job_id", job.ID, "attempt", attempt, "state", resp.State, "fields", len(resp.Fields))
				return job, nil
			}
		}
	}

	job.State = constants.JobTimeout
	p.jobs.Finish(job.ID, job)
	p.logger.Warn("extract.timeout", "job_id", job.ID, "attempts", job.AttemptCount)
	return job, &common.ExtractionTimeoutError{JobID: job.ID.String(), Attempts: job.AttemptCount}
}

// pollOnce performs one genuine poll attempt, absorbing up to
// transportRetries transient request errors.
func (p *Poller) pollOnce(ctx context.Context, remoteID string) (PollResponse, error) {
	var lastErr error
	for try := 0; try <= transportRetries; try++ {
		if err := ctx.Err(); err != nil {
			return PollResponse{}, err
		}
		resp, err := p.svc.PollJob(ctx, remoteID)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return PollResponse{}, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
