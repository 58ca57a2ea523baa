package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/extraction"
	"github.com/adewale-k/compliance-docs/internal/repository"
)

// JobRunner runs one extraction cycle. *extraction.Poller satisfies it.
type JobRunner interface {
	SubmitAndAwait(ctx context.Context, serverDocumentID string, cfg extraction.PollConfig) (entity.ExtractJob, error)
}

// FieldView is one presented field: the current (possibly edited) value,
// the machine's original confidence, and its tier.
type FieldView struct {
	Field          entity.ExtractedField    `json:"field"`
	Tier           constants.ConfidenceTier `json:"tier"`
	Edited         bool                     `json:"edited"`
	NeedsAttention bool                     `json:"needs_attention"`
}

// session holds one document's review state. Fields are deduped by
// normalized key for presentation; raw detections are kept for audit.
type session struct {
	jobID        uuid.UUID
	documentID   string
	documentType constants.DocumentType
	state        constants.ReviewState
	raw          []entity.ExtractedField
	fields       []entity.ExtractedField // deduped, current values
	edited       map[string]bool         // normalized key -> overwritten
	decision     *entity.ReviewDecision
}

// Machine drives documents through
// unprocessed -> processing -> completed|failed|requires_review ->
// approved|rejected. Approved and rejected are immutable.
type Machine struct {
	runner    JobRunner
	decisions repository.DecisionRepository
	autofill  *Autofill
	thresh    Thresholds
	pollCfg   extraction.PollConfig
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewMachine(runner JobRunner, decisions repository.DecisionRepository, autofill *Autofill, thresh Thresholds, pollCfg extraction.PollConfig, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if autofill == nil {
		autofill = DefaultAutofill()
	}
	return &Machine{
		runner:    runner,
		decisions: decisions,
		autofill:  autofill,
		thresh:    thresh,
		pollCfg:   pollCfg,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*session),
	}
}

// Process submits a stored document for extraction and blocks until the
// job is terminal or times out. On timeout the session returns to
// unprocessed and the same document can be processed again.
func (m *Machine) Process(ctx context.Context, serverDocumentID string, docType constants.DocumentType) (uuid.UUID, error) {
	job, err := m.runner.SubmitAndAwait(ctx, serverDocumentID, m.pollCfg)

	s := &session{
		jobID:        job.ID,
		documentID:   serverDocumentID,
		documentType: docType,
		edited:       make(map[string]bool),
	}

	switch {
	case err == nil:
		s.raw = job.Result.Fields
		s.fields = DedupeFields(job.Result.Fields)
		if job.State == constants.JobRequiresReview {
			s.state = constants.ReviewRequiresReview
		} else {
			s.state = constants.ReviewCompleted
		}
	default:
		var timeoutErr *common.ExtractionTimeoutError
		if errors.As(err, &timeoutErr) {
			// job may still finish server-side; session is re-submittable
			s.state = constants.ReviewUnprocessed
		} else {
			s.state = constants.ReviewFailed
		}
	}

	m.mu.Lock()
	m.sessions[job.ID] = s
	m.mu.Unlock()

	m.logger.Info("review.process", "job_id", job.ID, "document_id", serverDocumentID, "state", s.state)
	return job.ID, err
}

// Retry re-runs extraction for a failed session, producing a fresh job.
// The old session reads PROCESSING while the re-run is in flight and
// follows the fresh job's outcome afterwards, so callers holding the old
// job id observe the retried state.
func (m *Machine) Retry(ctx context.Context, jobID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	s, ok := m.sessions[jobID]
	if !ok {
		m.mu.Unlock()
		return uuid.Nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	if s.state != constants.ReviewFailed && s.state != constants.ReviewUnprocessed {
		m.mu.Unlock()
		return uuid.Nil, fmt.Errorf("job %s in state %s is not retryable: %w", jobID, s.state, common.ErrInvalidInput)
	}
	s.state = constants.ReviewProcessing
	docID, docType := s.documentID, s.documentType
	m.mu.Unlock()

	newID, err := m.Process(ctx, docID, docType)

	m.mu.Lock()
	if ns, ok := m.sessions[newID]; ok {
		m.sessions[jobID] = ns
	}
	m.mu.Unlock()
	return newID, err
}

// Fields returns the presented field set with tier annotations.
func (m *Machine) Fields(jobID uuid.UUID) ([]FieldView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	views := make([]FieldView, 0, len(s.fields))
	for _, f := range s.fields {
		tier := m.thresh.Classify(f.Confidence)
		views = append(views, FieldView{
			Field:          f,
			Tier:           tier,
			Edited:         s.edited[NormalizeKey(f.Key)],
			NeedsAttention: tier == constants.TierLow,
		})
	}
	return views, nil
}

// State reports the session's review state.
func (m *Machine) State(jobID uuid.UUID) (constants.ReviewState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[jobID]
	if !ok {
		return "", fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return s.state, nil
}

// Edit overwrites the current value of a field by key. The original
// extraction confidence is deliberately left untouched: it reflects the
// machine's certainty in its own output, not the human's edit. Edits do
// not change the review state.
func (m *Machine) Edit(jobID uuid.UUID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[jobID]
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	if s.state != constants.ReviewCompleted && s.state != constants.ReviewRequiresReview {
		return fmt.Errorf("job %s in state %s is not editable: %w", jobID, s.state, common.ErrInvalidInput)
	}

	nk := NormalizeKey(key)
	for i := range s.fields {
		if NormalizeKey(s.fields[i].Key) == nk {
			s.fields[i].Value = value
			s.edited[nk] = true
			return nil
		}
	}
	return fmt.Errorf("field %q not found on job %s: %w", key, jobID, common.ErrNotFound)
}

// ApproveOptions carries the explicit override for approving a
// requires-review job without edits.
type ApproveOptions struct {
	Override bool
}

// Approve finalizes the session with the current field set and returns
// the persisted decision plus profile auto-populate suggestions.
// Approving a requires-review session with zero edits and no override is
// a ReviewPolicyError.
func (m *Machine) Approve(ctx context.Context, jobID uuid.UUID, opts ApproveOptions) (entity.ReviewDecision, []entity.FieldSuggestion, error) {
	m.mu.Lock()
	s, ok := m.sessions[jobID]
	if !ok {
		m.mu.Unlock()
		return entity.ReviewDecision{}, nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	if s.state != constants.ReviewCompleted && s.state != constants.ReviewRequiresReview {
		m.mu.Unlock()
		return entity.ReviewDecision{}, nil, fmt.Errorf("job %s in state %s cannot be approved: %w", jobID, s.state, common.ErrInvalidInput)
	}
	if s.state == constants.ReviewRequiresReview && len(s.edited) == 0 && !opts.Override {
		m.mu.Unlock()
		return entity.ReviewDecision{}, nil, &common.ReviewPolicyError{
			JobID:   jobID.String(),
			Message: "requires-review extraction needs at least one edit or an explicit override",
		}
	}

	decision := entity.ReviewDecision{
		ID:           uuid.New(),
		JobID:        jobID,
		DocumentType: s.documentType,
		Approved:     true,
		Fields:       append([]entity.ExtractedField(nil), s.fields...),
		RawFields:    append([]entity.ExtractedField(nil), s.raw...),
		Override:     opts.Override,
		DecidedAt:    time.Now(),
	}

	// the session flips terminal only once the decision is durable; a
	// failed save leaves it decidable again
	if err := m.decisions.SaveDecision(ctx, decision); err != nil {
		m.mu.Unlock()
		m.logger.Error("review.approve.persist_failed", "job_id", jobID, "err", err)
		return entity.ReviewDecision{}, nil, err
	}
	s.state = constants.ReviewApproved
	s.decision = &decision
	m.mu.Unlock()

	suggestions := m.autofill.Suggest(decision.DocumentType, decision.Fields)
	m.logger.Info("review.approved", "job_id", jobID, "decision_id", decision.ID, "suggestions", len(suggestions), "override", opts.Override)
	return decision, suggestions, nil
}

// Reject finalizes the session as rejected. The reason is mandatory.
func (m *Machine) Reject(ctx context.Context, jobID uuid.UUID, reason string) (entity.ReviewDecision, error) {
	if reason == "" {
		return entity.ReviewDecision{}, common.NewValidationError("reason", reason, "is required")
	}

	m.mu.Lock()
	s, ok := m.sessions[jobID]
	if !ok {
		m.mu.Unlock()
		return entity.ReviewDecision{}, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	if s.state != constants.ReviewCompleted && s.state != constants.ReviewRequiresReview {
		m.mu.Unlock()
		return entity.ReviewDecision{}, fmt.Errorf("job %s in state %s cannot be rejected: %w", jobID, s.state, common.ErrInvalidInput)
	}

	decision := entity.ReviewDecision{
		ID:           uuid.New(),
		JobID:        jobID,
		DocumentType: s.documentType,
		Approved:     false,
		RawFields:    append([]entity.ExtractedField(nil), s.raw...),
		RejectReason: reason,
		DecidedAt:    time.Now(),
	}

	if err := m.decisions.SaveDecision(ctx, decision); err != nil {
		m.mu.Unlock()
		m.logger.Error("review.reject.persist_failed", "job_id", jobID, "err", err)
		return entity.ReviewDecision{}, err
	}
	s.state = constants.ReviewRejected
	s.decision = &decision
	m.mu.Unlock()
	m.logger.Info("review.rejected", "job_id", jobID, "decision_id", decision.ID)
	return decision, nil
}
