package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/store"
)

// SubmitRequest describes one file to drive through the upload protocol.
// ID is optional; when set it must be stable across retries of the same
// logical file.
type SubmitRequest struct {
	ID           string
	Filename     string
	Size         int64
	DocumentType constants.DocumentType
	Body         io.Reader
	OnProgress   ProgressFunc
}

// Orchestrator drives one file through initialize -> transfer -> confirm
// against the registration service and the transfer channel. Each item
// id has exactly one in-flight Submit at a time.
type Orchestrator struct {
	registrar Registrar
	channel   TransferChannel
	items     *store.ItemStore
	maxBytes  int64
	logger    *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewOrchestrator(registrar Registrar, channel TransferChannel, items *store.ItemStore, maxBytes int64, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxUploadBytes
	}
	return &Orchestrator{
		registrar: registrar,
		channel:   channel,
		items:     items,
		maxBytes:  maxBytes,
		logger:    logger,
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Items exposes the item store for read access.
func (o *Orchestrator) Items() *store.ItemStore { return o.items }

// Submit runs the full three-phase protocol and returns the item in its
// terminal state. Validation failures return before any network call.
// Phase-1 and phase-3 failures are retryable by resubmitting the same
// id; a phase-2 failure restarts from phase 1 because the handle may
// have expired.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (entity.UploadItem, error) {
	if err := o.validate(req); err != nil {
		return entity.UploadItem{}, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	ext := constants.NormalizeExt(filepath.Ext(req.Filename))
	item := entity.UploadItem{
		ID:           id,
		Filename:     req.Filename,
		FileExt:      ext,
		DeclaredSize: req.Size,
		ContentType:  constants.ContentTypes[ext],
		DocumentType: req.DocumentType,
		Status:       constants.UploadQueued,
		CreatedAt:    time.Now(),
	}

	if prev, ok := o.items.Get(id); ok {
		if !prev.Status.Terminal() {
			return prev, fmt.Errorf("item %s already in flight: %w", id, common.ErrInvalidInput)
		}
		if prev.Status != constants.UploadError {
			return prev, fmt.Errorf("item %s already finished as %s: %w", id, prev.Status, common.ErrInvalidInput)
		}
		// explicit retry: the item is rebuilt from the new request so the
		// tracked metadata matches what actually gets registered; progress
		// back to zero, stale error cleared
		item.CreatedAt = prev.CreatedAt
	}
	o.items.Put(item)

	ctx, cancel := context.WithCancel(ctx)
	o.registerCancel(id, cancel)
	defer o.unregisterCancel(id)

	var terminal atomic.Bool
	progress := func(pct int) {
		if terminal.Load() {
			return
		}
		o.items.SetProgress(id, pct)
		if req.OnProgress != nil {
			req.OnProgress(pct)
		}
	}

	fail := func(status constants.UploadStatus, detail string, err error) (entity.UploadItem, error) {
		terminal.Store(true)
		o.items.SetStatus(id, status, detail)
		it, _ := o.items.Get(id)
		return it, err
	}

	// phase 1: registration
	if err := ctx.Err(); err != nil {
		return fail(constants.UploadCancelled, "", err)
	}
	handle, err := o.registrar.InitUpload(ctx, InitRequest{
		ItemID:       id,
		Filename:     req.Filename,
		Size:         req.Size,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		o.logger.Error("upload.initialize.failed", "item_id", id, "err", err)
		if ctx.Err() != nil {
			return fail(constants.UploadCancelled, "", ctx.Err())
		}
		return fail(constants.UploadError, err.Error(), err)
	}
	o.logger.Info("upload.initialize.ok", "item_id", id, "object_key", handle.ObjectKey, "expires_at", handle.ExpiresAt)

	// phase 2: transfer
	if err := ctx.Err(); err != nil {
		return fail(constants.UploadCancelled, "", err)
	}
	if handle.Expired(time.Now()) {
		rerr := &common.RegistrationError{
			Phase:   "initialize",
			ItemID:  id,
			Message: fmt.Sprintf("handle expired at %s", handle.ExpiresAt.Format(time.RFC3339)),
		}
		o.logger.Warn("upload.handle.expired", "item_id", id, "expires_at", handle.ExpiresAt)
		return fail(constants.UploadError, rerr.Error(), rerr)
	}
	o.items.SetStatus(id, constants.UploadTransferring, "")
	if err := o.channel.Transfer(ctx, handle, req.Body, req.Size, item.ContentType, progress); err != nil {
		if ctx.Err() != nil {
			o.logger.Info("upload.transfer.cancelled", "item_id", id)
			return fail(constants.UploadCancelled, "", ctx.Err())
		}
		terr := &common.TransferError{ItemID: id, Cause: err}
		o.logger.Error("upload.transfer.failed", "item_id", id, "err", err)
		return fail(constants.UploadError, terr.Error(), terr)
	}
	progress(100)

	// phase 3: confirm. Never reached after cancellation: the ctx check
	// guards the boundary and a cancelled transfer errors out above.
	if err := ctx.Err(); err != nil {
		return fail(constants.UploadCancelled, "", err)
	}
	o.items.SetStatus(id, constants.UploadConfirming, "")
	docID, err := o.registrar.ConfirmUpload(ctx, id)
	if err != nil {
		// bytes already transferred stay put; cleanup is the caller's call
		o.logger.Error("upload.confirm.failed", "item_id", id, "err", err)
		if ctx.Err() != nil {
			return fail(constants.UploadCancelled, "", ctx.Err())
		}
		return fail(constants.UploadError, err.Error(), err)
	}

	terminal.Store(true)
	o.items.Complete(id, docID)
	o.logger.Info("upload.confirm.ok", "item_id", id, "document_id", docID)
	it, _ := o.items.Get(id)
	return it, nil
}

// Cancel aborts an in-flight item. Items already terminal are unaffected.
func (o *Orchestrator) Cancel(id string) bool {
	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (o *Orchestrator) validate(req SubmitRequest) error {
	if req.Filename == "" {
		return common.NewValidationError("filename", req.Filename, "is required")
	}
	if req.Size <= 0 {
		return common.NewValidationError("size", req.Size, "must be positive")
	}
	if req.Size > o.maxBytes {
		return common.NewValidationError("size", req.Size, fmt.Sprintf("exceeds ceiling of %d bytes", o.maxBytes))
	}
	ext := filepath.Ext(req.Filename)
	if !constants.ExtAllowed(ext) {
		return common.NewValidationError("filename", req.Filename, fmt.Sprintf("extension %q not allowed", ext))
	}
	if req.Body == nil {
		return common.NewValidationError("body", nil, "is required")
	}
	return nil
}

func (o *Orchestrator) registerCancel(id string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancels[id] = cancel
}

func (o *Orchestrator) unregisterCancel(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.cancels, id)
}
