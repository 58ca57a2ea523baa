// Package store holds the keyed in-memory state for in-flight pipeline
// work. Each item id has a single logical writer (its orchestrator); the
// store only enforces the invariants that survive restarts of that
// writer: monotonic progress, no mutation after a terminal status, and
// server document ids appearing only on completed items.
package store

import (
	"sync"
	"time"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

type ItemStore struct {
	mu    sync.RWMutex
	items map[string]*entity.UploadItem
}

func NewItemStore() *ItemStore {
	return &ItemStore{items: make(map[string]*entity.UploadItem)}
}

// Put registers a new item or replaces a finished one being retried.
func (s *ItemStore) Put(item entity.UploadItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = time.Now()
	cp := item
	s.items[item.ID] = &cp
}

// Get returns a copy so callers cannot mutate store state.
func (s *ItemStore) Get(id string) (entity.UploadItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return entity.UploadItem{}, false
	}
	return *it, true
}

func (s *ItemStore) List() []entity.UploadItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.UploadItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	return out
}

// SetStatus transitions an item's status. Transitions out of a terminal
// status are refused except the explicit error->queued retry reset.
func (s *ItemStore) SetStatus(id string, status constants.UploadStatus, errDetail string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return false
	}
	if it.Status.Terminal() && !(it.Status == constants.UploadError && status == constants.UploadQueued) {
		return false
	}
	it.Status = status
	it.ErrorDetail = ""
	if status == constants.UploadError {
		it.ErrorDetail = errDetail
	}
	if status == constants.UploadQueued {
		// explicit retry: progress resets, stale error is cleared
		it.Progress = 0
		it.ServerDocumentID = ""
	}
	it.UpdatedAt = time.Now()
	return true
}

// SetProgress records transfer progress. Regressions and updates outside
// the transferring phase are dropped.
func (s *ItemStore) SetProgress(id string, pct int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok || it.Status != constants.UploadTransferring {
		return false
	}
	if pct < it.Progress {
		return false
	}
	if pct > 100 {
		pct = 100
	}
	it.Progress = pct
	it.UpdatedAt = time.Now()
	return true
}

// Complete sets the server document id and the COMPLETE status together
// so the id never exists on a non-complete item.
func (s *ItemStore) Complete(id, serverDocumentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok || it.Status.Terminal() {
		return false
	}
	it.ServerDocumentID = serverDocumentID
	it.Status = constants.UploadComplete
	it.ErrorDetail = ""
	it.UpdatedAt = time.Now()
	return true
}
