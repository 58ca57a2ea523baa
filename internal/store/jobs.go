package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/internal/entity"
)

// JobStore keeps extraction jobs addressable by local job id while they
// move through polling and review.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*entity.ExtractJob
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]*entity.ExtractJob)}
}

func (s *JobStore) Put(job entity.ExtractJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := job
	s.jobs[job.ID] = &cp
}

func (s *JobStore) Get(id uuid.UUID) (entity.ExtractJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return entity.ExtractJob{}, false
	}
	return *j, true
}

func (s *JobStore) List() []entity.ExtractJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.ExtractJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// Update applies fn to the stored job under the lock. Returns false when
// the id is unknown.
func (s *JobStore) Update(id uuid.UUID, fn func(*entity.ExtractJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(j)
	return true
}

// Finish marks the job terminal with the given state fields set.
func (s *JobStore) Finish(id uuid.UUID, job entity.ExtractJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	job.FinishedAt = &now
	cp := job
	s.jobs[id] = &cp
}
