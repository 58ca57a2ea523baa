package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

func TestJobStorePutGetReturnsCopy(t *testing.T) {
	s := NewJobStore()
	id := uuid.New()
	s.Put(entity.ExtractJob{ID: id, RemoteJobID: "r-1", State: constants.JobProcessing})

	job, ok := s.Get(id)
	require.True(t, ok)
	job.State = constants.JobFailed

	fresh, _ := s.Get(id)
	assert.Equal(t, constants.JobProcessing, fresh.State)

	_, ok = s.Get(uuid.New())
	assert.False(t, ok)
}

func TestJobStoreUpdate(t *testing.T) {
	s := NewJobStore()
	id := uuid.New()
	s.Put(entity.ExtractJob{ID: id, State: constants.JobProcessing})

	ok := s.Update(id, func(j *entity.ExtractJob) { j.AttemptCount = 4 })
	require.True(t, ok)

	job, _ := s.Get(id)
	assert.Equal(t, 4, job.AttemptCount)
	assert.Nil(t, job.FinishedAt, "update alone must not finish the job")

	assert.False(t, s.Update(uuid.New(), func(j *entity.ExtractJob) {}))
}

func TestJobStoreFinishStampsTime(t *testing.T) {
	s := NewJobStore()
	id := uuid.New()
	s.Put(entity.ExtractJob{ID: id, State: constants.JobProcessing})

	job, _ := s.Get(id)
	job.State = constants.JobCompleted
	s.Finish(id, job)

	stored, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, constants.JobCompleted, stored.State)
	require.NotNil(t, stored.FinishedAt)

	require.Len(t, s.List(), 1)
}
