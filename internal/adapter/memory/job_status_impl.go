// Package memory holds process-local stores used when no Redis is configured.
package memory

import (
	"context"
	"sync"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

// JobStatusRepoImpl provides a concrete implementation for the JobStatusRepository interface using a map.
// Statuses are lost on restart.
type JobStatusRepoImpl struct {
	mu       sync.RWMutex
	statuses map[string]entity.JobStatus
}

// NewJobStatusRepo creates a new instance of JobStatusRepoImpl.
func NewJobStatusRepo() *JobStatusRepoImpl {
	return &JobStatusRepoImpl{statuses: make(map[string]entity.JobStatus)}
}

func (r *JobStatusRepoImpl) Save(_ context.Context, status *entity.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[status.JobID] = *status
	return nil
}

// Find returns a copy of the stored status.
func (r *JobStatusRepoImpl) Find(_ context.Context, jobID string) (*entity.JobStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.statuses[jobID]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &s, nil
}
