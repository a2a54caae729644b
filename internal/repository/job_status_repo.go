package repository

import (
	"context"
	"errors"

	"github.com/user/illust-harvester/internal/entity"
)

// ErrJobNotFound is returned when no status exists for a job ID.
var ErrJobNotFound = errors.New("job not found")

// JobStatusRepository stores the latest status of each submitted job.
type JobStatusRepository interface {
	Save(ctx context.Context, status *entity.JobStatus) error
	Find(ctx context.Context, jobID string) (*entity.JobStatus, error)
}
