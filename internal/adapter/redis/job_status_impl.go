package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

const jobStatusTTL = 7 * 24 * time.Hour

func jobStatusKey(jobID string) string {
	return fmt.Sprintf("harvester:job:%s", jobID)
}

// JobStatusRepoImpl provides a concrete implementation for the JobStatusRepository interface using Redis.
type JobStatusRepoImpl struct {
	client *redis.Client
}

// NewJobStatusRepo creates a new instance of JobStatusRepoImpl.
func NewJobStatusRepo(client *redis.Client) *JobStatusRepoImpl {
	return &JobStatusRepoImpl{client: client}
}

// Save overwrites the status of a job. Statuses expire after a week.
func (r *JobStatusRepoImpl) Save(ctx context.Context, status *entity.JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, jobStatusKey(status.JobID), data, jobStatusTTL).Err()
}

// Find returns the latest status of a job.
func (r *JobStatusRepoImpl) Find(ctx context.Context, jobID string) (*entity.JobStatus, error) {
	data, err := r.client.Get(ctx, jobStatusKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var status entity.JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
