package repository

import (
	"context"

	"github.com/user/illust-harvester/internal/entity"
)

// FailureLog keeps downloads that exhausted their retries so an operator can
// review them after the job.
type FailureLog interface {
	Record(ctx context.Context, jobID string, outcome entity.DownloadOutcome) error
	ListByJob(ctx context.Context, jobID string, limit int) ([]entity.DownloadOutcome, error)
}
