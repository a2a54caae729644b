package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

const failureListLimit = 500

// JobManager defines the interface for submitting jobs and checking on them.
type JobManager interface {
	Submit(ctx context.Context, job entity.Job) (string, error)
	GetStatus(ctx context.Context, jobID string) (*entity.JobStatus, error)
	ListFailures(ctx context.Context, jobID string) ([]entity.DownloadOutcome, error)
	Wait()
}

type jobManagerUseCase struct {
	baseCtx    context.Context
	pipeline   Pipeline
	statusRepo repository.JobStatusRepository
	failures   repository.FailureLog
	logger     *zap.Logger
	wg         sync.WaitGroup
	now        func() time.Time
}

// NewJobManager creates a new JobManager. Jobs run on baseCtx, not on the
// context of the submitting request. failures may be nil.
func NewJobManager(
	baseCtx context.Context,
	pipeline Pipeline,
	statusRepo repository.JobStatusRepository,
	failures repository.FailureLog,
	logger *zap.Logger,
) JobManager {
	return &jobManagerUseCase{
		baseCtx:    baseCtx,
		pipeline:   pipeline,
		statusRepo: statusRepo,
		failures:   failures,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit records the job as pending and starts it in the background.
func (uc *jobManagerUseCase) Submit(ctx context.Context, job entity.Job) (string, error) {
	job.ID = uuid.NewString()

	status := &entity.JobStatus{
		JobID:     job.ID,
		Kind:      job.Kind,
		Key:       job.Key,
		State:     entity.JobStatePending,
		UpdatedAt: uc.now(),
	}
	if err := uc.statusRepo.Save(ctx, status); err != nil {
		return "", fmt.Errorf("failed to record job status: %w", err)
	}

	uc.wg.Add(1)
	go uc.run(job)
	return job.ID, nil
}

func (uc *jobManagerUseCase) run(job entity.Job) {
	defer uc.wg.Done()
	log := uc.logger.With(zap.String("job_id", job.ID))

	uc.save(log, &entity.JobStatus{
		JobID:     job.ID,
		Kind:      job.Kind,
		Key:       job.Key,
		State:     entity.JobStateAuthenticating,
		UpdatedAt: uc.now(),
	})

	summary := uc.pipeline.Run(uc.baseCtx, job)

	uc.save(log, &entity.JobStatus{
		JobID:       job.ID,
		Kind:        job.Kind,
		Key:         job.Key,
		State:       summary.State,
		Succeeded:   summary.Succeeded,
		Failed:      summary.Failed,
		Attempts:    summary.Attempts,
		AbortReason: summary.AbortReason,
		UpdatedAt:   uc.now(),
	})
}

func (uc *jobManagerUseCase) save(log *zap.Logger, status *entity.JobStatus) {
	// the job keeps running even if its status cannot be stored
	if err := uc.statusRepo.Save(context.WithoutCancel(uc.baseCtx), status); err != nil {
		log.Error("failed to record job status", zap.String("state", string(status.State)), zap.Error(err))
	}
}

func (uc *jobManagerUseCase) GetStatus(ctx context.Context, jobID string) (*entity.JobStatus, error) {
	return uc.statusRepo.Find(ctx, jobID)
}

// ListFailures returns the downloads of a job that exhausted their retries.
// Without a failure store the list is always empty.
func (uc *jobManagerUseCase) ListFailures(ctx context.Context, jobID string) ([]entity.DownloadOutcome, error) {
	if _, err := uc.statusRepo.Find(ctx, jobID); err != nil {
		return nil, err
	}
	if uc.failures == nil {
		return []entity.DownloadOutcome{}, nil
	}
	return uc.failures.ListByJob(ctx, jobID, failureListLimit)
}

// Wait blocks until every submitted job has finished.
func (uc *jobManagerUseCase) Wait() {
	uc.wg.Wait()
}
