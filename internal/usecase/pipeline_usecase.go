package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/downloader"
	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/extractor"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/pkg/metrics"
	"github.com/user/illust-harvester/pkg/utils"
)

// downloadTimeLayout formats ProgressEvent.DownloadTime.
const downloadTimeLayout = "2006-01-02 15:04:05"

// StrategyResolver selects the extraction strategy for a job on a live session.
type StrategyResolver interface {
	Resolve(ctx context.Context, b repository.Browser, job entity.Job) (extractor.Strategy, error)
}

// PageExtractor loads one listing page and returns its descriptors.
type PageExtractor interface {
	Extract(ctx context.Context, b repository.Browser, s extractor.Strategy, page int) ([]entity.AssetDescriptor, error)
}

// Downloader runs the retrying download of one descriptor.
type Downloader interface {
	Run(ctx context.Context, req downloader.Request, onRetry downloader.RetryFunc) entity.DownloadOutcome
}

// Pipeline runs a job from session login to the final summary.
type Pipeline interface {
	Run(ctx context.Context, job entity.Job) *entity.JobSummary
}

// PipelineDeps are the collaborators of the pipeline. Failures is optional.
type PipelineDeps struct {
	Sessions      repository.SessionFactory
	Authenticator repository.Authenticator
	Strategies    StrategyResolver
	Extractor     PageExtractor
	Downloader    Downloader
	Publisher     repository.Publisher
	Audit         repository.AuditLog
	Failures      repository.FailureLog
	Timing        entity.Timing
	Logger        *zap.Logger
}

type pipelineUseCase struct {
	PipelineDeps
	now func() time.Time
}

// NewPipelineUseCase creates a new instance of the pipeline use case.
func NewPipelineUseCase(deps PipelineDeps) Pipeline {
	metrics.Init()
	return &pipelineUseCase{PipelineDeps: deps, now: time.Now}
}

// run carries the per-job state through the pipeline.
type run struct {
	job      entity.Job
	strategy extractor.Strategy
	summary  *entity.JobSummary
	log      *zap.Logger
}

// Run executes job and returns its summary. The summary state is either
// completed or aborted; aborts carry the reason and its error kind.
func (uc *pipelineUseCase) Run(ctx context.Context, job entity.Job) *entity.JobSummary {
	r := &run{
		job: job,
		summary: &entity.JobSummary{
			JobID:     job.ID,
			Kind:      job.Kind,
			Key:       job.Key,
			PageStart: job.PageStart,
			PageEnd:   job.PageEnd,
			State:     entity.JobStatePending,
			StartedAt: uc.now(),
		},
		log: uc.Logger.With(zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)), zap.String("key", job.Key)),
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	if job.PageStart > job.PageEnd {
		r.log.Info("empty page range, nothing to do", zap.Int("page_start", job.PageStart), zap.Int("page_end", job.PageEnd))
		uc.finish(ctx, r)
		return r.summary
	}

	uc.transition(r, entity.JobStateAuthenticating)
	b, err := uc.Sessions.Open(ctx, job.Session)
	if err != nil {
		uc.abort(ctx, r, fmt.Errorf("failed to open browser session: %w", err), false)
		return r.summary
	}
	defer func() {
		if err := b.Close(); err != nil {
			r.log.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	if err := uc.Authenticator.Login(ctx, b, job.Credentials); err != nil {
		uc.abort(ctx, r, err, false)
		return r.summary
	}
	if err := utils.Sleep(ctx, uc.Timing.PostLoginDelay); err != nil {
		uc.abort(ctx, r, err, true)
		return r.summary
	}

	r.strategy, err = uc.Strategies.Resolve(ctx, b, job)
	if err != nil {
		uc.abort(ctx, r, err, true)
		return r.summary
	}

	uc.transition(r, entity.JobStatePaging)
	for page := job.PageStart; page <= job.PageEnd; page++ {
		result, err := uc.processPage(ctx, b, r, page)
		if err != nil {
			uc.abort(ctx, r, err, true)
			return r.summary
		}
		r.summary.Fold(result)
		metrics.PagesProcessed.WithLabelValues(r.strategy.Name()).Inc()
	}

	uc.finish(ctx, r)
	return r.summary
}

// processPage extracts page and downloads its descriptors in DOM order.
// Only extraction and cancellation errors are returned; download failures
// are part of the result.
func (uc *pipelineUseCase) processPage(ctx context.Context, b repository.Browser, r *run, page int) (entity.PageResult, error) {
	result := entity.PageResult{PageNumber: page}

	descriptors, err := uc.Extractor.Extract(ctx, b, r.strategy, page)
	if err != nil {
		return result, err
	}
	if len(descriptors) == 0 {
		r.log.Info("page has no items", zap.Int("page", page))
		return result, nil
	}

	for i, d := range descriptors {
		index := i + 1
		if d.SourceURL == "" {
			r.log.Debug("skipping item without image", zap.String("number", entity.PositionLabel(page, index)))
			continue
		}
		if err := utils.Sleep(ctx, uc.Timing.ThrottleDelay); err != nil {
			return result, err
		}

		req := downloader.Request{
			Descriptor:     d,
			Key:            r.strategy.Key(),
			Page:           page,
			Index:          index,
			DestinationDir: r.job.DestinationDir,
			Proxy:          repository.ProxyConfig{Enabled: r.job.UseProxy, Port: r.job.ProxyPort},
		}
		outcome := uc.Downloader.Run(ctx, req, uc.retryReporter(ctx, r, page, index))
		result.Outcomes = append(result.Outcomes, outcome)
		uc.report(ctx, r, outcome)
	}
	return result, nil
}

func (uc *pipelineUseCase) retryReporter(ctx context.Context, r *run, page, index int) downloader.RetryFunc {
	number := entity.PositionLabel(page, index)
	return func(retry int, nextURL string, err error) {
		uc.publishLog(ctx, r, entity.LogWarning, fmt.Sprintf("%s: attempt failed (%v), retry %d with %s", number, err, retry, nextURL))
	}
}

// report emits the events for one finished download and records it.
func (uc *pipelineUseCase) report(ctx context.Context, r *run, o entity.DownloadOutcome) {
	number := o.Number()
	if !o.Succeeded {
		uc.publishLog(ctx, r, entity.LogError,
			fmt.Sprintf("%s: image %s failed after %d attempts", number, o.Descriptor.SourceURL, o.Attempts))
		if uc.Failures != nil {
			if err := uc.Failures.Record(ctx, r.job.ID, o); err != nil {
				r.log.Warn("failed to record download failure", zap.String("number", number), zap.Error(err))
			}
		}
		return
	}

	progress := entity.ProgressEvent{
		JobID:           r.job.ID,
		Type:            r.strategy.Label(),
		Number:          number,
		ImageName:       filepath.Base(o.DestinationPath),
		Destination:     r.job.DestinationDir,
		DestinationPath: o.DestinationPath,
		Succeeded:       o.Succeeded,
		ImageURL:        o.URL,
		Author:          o.Descriptor.Author,
		Title:           o.Descriptor.Title,
		Attempts:        o.Attempts,
		DownloadTime:    o.CompletedAt.Format(downloadTimeLayout),
	}
	uc.Publisher.Publish(ctx, entity.EventDownload, r.job.ChannelID, progress)
	uc.publishLog(ctx, r, entity.LogSuccess, fmt.Sprintf("%s: downloaded %s (%d attempts)", number, progress.ImageName, o.Attempts))

	if err := uc.Audit.Append(ctx, progress); err != nil {
		r.log.Warn("failed to append audit record", zap.String("number", number), zap.Error(err))
		uc.publishLog(ctx, r, entity.LogWarning, fmt.Sprintf("%s: downloaded but not recorded in the audit log: %v", number, err))
	}
}

func (uc *pipelineUseCase) publishLog(ctx context.Context, r *run, state entity.LogState, msg string) {
	uc.Publisher.Publish(ctx, entity.EventLog, r.job.ChannelID, entity.LogEvent{Message: msg, State: state})
}

func (uc *pipelineUseCase) transition(r *run, state entity.JobState) {
	r.log.Debug("job state", zap.String("from", string(r.summary.State)), zap.String("to", string(state)))
	r.summary.State = state
}

// finish moves the job through finalizing to completed and emits the summary.
func (uc *pipelineUseCase) finish(ctx context.Context, r *run) {
	uc.transition(r, entity.JobStateFinalizing)
	s := r.summary

	state := entity.LogSuccess
	msg := fmt.Sprintf("downloaded pages %d ~ %d: %d succeeded, %d failed", s.PageStart, s.PageEnd, s.Succeeded, s.Failed)
	if s.Failed > 0 {
		state = entity.LogWarning
		labels := make([]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			labels = append(labels, f.Number())
		}
		msg += " (" + strings.Join(labels, ", ") + ")"
	}
	uc.publishLog(ctx, r, state, msg)

	s.FinishedAt = uc.now()
	uc.transition(r, entity.JobStateCompleted)
	metrics.JobsTotal.WithLabelValues(string(entity.JobStateCompleted)).Inc()
	r.log.Info("job completed",
		zap.Ints("pages", s.PagesCompleted),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Int("attempts", s.Attempts),
	)
}

// abort ends the job. Stages before strategy resolution are silent towards
// the operator; later stages emit one terminal error event.
func (uc *pipelineUseCase) abort(ctx context.Context, r *run, err error, notify bool) {
	s := r.summary
	s.AbortReason = err.Error()
	s.AbortKind = entity.KindOf(err)
	s.FinishedAt = uc.now()
	uc.transition(r, entity.JobStateAborted)
	metrics.JobsTotal.WithLabelValues(string(entity.JobStateAborted)).Inc()

	r.log.Error("job aborted", zap.String("kind", string(s.AbortKind)), zap.Ints("pages_completed", s.PagesCompleted), zap.Error(err))
	if notify {
		// the job ctx may be the reason for the abort
		uc.publishLog(context.WithoutCancel(ctx), r, entity.LogError, fmt.Sprintf("download aborted: %v", err))
	}
}
