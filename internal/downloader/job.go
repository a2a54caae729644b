// Package downloader fetches one image with retries and an extension fallback.
package downloader

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/pkg/metrics"
	"github.com/user/illust-harvester/pkg/utils"
)

// Request is one descriptor to download.
type Request struct {
	Descriptor     entity.AssetDescriptor
	Key            string // category or author, used in the file name
	Page           int
	Index          int // 1-based position on the page
	DestinationDir string
	Proxy          repository.ProxyConfig
}

// RetryFunc is told about each failed attempt that will be retried.
// retry is the 1-based number of the upcoming retry.
type RetryFunc func(retry int, nextURL string, err error)

// Job runs downloads. It is safe for concurrent use.
type Job struct {
	fetcher repository.Fetcher
	timing  entity.Timing
	logger  *zap.Logger
	now     func() time.Time
}

// NewJob creates a Job.
func NewJob(fetcher repository.Fetcher, timing entity.Timing, logger *zap.Logger) *Job {
	metrics.Init()
	return &Job{fetcher: fetcher, timing: timing, logger: logger, now: time.Now}
}

// Run downloads req with at most MaxRetries retries. Each retry swaps the
// URL extension along the fallback cascade and writes to a fresh file name.
// Run never returns an error; failures are reported in the outcome.
func (j *Job) Run(ctx context.Context, req Request, onRetry RetryFunc) entity.DownloadOutcome {
	start := j.now()
	out := entity.DownloadOutcome{Descriptor: req.Descriptor, Page: req.Page, Index: req.Index}
	log := j.logger.With(zap.String("number", out.Number()), zap.String("key", req.Key))

	current := req.Descriptor.SourceURL
	if current == "" {
		out.FinalError = entity.KindDownload
		out.Err = fmt.Errorf("%w: empty source url", entity.ErrDownload).Error()
		out.CompletedAt = j.now()
		return out
	}
	ext := initialExtension(urlPath(current))

	var lastErr error
	for retries := 0; ; {
		dest := filepath.Join(req.DestinationDir, FileName(req.Key, req.Page, req.Index, tokens.next(), ext))
		out.URL, out.DestinationPath = current, dest
		out.Attempts++
		metrics.DownloadAttempts.WithLabelValues(ext).Inc()

		lastErr = j.fetcher.FetchToFile(ctx, current, dest, req.Proxy, j.timing.FetchTimeout)
		if lastErr == nil {
			out.Succeeded = true
			break
		}
		if retries >= MaxRetries || ctx.Err() != nil {
			break
		}

		retries++
		ext = ExtensionForRetry(retries)
		current = utils.ReplaceExt(current, ext)
		log.Warn("download attempt failed, retrying",
			zap.Int("retry", retries), zap.String("next_url", current), zap.Error(lastErr))
		if onRetry != nil {
			onRetry(retries, current, lastErr)
		}
		if err := utils.Sleep(ctx, j.timing.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	out.CompletedAt = j.now()
	metrics.DownloadDuration.Observe(out.CompletedAt.Sub(start).Seconds())

	if out.Succeeded {
		metrics.DownloadsTotal.WithLabelValues("success", "").Inc()
		log.Info("downloaded image", zap.String("url", out.URL), zap.Int("attempts", out.Attempts))
		return out
	}

	out.FinalError = entity.KindDownload
	out.Err = fmt.Errorf("%w: %w", entity.ErrDownload, lastErr).Error()
	metrics.DownloadsTotal.WithLabelValues("failure", string(entity.KindDownload)).Inc()
	log.Error("download failed", zap.String("url", out.URL), zap.Int("attempts", out.Attempts), zap.Error(lastErr))
	return out
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
