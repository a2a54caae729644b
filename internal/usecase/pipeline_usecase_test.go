package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/downloader"
	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/extractor"
	"github.com/user/illust-harvester/internal/site"
	"github.com/user/illust-harvester/internal/testutil"
)

type recordingFailures struct {
	mu       sync.Mutex
	outcomes []entity.DownloadOutcome
}

func (r *recordingFailures) Record(_ context.Context, _ string, o entity.DownloadOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *recordingFailures) ListByJob(context.Context, string, int) ([]entity.DownloadOutcome, error) {
	return r.outcomes, nil
}

type harness struct {
	site      site.Site
	browser   *testutil.FakeBrowser
	sessions  *testutil.FakeSessions
	fetcher   *testutil.FakeFetcher
	publisher *testutil.RecordingPublisher
	audit     *testutil.RecordingAudit
	failures  *recordingFailures
	pipeline  Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := site.Default()
	b := testutil.NewFakeBrowser(map[string]string{})
	b.ScriptLogin(s.LoginURL, 5)

	h := &harness{
		site:      s,
		browser:   b,
		sessions:  &testutil.FakeSessions{Browser: b},
		fetcher:   testutil.NewFakeFetcher(),
		publisher: &testutil.RecordingPublisher{},
		audit:     &testutil.RecordingAudit{},
		failures:  &recordingFailures{},
	}

	timing := entity.Timing{}
	logger := zap.NewNop()
	driver := site.NewDriver(s, timing, logger)
	h.pipeline = NewPipelineUseCase(PipelineDeps{
		Sessions:      h.sessions,
		Authenticator: driver,
		Strategies:    driver,
		Extractor:     extractor.NewPageExtractor(timing, logger),
		Downloader:    downloader.NewJob(h.fetcher, timing, logger),
		Publisher:     h.publisher,
		Audit:         h.audit,
		Failures:      h.failures,
		Timing:        timing,
		Logger:        logger,
	})
	return h
}

func (h *harness) rankingPage(category string, page int, items ...testutil.Thumb) {
	h.browser.Pages[site.RankingURL(h.site.BaseURL, category, page)] = testutil.RankingPage(items...)
}

func rankingJob(start, end int) entity.Job {
	return entity.Job{
		ID:             "job-1",
		Kind:           entity.JobKindRanking,
		Key:            "day",
		PageStart:      start,
		PageEnd:        end,
		DestinationDir: "/tmp/out",
		ChannelID:      "desk",
	}
}

func countState(logs []entity.LogEvent, state entity.LogState) int {
	n := 0
	for _, l := range logs {
		if l.State == state {
			n++
		}
	}
	return n
}

func TestPipelineDayRankingWithOneFailure(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1,
		testutil.Thumb{Src: testutil.RankingThumb(1), Author: "alice", Title: "Sea"},
		testutil.Thumb{Src: testutil.RankingThumb(2), Author: "bob", Title: "Sky"},
	)
	h.fetcher.FailTimes(testutil.RankingOriginal(2), 10)

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 1))

	assert.Equal(t, entity.JobStateCompleted, summary.State)
	assert.Equal(t, []int{1}, summary.PagesCompleted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 5, summary.Attempts)
	assert.Equal(t, 5, h.fetcher.CallCount())
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "P1_2", summary.Failures[0].Number())

	require.Equal(t, 1, h.audit.Len())
	rec := h.audit.Records[0]
	assert.Equal(t, "P1_1", rec.Number)
	assert.Equal(t, "day ranking", rec.Type)
	assert.Equal(t, "alice", rec.Author)
	assert.Equal(t, testutil.RankingOriginal(1), rec.ImageURL)
	assert.Equal(t, "/tmp/out", rec.Destination)
	assert.True(t, strings.HasPrefix(rec.ImageName, "image_day_p1_1_"))
	assert.Equal(t, filepath.Join("/tmp/out", rec.ImageName), rec.DestinationPath)
	assert.True(t, rec.Succeeded)

	progress := h.publisher.Progress()
	require.Len(t, progress, 1)
	assert.Equal(t, rec, progress[0])

	logs := h.publisher.Logs()
	// three retry warnings plus the summary
	assert.Equal(t, 4, countState(logs, entity.LogWarning))
	assert.Equal(t, 1, countState(logs, entity.LogError))
	last := logs[len(logs)-1]
	assert.Equal(t, entity.LogWarning, last.State)
	assert.Contains(t, last.Message, "downloaded pages 1 ~ 1")
	assert.Contains(t, last.Message, "P1_2")

	require.Len(t, h.failures.outcomes, 1)
	assert.Equal(t, 4, h.failures.outcomes[0].Attempts)
	assert.True(t, h.browser.IsClosed())

	for _, e := range h.publisher.Events {
		assert.Equal(t, "desk", e.Channel)
	}
}

func TestPipelinePagesInOrder(t *testing.T) {
	h := newHarness(t)
	for p := 2; p <= 4; p++ {
		h.rankingPage("day", p, testutil.Thumb{Src: testutil.RankingThumb(p), Author: "a", Title: "t"})
	}

	summary := h.pipeline.Run(context.Background(), rankingJob(2, 4))

	assert.Equal(t, entity.JobStateCompleted, summary.State)
	assert.Equal(t, []int{2, 3, 4}, summary.PagesCompleted)
	assert.Equal(t, []string{
		h.site.LoginURL,
		site.RankingURL(h.site.BaseURL, "day", 2),
		site.RankingURL(h.site.BaseURL, "day", 3),
		site.RankingURL(h.site.BaseURL, "day", 4),
	}, h.browser.Navigations)

	var numbers []string
	for _, r := range h.audit.Records {
		numbers = append(numbers, r.Number)
	}
	assert.Equal(t, []string{"P2_1", "P3_1", "P4_1"}, numbers)

	last := h.publisher.Logs()[len(h.publisher.Logs())-1]
	assert.Equal(t, entity.LogSuccess, last.State)
	assert.Contains(t, last.Message, "downloaded pages 2 ~ 4")
}

func TestPipelineEmptyPageContinues(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1)
	h.rankingPage("day", 2, testutil.Thumb{Src: testutil.RankingThumb(9), Author: "a", Title: "t"})

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 2))

	assert.Equal(t, entity.JobStateCompleted, summary.State)
	assert.Equal(t, []int{1, 2}, summary.PagesCompleted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, h.fetcher.CallCount())
}

func TestPipelineSkipsItemsWithoutImage(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1,
		testutil.Thumb{Author: "a", Title: "no image"},
		testutil.Thumb{Src: testutil.RankingThumb(2), Author: "b", Title: "t"},
	)

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 1))

	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	require.Equal(t, 1, h.audit.Len())
	assert.Equal(t, "P1_2", h.audit.Records[0].Number)
}

func TestPipelineTrivialRange(t *testing.T) {
	h := newHarness(t)

	summary := h.pipeline.Run(context.Background(), rankingJob(3, 2))

	assert.Equal(t, entity.JobStateCompleted, summary.State)
	assert.Empty(t, summary.PagesCompleted)
	assert.Zero(t, h.sessions.Opened)
	assert.Zero(t, h.fetcher.CallCount())
	logs := h.publisher.Logs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "downloaded pages 3 ~ 2")
}

func TestPipelineSearchResolutionAbort(t *testing.T) {
	h := newHarness(t)
	h.browser.ScriptSearch(4, 3, "/users/1")

	job := rankingJob(1, 3)
	job.Kind = entity.JobKindSearch
	job.Key = "nobody"
	summary := h.pipeline.Run(context.Background(), job)

	assert.Equal(t, entity.JobStateAborted, summary.State)
	assert.Equal(t, entity.KindSearchResolution, summary.AbortKind)
	assert.Empty(t, summary.PagesCompleted)
	assert.Zero(t, h.fetcher.CallCount())
	assert.Zero(t, h.audit.Len())

	logs := h.publisher.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, entity.LogError, logs[0].State)
	assert.True(t, h.browser.IsClosed())
}

func TestPipelineSearchDownloadsAuthorListing(t *testing.T) {
	h := newHarness(t)
	h.browser.ScriptSearch(5, 3, "/users/4242")
	strategy := site.NewAuthorStrategy(h.site, "mika", "/users/4242")
	h.browser.Pages[strategy.PageURL(1)] = testutil.AuthorPage(testutil.Thumb{Src: testutil.AuthorThumb(3), Title: "Dawn"})
	h.browser.Height = 900

	job := rankingJob(1, 1)
	job.Kind = entity.JobKindSearch
	job.Key = "mika"
	summary := h.pipeline.Run(context.Background(), job)

	require.Equal(t, entity.JobStateCompleted, summary.State, summary.AbortReason)
	assert.Equal(t, 1, summary.Succeeded)
	require.Equal(t, 1, h.audit.Len())
	assert.Equal(t, "mika", h.audit.Records[0].Author)
	assert.Equal(t, "Dawn", h.audit.Records[0].Title)
	assert.Equal(t, testutil.AuthorOriginal(3), h.audit.Records[0].ImageURL)
	assert.NotEmpty(t, h.browser.Scrolls)
}

func TestPipelineExtractionAbort(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1, testutil.Thumb{Src: testutil.RankingThumb(1), Author: "a", Title: "t"})
	h.browser.Pages[site.RankingURL(h.site.BaseURL, "day", 2)] = "<html><body>rate limited</body></html>"

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 3))

	assert.Equal(t, entity.JobStateAborted, summary.State)
	assert.Equal(t, entity.KindExtraction, summary.AbortKind)
	assert.Equal(t, []int{1}, summary.PagesCompleted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.NotContains(t, h.browser.Navigations, site.RankingURL(h.site.BaseURL, "day", 3))

	logs := h.publisher.Logs()
	assert.Equal(t, entity.LogError, logs[len(logs)-1].State)
	assert.Equal(t, 1, countState(logs, entity.LogError))
	assert.True(t, h.browser.IsClosed())
}

func TestPipelineAuthenticationAbortIsSilent(t *testing.T) {
	h := newHarness(t)
	h.browser.ScriptLogin(h.site.LoginURL, 3)

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 1))

	assert.Equal(t, entity.JobStateAborted, summary.State)
	assert.Equal(t, entity.KindAuthentication, summary.AbortKind)
	assert.Empty(t, h.publisher.Events)
	assert.True(t, h.browser.IsClosed())
}

func TestPipelineSessionOpenFailure(t *testing.T) {
	h := newHarness(t)
	h.sessions.Err = errors.New("chrome not found")

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 1))

	assert.Equal(t, entity.JobStateAborted, summary.State)
	assert.Contains(t, summary.AbortReason, "chrome not found")
	assert.Empty(t, h.publisher.Events)
}

func TestPipelineAuditFailureIsWarning(t *testing.T) {
	h := newHarness(t)
	h.audit.Err = entity.ErrAuditWrite
	h.rankingPage("day", 1, testutil.Thumb{Src: testutil.RankingThumb(1), Author: "a", Title: "t"})

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 1))

	assert.Equal(t, entity.JobStateCompleted, summary.State)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Len(t, h.publisher.Progress(), 1)

	var warned bool
	for _, l := range h.publisher.Logs() {
		if l.State == entity.LogWarning && strings.Contains(l.Message, "audit") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestPipelineRetryWarnings(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1, testutil.Thumb{Src: testutil.RankingThumb(1), Author: "a", Title: "t"})
	h.fetcher.FailTimes(testutil.RankingOriginal(1), 2)

	summary := h.pipeline.Run(context.Background(), rankingJob(1, 1))

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Attempts)
	assert.Equal(t, 3, h.audit.Records[0].Attempts)
	assert.True(t, strings.HasSuffix(h.audit.Records[0].ImageURL, ".jpeg"))

	logs := h.publisher.Logs()
	assert.Equal(t, 2, countState(logs, entity.LogWarning))
	assert.Contains(t, logs[0].Message, "retry 1")
	assert.Contains(t, logs[1].Message, "retry 2")
}

func TestPipelinePassesProxy(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1, testutil.Thumb{Src: testutil.RankingThumb(1), Author: "a", Title: "t"})

	job := rankingJob(1, 1)
	job.UseProxy = true
	job.ProxyPort = "7890"
	h.pipeline.Run(context.Background(), job)

	require.Equal(t, 1, h.fetcher.CallCount())
	assert.True(t, h.fetcher.Calls[0].Proxy.Enabled)
	assert.Equal(t, "7890", h.fetcher.Calls[0].Proxy.Port)
}

func TestPipelineCancelledJobStillDeliversTerminalEvent(t *testing.T) {
	h := newHarness(t)
	h.rankingPage("day", 1,
		testutil.Thumb{Src: testutil.RankingThumb(1), Author: "alice", Title: "Sea"},
		testutil.Thumb{Src: testutil.RankingThumb(2), Author: "bob", Title: "Sky"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.fetcher.OnFetch = func(string) { cancel() }

	summary := h.pipeline.Run(ctx, rankingJob(1, 1))

	assert.Equal(t, entity.JobStateAborted, summary.State)
	assert.Equal(t, 1, h.fetcher.CallCount())
	assert.True(t, h.browser.IsClosed())

	require.NotEmpty(t, h.publisher.Events)
	last := h.publisher.Events[len(h.publisher.Events)-1]
	require.Equal(t, entity.EventLog, last.Event)
	assert.Equal(t, entity.LogError, last.Payload.(entity.LogEvent).State)
	assert.NoError(t, last.CtxErr, "terminal event must be published on a live context")
}
