package extractor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/extractor"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/internal/site"
	"github.com/user/illust-harvester/internal/testutil"
)

func TestExtractRanking(t *testing.T) {
	s := site.NewRankingStrategy(site.Default(), "day")
	b := testutil.NewFakeBrowser(map[string]string{
		s.PageURL(2): testutil.RankingPage(
			testutil.Thumb{Src: testutil.RankingThumb(10), Author: "a", Title: "t1"},
			testutil.Thumb{Src: testutil.RankingThumb(11), Author: "b", Title: "t2"},
		),
	})

	e := extractor.NewPageExtractor(entity.Timing{}, zap.NewNop())
	got, err := e.Extract(context.Background(), b, s, 2)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, testutil.RankingOriginal(10), got[0].SourceURL)
	assert.Equal(t, testutil.RankingOriginal(11), got[1].SourceURL)
	assert.Equal(t, []string{s.PageURL(2)}, b.Navigations)
	assert.Empty(t, b.Scrolls)
}

func TestExtractAnchorMissing(t *testing.T) {
	s := site.NewRankingStrategy(site.Default(), "day")
	b := testutil.NewFakeBrowser(map[string]string{s.PageURL(1): "<html><body><p>maintenance</p></body></html>"})

	e := extractor.NewPageExtractor(entity.Timing{}, zap.NewNop())
	_, err := e.Extract(context.Background(), b, s, 1)
	assert.ErrorIs(t, err, entity.ErrExtraction)
	assert.Equal(t, entity.KindExtraction, entity.KindOf(err))
}

func TestExtractNavigationFailure(t *testing.T) {
	s := site.NewRankingStrategy(site.Default(), "day")
	b := testutil.NewFakeBrowser(map[string]string{})
	b.NavigateErr = errors.New("net::ERR_CONNECTION_RESET")

	e := extractor.NewPageExtractor(entity.Timing{}, zap.NewNop())
	_, err := e.Extract(context.Background(), b, s, 1)
	assert.ErrorIs(t, err, entity.ErrExtraction)
}

func TestExtractPageLoadIsBounded(t *testing.T) {
	s := site.NewRankingStrategy(site.Default(), "day")
	b := testutil.StallingBrowser{FakeBrowser: testutil.NewFakeBrowser(map[string]string{})}

	e := extractor.NewPageExtractor(entity.Timing{AnchorTimeout: 50 * time.Millisecond}, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := e.Extract(context.Background(), b, s, 1)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, entity.ErrExtraction)
		assert.ErrorIs(t, err, repository.ErrNavigationFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("Extract did not give up on a page that never loads")
	}
}

func TestNavigateUsesNavigationTimeout(t *testing.T) {
	b := testutil.StallingBrowser{FakeBrowser: testutil.NewFakeBrowser(map[string]string{})}

	start := time.Now()
	err := extractor.Navigate(context.Background(), b, "https://example.test/", 20*time.Millisecond)
	assert.ErrorIs(t, err, repository.ErrNavigationFailed)
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = extractor.Navigate(ctx, b, "https://example.test/", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, repository.ErrNavigationFailed)
}

func TestExtractLazyListingScrolls(t *testing.T) {
	s := site.NewAuthorStrategy(site.Default(), "mika", "/users/1")
	b := testutil.NewFakeBrowser(map[string]string{
		s.PageURL(1): testutil.AuthorPage(testutil.Thumb{Src: testutil.AuthorThumb(5), Title: "x"}),
	})
	b.Height = 700

	e := extractor.NewPageExtractor(entity.Timing{ScrollStep: 300}, zap.NewNop())
	got, err := e.Extract(context.Background(), b, s, 1)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, testutil.AuthorOriginal(5), got[0].SourceURL)
	assert.Equal(t, []int{300, 600, 700}, b.Scrolls)
}

func TestExtractEmptyLazyListing(t *testing.T) {
	s := site.NewAuthorStrategy(site.Default(), "mika", "/users/1")
	b := testutil.NewFakeBrowser(map[string]string{s.PageURL(3): testutil.AuthorPage()})

	e := extractor.NewPageExtractor(entity.Timing{}, zap.NewNop())
	got, err := e.Extract(context.Background(), b, s, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, b.Scrolls)
}
