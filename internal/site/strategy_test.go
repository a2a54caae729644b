package site_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/site"
	"github.com/user/illust-harvester/internal/testutil"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRankingURL(t *testing.T) {
	base := "https://www.pixiv.net"
	tests := map[string]string{
		"day":      base + "/ranking.php?p=3",
		"week":     base + "/ranking.php?mode=weekly&p=3",
		"month":    base + "/ranking.php?mode=monthly&p=3",
		"day-r18":  base + "/ranking.php?mode=daily_r18&p=3",
		"week-r18": base + "/ranking.php?mode=weekly_r18&p=3",
		"r18g":     base + "/ranking.php?mode=r18g&p=3",
		"Ai":       base + "/ranking.php?mode=daily_ai&p=3",
		"Ai-r18":   base + "/ranking.php?mode=daily_r18_ai&p=3",
		"unknown":  base + "/ranking.php?p=3",
	}
	for category, want := range tests {
		assert.Equal(t, want, site.RankingURL(base+"/", category, 3), category)
	}
	assert.Len(t, site.Categories(), 8)
}

func TestRankingStrategyParse(t *testing.T) {
	s := site.NewRankingStrategy(site.Default(), "day")

	assert.Equal(t, "ranking", s.Name())
	assert.Equal(t, "day", s.Key())
	assert.False(t, s.LazyLoad())

	doc := parse(t, testutil.RankingPage(
		testutil.Thumb{Src: testutil.RankingThumb(1), Author: "alice", Title: "Sea"},
		testutil.Thumb{Author: "bob", Title: "No image"},
		testutil.Thumb{Src: testutil.RankingThumb(3), Author: "carol", Title: "Sky"},
	))

	got := s.Parse(doc)
	require.Len(t, got, 3)
	assert.Equal(t, entity.AssetDescriptor{SourceURL: testutil.RankingOriginal(1), Author: "alice", Title: "Sea"}, got[0])
	assert.Equal(t, entity.AssetDescriptor{Author: "bob", Title: "No image"}, got[1])
	assert.Equal(t, testutil.RankingOriginal(3), got[2].SourceURL)
}

func TestRankingStrategyEmptyListing(t *testing.T) {
	s := site.NewRankingStrategy(site.Default(), "week")
	assert.Empty(t, s.Parse(parse(t, testutil.RankingPage())))
}

func TestAuthorStrategy(t *testing.T) {
	s := site.NewAuthorStrategy(site.Default(), "mika", "/users/4242")

	assert.Equal(t, "author", s.Name())
	assert.Equal(t, "mika", s.Key())
	assert.True(t, s.LazyLoad())
	assert.Equal(t, "https://www.pixiv.net/users/4242/illustrations?p=2", s.PageURL(2))

	doc := parse(t, testutil.AuthorPage(
		testutil.Thumb{Src: testutil.AuthorThumb(7), Title: "Dawn"},
		testutil.Thumb{Title: "missing"},
	))
	got := s.Parse(doc)
	require.Len(t, got, 2)
	assert.Equal(t, entity.AssetDescriptor{SourceURL: testutil.AuthorOriginal(7), Author: "mika", Title: "Dawn"}, got[0])
	assert.Empty(t, got[1].SourceURL)
	assert.Equal(t, "mika", got[1].Author)
}

func TestAuthorStrategyAbsoluteProfile(t *testing.T) {
	s := site.NewAuthorStrategy(site.Default(), "mika", "https://www.pixiv.net/en/users/5/")
	assert.Equal(t, "https://www.pixiv.net/en/users/5/illustrations?p=1", s.PageURL(1))
}
