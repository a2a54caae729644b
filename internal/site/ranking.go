package site

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/illust-harvester/internal/entity"
)

// rankingModes maps a category key to its ranking.php mode parameter.
// An empty mode is the default daily listing.
var rankingModes = map[string]string{
	"day":      "",
	"week":     "weekly",
	"month":    "monthly",
	"day-r18":  "daily_r18",
	"week-r18": "weekly_r18",
	"r18g":     "r18g",
	"Ai":       "daily_ai",
	"Ai-r18":   "daily_r18_ai",
}

// Categories lists the known ranking categories in stable order.
func Categories() []string {
	keys := make([]string, 0, len(rankingModes))
	for k := range rankingModes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RankingURL builds the listing URL for category. Unknown categories fall
// back to the default daily ranking.
func RankingURL(base, category string, page int) string {
	base = strings.TrimSuffix(base, "/")
	mode := rankingModes[category]
	if mode == "" {
		return fmt.Sprintf("%s/ranking.php?p=%d", base, page)
	}
	return fmt.Sprintf("%s/ranking.php?mode=%s&p=%d", base, mode, page)
}

// RankingStrategy extracts from the category ranking listing.
type RankingStrategy struct {
	site     Site
	category string
}

// NewRankingStrategy returns the strategy for a ranking category.
func NewRankingStrategy(s Site, category string) *RankingStrategy {
	return &RankingStrategy{site: s, category: category}
}

func (r *RankingStrategy) Name() string   { return "ranking" }
func (r *RankingStrategy) Key() string    { return r.category }
func (r *RankingStrategy) Label() string  { return r.category + " ranking" }
func (r *RankingStrategy) Anchor() string { return r.site.Layout.RankingAnchor }
func (r *RankingStrategy) LazyLoad() bool { return false }

func (r *RankingStrategy) PageURL(page int) string {
	return RankingURL(r.site.BaseURL, r.category, page)
}

// Parse reads one descriptor per ranking item. Items without a thumbnail
// yield an empty SourceURL and are kept so positions stay stable.
func (r *RankingStrategy) Parse(doc *goquery.Document) []entity.AssetDescriptor {
	l := r.site.Layout
	var out []entity.AssetDescriptor
	doc.Find(l.RankingItem).Each(func(_ int, item *goquery.Selection) {
		thumb, _ := item.Find(l.RankingImage).First().Attr(l.RankingImageAttr)
		author, _ := item.Find(l.RankingAuthor).First().Attr(l.RankingAuthorAttr)
		out = append(out, entity.AssetDescriptor{
			SourceURL: RankingOriginal(strings.TrimSpace(thumb), r.site.ImageOrigin),
			Author:    strings.TrimSpace(author),
			Title:     strings.TrimSpace(item.Find(l.RankingTitle).First().Text()),
		})
	})
	return out
}
