package site

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/pkg/utils"
)

// AuthorStrategy extracts from an author's illustration listing.
type AuthorStrategy struct {
	site    Site
	author  string
	profile string
}

// NewAuthorStrategy returns the strategy for the author whose profile lives
// at profilePath (relative or absolute).
func NewAuthorStrategy(s Site, author, profilePath string) *AuthorStrategy {
	profile := strings.TrimSuffix(s.BaseURL, "/") + profilePath
	if base, err := url.Parse(s.BaseURL); err == nil {
		if abs, err := utils.ToAbsoluteURL(base, profilePath); err == nil {
			profile = abs
		}
	}
	return &AuthorStrategy{site: s, author: author, profile: strings.TrimSuffix(profile, "/")}
}

func (a *AuthorStrategy) Name() string   { return "author" }
func (a *AuthorStrategy) Key() string    { return a.author }
func (a *AuthorStrategy) Label() string  { return a.author }
func (a *AuthorStrategy) Anchor() string { return a.site.Layout.IllustAnchor }
func (a *AuthorStrategy) LazyLoad() bool { return true }

func (a *AuthorStrategy) PageURL(page int) string {
	return fmt.Sprintf("%s/illustrations?p=%d", a.profile, page)
}

// Parse reads one descriptor per listing tile. The author is always the
// searched name; the title comes from the image alt text.
func (a *AuthorStrategy) Parse(doc *goquery.Document) []entity.AssetDescriptor {
	l := a.site.Layout
	var out []entity.AssetDescriptor
	doc.Find(l.IllustItem).Each(func(_ int, item *goquery.Selection) {
		img := item.Find(l.IllustImage).First()
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		out = append(out, entity.AssetDescriptor{
			SourceURL: AuthorOriginal(strings.TrimSpace(src), a.site.ImageOrigin),
			Author:    a.author,
			Title:     strings.TrimSpace(alt),
		})
	})
	return out
}
