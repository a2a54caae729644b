package site

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/extractor"
	"github.com/user/illust-harvester/internal/repository"
)

// Driver performs the interactive flows on a live browser session: login,
// author search and strategy selection.
type Driver struct {
	site   Site
	timing entity.Timing
	logger *zap.Logger
}

// NewDriver creates a Driver for s.
func NewDriver(s Site, timing entity.Timing, logger *zap.Logger) *Driver {
	return &Driver{site: s, timing: timing, logger: logger}
}

// Resolve picks the extraction strategy for job. Search jobs resolve the
// author profile first, which needs an authenticated session.
func (d *Driver) Resolve(ctx context.Context, b repository.Browser, job entity.Job) (extractor.Strategy, error) {
	switch job.Kind {
	case entity.JobKindSearch:
		profile, err := d.ResolveAuthor(ctx, b, job.Key)
		if err != nil {
			return nil, err
		}
		return NewAuthorStrategy(d.site, job.Key, profile), nil
	case entity.JobKindRanking:
		return NewRankingStrategy(d.site, job.Key), nil
	default:
		return nil, fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// snapshot parses the current document of b.
func snapshot(ctx context.Context, b repository.Browser) (*goquery.Document, error) {
	html, err := b.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// count returns how many nodes match selector in the current document.
func count(ctx context.Context, b repository.Browser, selector string) (int, error) {
	doc, err := snapshot(ctx, b)
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}
