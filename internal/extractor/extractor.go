// Package extractor turns a rendered listing page into asset descriptors.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/pkg/utils"
)

// Strategy is the site-specific rule set for one kind of listing.
type Strategy interface {
	// Name identifies the strategy in logs and metrics ("ranking", "author").
	Name() string
	// Key is the category or author the listing belongs to.
	Key() string
	// Label is the operator-facing description used in progress events.
	Label() string
	// PageURL returns the listing URL for a 1-based page number.
	PageURL(page int) string
	// Anchor is the selector that must exist once the listing has loaded.
	Anchor() string
	// LazyLoad reports whether items only render as the viewport descends.
	LazyLoad() bool
	// Parse reads descriptors from the rendered document, in DOM order.
	Parse(doc *goquery.Document) []entity.AssetDescriptor
}

// PageExtractor navigates to a listing page and extracts its descriptors.
type PageExtractor struct {
	timing entity.Timing
	logger *zap.Logger
}

// NewPageExtractor creates a PageExtractor.
func NewPageExtractor(timing entity.Timing, logger *zap.Logger) *PageExtractor {
	return &PageExtractor{timing: timing, logger: logger}
}

// Extract loads page of the strategy's listing and returns its descriptors.
// Any failure to reach a usable page is wrapped in entity.ErrExtraction.
func (e *PageExtractor) Extract(ctx context.Context, b repository.Browser, s Strategy, page int) ([]entity.AssetDescriptor, error) {
	pageURL := s.PageURL(page)
	log := e.logger.With(zap.String("strategy", s.Name()), zap.Int("page", page), zap.String("url", pageURL))

	if err := Navigate(ctx, b, pageURL, e.timing.NavigationBound()); err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", entity.ErrExtraction, page, err)
	}
	if err := b.WaitVisible(ctx, s.Anchor(), e.timing.AnchorTimeout); err != nil {
		return nil, fmt.Errorf("%w: page %d: anchor %q: %w", entity.ErrExtraction, page, s.Anchor(), err)
	}
	if err := utils.Sleep(ctx, e.timing.SettleDelay); err != nil {
		return nil, err
	}

	if s.LazyLoad() {
		if err := e.scrollToBottom(ctx, b); err != nil {
			return nil, fmt.Errorf("%w: page %d: scrolling: %w", entity.ErrExtraction, page, err)
		}
	}

	html, err := b.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: reading document: %w", entity.ErrExtraction, page, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: parsing document: %w", entity.ErrExtraction, page, err)
	}

	descriptors := s.Parse(doc)
	log.Info("extracted listing page", zap.Int("items", len(descriptors)))
	return descriptors, nil
}
