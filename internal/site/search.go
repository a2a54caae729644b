package site

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/pkg/utils"
)

func searchErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", entity.ErrSearchResolution, step, err)
}

func searchErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entity.ErrSearchResolution, fmt.Sprintf(format, args...))
}

// ResolveAuthor runs the site search for name and returns the profile path
// of the first exact-match user result. The session must be logged in.
func (d *Driver) ResolveAuthor(ctx context.Context, b repository.Browser, name string) (string, error) {
	l := d.site.Layout
	log := d.logger.With(zap.String("author", name))

	if err := b.WaitVisible(ctx, l.SearchInput, d.timing.AnchorTimeout); err != nil {
		return "", searchErr("search box", err)
	}
	if err := b.Type(ctx, l.SearchInput, name); err != nil {
		return "", searchErr("typing query", err)
	}
	if err := utils.Sleep(ctx, d.timing.SearchTypeDelay); err != nil {
		return "", err
	}
	if err := b.PressEnter(ctx, l.SearchInput); err != nil {
		return "", searchErr("submitting query", err)
	}

	// result tabs: the users tab sits at a fixed position
	if err := b.WaitVisible(ctx, l.ResultTabs, d.timing.AnchorTimeout); err != nil {
		return "", searchErr("result tabs", err)
	}
	if err := utils.Sleep(ctx, d.timing.SettleDelay); err != nil {
		return "", err
	}
	tabs, err := count(ctx, b, l.ResultTabs)
	if err != nil {
		return "", searchErr("reading result tabs", err)
	}
	if tabs <= l.UsersTabIndex {
		return "", searchErrf("found %d result tabs, users tab is #%d", tabs, l.UsersTabIndex+1)
	}
	if err := b.ClickNth(ctx, l.ResultTabs, l.UsersTabIndex, ""); err != nil {
		return "", searchErr("opening users tab", err)
	}

	// match groupings: pick the exact-match group
	if err := b.WaitVisible(ctx, l.SearchLayoutAnchor, d.timing.AnchorTimeout); err != nil {
		return "", searchErr("user results layout", err)
	}
	if err := utils.Sleep(ctx, d.timing.SettleDelay); err != nil {
		return "", err
	}
	doc, err := snapshot(ctx, b)
	if err != nil {
		return "", searchErr("reading match groupings", err)
	}
	groups := doc.Find(l.ResultGroupings)
	if groups.Length() <= l.ExactMatchGroupIndex {
		return "", searchErrf("found %d match groupings, exact match is #%d", groups.Length(), l.ExactMatchGroupIndex+1)
	}
	if groups.Eq(l.ExactMatchGroupIndex).Find(l.GroupingLink).Length() == 0 {
		return "", searchErrf("exact match grouping has no link")
	}
	if err := b.ClickNth(ctx, l.ResultGroupings, l.ExactMatchGroupIndex, l.GroupingLink); err != nil {
		return "", searchErr("selecting exact match", err)
	}

	// user results: first entry wins
	if err := b.WaitVisible(ctx, l.UserResultsAnchor, d.timing.AnchorTimeout); err != nil {
		return "", searchErr("user result list", err)
	}
	if err := utils.Sleep(ctx, d.timing.SettleDelay); err != nil {
		return "", err
	}
	doc, err = snapshot(ctx, b)
	if err != nil {
		return "", searchErr("reading user results", err)
	}
	href, ok := doc.Find(l.UserResultLink).First().Attr("href")
	if !ok || href == "" {
		return "", searchErrf("no user matched %q", name)
	}

	log.Info("resolved author profile", zap.String("profile", href))
	return href, nil
}
