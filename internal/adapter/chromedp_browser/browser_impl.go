package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

// ChromedpBrowser implements repository.Browser on a single chromedp tab.
// Calls without an explicit bound are limited by navTimeout (page loads) or
// actionTimeout (everything else).
type ChromedpBrowser struct {
	ctx    context.Context
	cancel context.CancelFunc

	navTimeout    time.Duration
	actionTimeout time.Duration
}

var _ repository.Browser = (*ChromedpBrowser)(nil)

func newChromedpBrowser(tabCtx context.Context, cancel context.CancelFunc, timing entity.Timing) *ChromedpBrowser {
	return &ChromedpBrowser{
		ctx:           tabCtx,
		cancel:        cancel,
		navTimeout:    timing.NavigationBound(),
		actionTimeout: timing.AnchorTimeout,
	}
}

// run executes actions on the tab, bounded by timeout (or the action
// timeout when zero) and cancelled together with ctx.
func (b *ChromedpBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = b.actionTimeout
	}
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(b.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(b.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *ChromedpBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, b.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	return nil
}

func (b *ChromedpBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := b.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", repository.ErrSelectorTimeout, selector, timeout)
	}
	return err
}

func (b *ChromedpBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (b *ChromedpBrowser) Type(ctx context.Context, selector, text string) error {
	return b.run(ctx, 0,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (b *ChromedpBrowser) PressEnter(ctx context.Context, selector string) error {
	return b.run(ctx, 0, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery))
}

func (b *ChromedpBrowser) ClickNth(ctx context.Context, selector string, n int, descendant string) error {
	var nodes []*cdp.Node
	if err := b.run(ctx, 0, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll)); err != nil {
		return err
	}
	if n >= len(nodes) {
		return fmt.Errorf("%w: %s #%d of %d", repository.ErrNodeNotFound, selector, n, len(nodes))
	}
	target := nodes[n]

	if descendant != "" {
		var inner []*cdp.Node
		err := b.run(ctx, 0, chromedp.Nodes(descendant, &inner, chromedp.ByQuery, chromedp.FromNode(target)))
		if err != nil {
			return err
		}
		if len(inner) == 0 {
			return fmt.Errorf("%w: %s inside %s #%d", repository.ErrNodeNotFound, descendant, selector, n)
		}
		target = inner[0]
	}

	return b.run(ctx, 0, chromedp.MouseClickNode(target))
}

func (b *ChromedpBrowser) ScrollHeight(ctx context.Context) (int, error) {
	var height int
	if err := b.run(ctx, 0, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, err
	}
	return height, nil
}

func (b *ChromedpBrowser) ScrollTo(ctx context.Context, y int) error {
	return b.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, %d)`, y), nil))
}

// fitScreen sizes the viewport to the screen less the window chrome.
func (b *ChromedpBrowser) fitScreen(ctx context.Context, chrome int) error {
	var screen []int
	if err := b.run(ctx, 0, chromedp.Evaluate(`[window.screen.width, window.screen.height]`, &screen)); err != nil {
		return err
	}
	if len(screen) != 2 || screen[1] <= chrome {
		return nil
	}
	return b.run(ctx, 0, emulation.SetDeviceMetricsOverride(int64(screen[0]), int64(screen[1]-chrome), 1, false))
}

// Close shuts the tab and its browser process down.
func (b *ChromedpBrowser) Close() error {
	b.cancel()
	return nil
}
