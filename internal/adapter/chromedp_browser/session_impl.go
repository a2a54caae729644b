package chromedp_browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

// windowChrome is the height taken by the browser UI around the page.
const windowChrome = 120

// UserAgentSource supplies the User-Agent of each new session.
type UserAgentSource interface {
	Next() string
}

// SessionFactory launches a fresh Chrome process per job.
type SessionFactory struct {
	agents UserAgentSource
	timing entity.Timing
	logger *zap.Logger
}

// NewSessionFactory creates a new chromedp session factory. Page loads are
// bounded by timing.NavigationBound and other browser calls by the anchor timeout.
func NewSessionFactory(agents UserAgentSource, timing entity.Timing, logger *zap.Logger) repository.SessionFactory {
	return &SessionFactory{agents: agents, timing: timing, logger: logger}
}

func allocatorOptions(opts entity.SessionOptions, userAgent string) []chromedp.ExecAllocatorOption {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
	)
	if userAgent != "" {
		flags = append(flags, chromedp.UserAgent(userAgent))
	}
	if opts.ExecutablePath != "" {
		flags = append(flags, chromedp.ExecPath(opts.ExecutablePath))
	}
	return flags
}

// Open starts the browser and returns its first tab.
func (f *SessionFactory) Open(ctx context.Context, opts entity.SessionOptions) (repository.Browser, error) {
	var ua string
	if f.agents != nil {
		ua = f.agents.Next()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts, ua)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))

	b := newChromedpBrowser(tabCtx, func() {
		tabCancel()
		allocCancel()
	}, f.timing)

	// the first Run launches the process and binds it to tabCtx, so it
	// must not use a derived context
	if err := chromedp.Run(tabCtx); err != nil {
		b.cancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	if err := b.fitScreen(ctx, windowChrome); err != nil {
		f.logger.Warn("failed to size viewport", zap.Error(err))
	}

	f.logger.Info("browser session opened",
		zap.Bool("headless", opts.Headless),
		zap.String("executable", opts.ExecutablePath),
	)
	return b, nil
}
