// Package testutil provides in-memory fakes of the repository interfaces.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

// Click is one recorded ClickNth call.
type Click struct {
	Selector   string
	N          int
	Descendant string
}

// Key returns the action key used to look up a page transition.
func (c Click) Key() string {
	if c.Descendant == "" {
		return fmt.Sprintf("click:%s#%d", c.Selector, c.N)
	}
	return fmt.Sprintf("click:%s#%d>%s", c.Selector, c.N, c.Descendant)
}

// EnterKey is the transition key for PressEnter.
const EnterKey = "enter"

// FakeBrowser renders canned HTML documents. Selectors are evaluated against
// the current document with goquery, so fixtures behave like the live site.
type FakeBrowser struct {
	mu sync.Mutex

	// Pages maps a URL (or any page key) to its HTML.
	Pages map[string]string
	// Transitions maps an action key (EnterKey or Click.Key) to the page key
	// that becomes current after the action.
	Transitions map[string]string
	// Height is reported by ScrollHeight.
	Height int
	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error

	Current     string
	Navigations []string
	Typed       map[string]string
	Clicks      []Click
	Scrolls     []int
	Closed      bool
}

// NewFakeBrowser returns a FakeBrowser serving pages.
func NewFakeBrowser(pages map[string]string) *FakeBrowser {
	return &FakeBrowser{
		Pages:       pages,
		Transitions: map[string]string{},
		Typed:       map[string]string{},
	}
}

var _ repository.Browser = (*FakeBrowser)(nil)

func (f *FakeBrowser) doc() (*goquery.Document, error) {
	html, ok := f.Pages[f.Current]
	if !ok {
		return nil, fmt.Errorf("%w: no page for %q", repository.ErrNavigationFailed, f.Current)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *FakeBrowser) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, url)
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.Current = url
	return nil
}

func (f *FakeBrowser) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.doc()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", repository.ErrSelectorTimeout, selector)
	}
	return nil
}

func (f *FakeBrowser) HTML(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.Pages[f.Current]
	if !ok {
		return "", fmt.Errorf("%w: no page for %q", repository.ErrNavigationFailed, f.Current)
	}
	return html, nil
}

func (f *FakeBrowser) Type(_ context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Typed[selector] += text
	return nil
}

func (f *FakeBrowser) PressEnter(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if next, ok := f.Transitions[EnterKey]; ok {
		f.Current = next
	}
	return nil
}

func (f *FakeBrowser) ClickNth(_ context.Context, selector string, n int, descendant string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.doc()
	if err != nil {
		return err
	}
	target := doc.Find(selector)
	if n >= target.Length() {
		return fmt.Errorf("%w: %s #%d", repository.ErrNodeNotFound, selector, n)
	}
	if descendant != "" && target.Eq(n).Find(descendant).Length() == 0 {
		return fmt.Errorf("%w: %s inside %s #%d", repository.ErrNodeNotFound, descendant, selector, n)
	}
	click := Click{Selector: selector, N: n, Descendant: descendant}
	f.Clicks = append(f.Clicks, click)
	if next, ok := f.Transitions[click.Key()]; ok {
		f.Current = next
	}
	return nil
}

func (f *FakeBrowser) ScrollHeight(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Height, nil
}

func (f *FakeBrowser) ScrollTo(_ context.Context, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scrolls = append(f.Scrolls, y)
	return nil
}

func (f *FakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (f *FakeBrowser) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}

// FakeSessions hands out a single prepared browser.
type FakeSessions struct {
	Browser *FakeBrowser
	Err     error
	Opened  int
}

func (s *FakeSessions) Open(_ context.Context, _ entity.SessionOptions) (repository.Browser, error) {
	s.Opened++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Browser, nil
}

// StallingBrowser is a FakeBrowser whose page loads never finish; Navigate
// returns only once ctx is done.
type StallingBrowser struct {
	*FakeBrowser
}

func (s StallingBrowser) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.Navigations = append(s.Navigations, url)
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}
