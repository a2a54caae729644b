package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/illust-harvester/internal/entity"
)

var (
	// ErrSelectorTimeout is returned when a selector does not appear within its bound.
	ErrSelectorTimeout = errors.New("timed out waiting for selector")
	// ErrNavigationFailed is returned when the browser could not load a URL.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrNodeNotFound is returned when a positional click target does not exist.
	ErrNodeNotFound = errors.New("node not found")
)

// Browser is the rendering capability the pipeline drives. One Browser is one
// page in one session; calls must not be issued concurrently.
type Browser interface {
	// Navigate loads url in the current page.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)
	// Type focuses selector and types text into it.
	Type(ctx context.Context, selector, text string) error
	// PressEnter sends an Enter key press to selector.
	PressEnter(ctx context.Context, selector string) error
	// ClickNth clicks the n-th (0-based) match of selector. When descendant is
	// non-empty the first match of descendant inside that node is clicked instead.
	ClickNth(ctx context.Context, selector string, n int, descendant string) error
	// ScrollHeight returns document.body.scrollHeight.
	ScrollHeight(ctx context.Context) (int, error)
	// ScrollTo scrolls the window to the vertical offset y.
	ScrollTo(ctx context.Context, y int) error
	// Close releases the page and its browser process.
	Close() error
}

// SessionFactory opens a fresh browser session for a job.
type SessionFactory interface {
	Open(ctx context.Context, opts entity.SessionOptions) (Browser, error)
}
