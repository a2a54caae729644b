package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/illust-harvester/internal/repository"
)

// Navigate loads url on b, giving up after timeout when it is positive.
func Navigate(ctx context.Context, b repository.Browser, url string, timeout time.Duration) error {
	navCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := b.Navigate(navCtx, url)
	if err != nil && ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: no response within %s", repository.ErrNavigationFailed, url, timeout)
	}
	return err
}
