package extractor

import (
	"context"

	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/pkg/utils"
)

const defaultScrollStep = 300

// scrollToBottom walks the viewport down in fixed steps so lazily loaded
// items render. The number of steps is fixed by the height measured up front.
func (e *PageExtractor) scrollToBottom(ctx context.Context, b repository.Browser) error {
	height, err := b.ScrollHeight(ctx)
	if err != nil {
		return err
	}

	step := e.timing.ScrollStep
	if step <= 0 {
		step = defaultScrollStep
	}
	steps := (height + step - 1) / step

	top := 0
	for i := 0; i < steps; i++ {
		next := min(top+step, height)
		if err := b.ScrollTo(ctx, next); err != nil {
			return err
		}
		if err := utils.Sleep(ctx, e.timing.ScrollDelay); err != nil {
			return err
		}
		top = next
	}

	e.logger.Debug("scrolled to bottom", zap.Int("height", height), zap.Int("steps", steps))
	return nil
}
