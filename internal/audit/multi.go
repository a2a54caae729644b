// Package audit combines audit sinks.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

// Multi appends every record to each sink. All sinks are tried even when
// one fails.
type Multi []repository.AuditLog

func (m Multi) Append(ctx context.Context, record entity.ProgressEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Append(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	if errors.Is(err, entity.ErrAuditWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrAuditWrite, err)
}
