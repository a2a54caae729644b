package repository

import (
	"context"
	"errors"

	"github.com/user/illust-harvester/internal/entity"
)

// AuditLog records successful downloads. It is append-only from the pipeline's side.
type AuditLog interface {
	Append(ctx context.Context, record entity.ProgressEvent) error
}

// AuditPage is one page of records read back from the audit log.
type AuditPage struct {
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Items      []map[string]any `json:"items"`
}

// ErrUntrackedImage is returned when asked to delete a file no audit record names.
var ErrUntrackedImage = errors.New("image is not referenced by the audit log")

// AuditReader is the operator-side view of the newline-delimited audit file.
type AuditReader interface {
	ReadPage(ctx context.Context, page, pageSize int) (*AuditPage, error)
	DeleteRecord(ctx context.Context, record map[string]any) (int, error)
	// DeleteImage removes a downloaded file named by a record in the log.
	DeleteImage(ctx context.Context, path string) error
}
