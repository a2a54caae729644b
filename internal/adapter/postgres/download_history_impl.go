package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/illust-harvester/internal/entity"
)

// DownloadHistoryRepoImpl provides a concrete implementation for the AuditLog interface using PostgreSQL.
type DownloadHistoryRepoImpl struct {
	db *pgxpool.Pool
}

// NewDownloadHistoryRepo creates a new instance of DownloadHistoryRepoImpl.
func NewDownloadHistoryRepo(db *pgxpool.Pool) *DownloadHistoryRepoImpl {
	return &DownloadHistoryRepoImpl{db: db}
}

// Append stores one successful download. Replaying the same record is a no-op.
func (r *DownloadHistoryRepoImpl) Append(ctx context.Context, record entity.ProgressEvent) error {
	query := `
		INSERT INTO download_history (job_id, type, number, image_name, destination, image_url, author, title, attempts, downloaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (destination, image_name) DO NOTHING;
	`
	_, err := r.db.Exec(ctx, query,
		record.JobID,
		record.Type,
		record.Number,
		record.ImageName,
		record.Destination,
		record.ImageURL,
		record.Author,
		record.Title,
		record.Attempts,
		record.DownloadTime,
	)
	if err != nil {
		return fmt.Errorf("%w: download_history: %w", entity.ErrAuditWrite, err)
	}
	return nil
}
