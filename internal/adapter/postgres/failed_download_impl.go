package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/illust-harvester/internal/entity"
)

// FailedDownloadRepoImpl provides a concrete implementation for the FailureLog interface using PostgreSQL.
type FailedDownloadRepoImpl struct {
	db *pgxpool.Pool
}

// NewFailedDownloadRepo creates a new instance of FailedDownloadRepoImpl.
func NewFailedDownloadRepo(db *pgxpool.Pool) *FailedDownloadRepoImpl {
	return &FailedDownloadRepoImpl{db: db}
}

// Record stores a download that exhausted its retries.
func (r *FailedDownloadRepoImpl) Record(ctx context.Context, jobID string, o entity.DownloadOutcome) error {
	query := `
		INSERT INTO failed_downloads (job_id, number, page, item_index, source_url, last_url, author, title, attempts, error, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		jobID,
		o.Number(),
		o.Page,
		o.Index,
		o.Descriptor.SourceURL,
		o.URL,
		o.Descriptor.Author,
		o.Descriptor.Title,
		o.Attempts,
		o.Err,
		o.CompletedAt,
	)
	return err
}

// ListByJob retrieves the failed downloads of a job in page order.
func (r *FailedDownloadRepoImpl) ListByJob(ctx context.Context, jobID string, limit int) ([]entity.DownloadOutcome, error) {
	query := `
		SELECT page, item_index, source_url, last_url, author, title, attempts, error, completed_at
		FROM failed_downloads
		WHERE job_id = $1
		ORDER BY page ASC, item_index ASC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []entity.DownloadOutcome
	for rows.Next() {
		var o entity.DownloadOutcome
		if err := rows.Scan(
			&o.Page,
			&o.Index,
			&o.Descriptor.SourceURL,
			&o.URL,
			&o.Descriptor.Author,
			&o.Descriptor.Title,
			&o.Attempts,
			&o.Err,
			&o.CompletedAt,
		); err != nil {
			return nil, err
		}
		o.FinalError = entity.KindDownload
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
