package response

import (
	"time"

	"github.com/user/illust-harvester/internal/entity"
)

type SubmitJobResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Channel string `json:"channel"`
}

// JobStatusResponse is a DTO for job status, mirroring entity.JobStatus.
type JobStatusResponse struct {
	JobID       string    `json:"job_id"`
	Kind        string    `json:"kind"`
	Key         string    `json:"key"`
	State       string    `json:"state"` // pending, authenticating, paging, finalizing, completed, aborted
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Attempts    int       `json:"attempts"`
	AbortReason string    `json:"abort_reason,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewJobStatusResponse(s *entity.JobStatus) JobStatusResponse {
	return JobStatusResponse{
		JobID:       s.JobID,
		Kind:        string(s.Kind),
		Key:         s.Key,
		State:       string(s.State),
		Succeeded:   s.Succeeded,
		Failed:      s.Failed,
		Attempts:    s.Attempts,
		AbortReason: s.AbortReason,
		UpdatedAt:   s.UpdatedAt,
	}
}

type FailedDownloadResponse struct {
	Number    string `json:"number"`
	SourceURL string `json:"source_url"`
	LastURL   string `json:"last_url"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error"`
}

func NewFailedDownloadResponses(outcomes []entity.DownloadOutcome) []FailedDownloadResponse {
	out := make([]FailedDownloadResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, FailedDownloadResponse{
			Number:    o.Number(),
			SourceURL: o.Descriptor.SourceURL,
			LastURL:   o.URL,
			Author:    o.Descriptor.Author,
			Title:     o.Descriptor.Title,
			Attempts:  o.Attempts,
			Error:     o.Err,
		})
	}
	return out
}

type DeleteAuditRecordResponse struct {
	Deleted      int    `json:"deleted"`
	ImageDeleted bool   `json:"image_deleted"`
	Message      string `json:"message"`
}
