package entity

import "time"

// AssetDescriptor is one downloadable image found on a listing page.
// SourceURL is empty when the listing item had no matching image element.
type AssetDescriptor struct {
	SourceURL string `json:"sourceUrl"`
	Author    string `json:"author"`
	Title     string `json:"title"`
}

// DownloadOutcome is the result of running the download job for one descriptor.
type DownloadOutcome struct {
	Descriptor      AssetDescriptor `json:"descriptor"`
	Page            int             `json:"page"`
	Index           int             `json:"index"`
	URL             string          `json:"url"` // last URL tried, after extension fallback
	DestinationPath string          `json:"destinationPath"`
	Attempts        int             `json:"attempts"`
	Succeeded       bool            `json:"succeeded"`
	FinalError      ErrorKind       `json:"finalError,omitempty"`
	Err             string          `json:"error,omitempty"`
	CompletedAt     time.Time       `json:"completedAt"`
}

// Number is the operator-facing position label, e.g. "P2_7".
func (o DownloadOutcome) Number() string {
	return PositionLabel(o.Page, o.Index)
}

// PageResult collects the outcomes of one page.
type PageResult struct {
	PageNumber int
	Outcomes   []DownloadOutcome
}

// JobState is a state of the pipeline state machine.
type JobState string

const (
	JobStatePending        JobState = "pending"
	JobStateAuthenticating JobState = "authenticating"
	JobStatePaging         JobState = "paging"
	JobStateFinalizing     JobState = "finalizing"
	JobStateCompleted      JobState = "completed"
	JobStateAborted        JobState = "aborted"
)

// JobSummary aggregates every page of a job.
type JobSummary struct {
	JobID          string            `json:"jobId"`
	Kind           JobKind           `json:"kind"`
	Key            string            `json:"key"`
	PageStart      int               `json:"pageStart"`
	PageEnd        int               `json:"pageEnd"`
	PagesCompleted []int             `json:"pagesCompleted"`
	Succeeded      int               `json:"succeeded"`
	Failed         int               `json:"failed"`
	Attempts       int               `json:"attempts"`
	Failures       []DownloadOutcome `json:"failures,omitempty"`
	State          JobState          `json:"state"`
	AbortReason    string            `json:"abortReason,omitempty"`
	AbortKind      ErrorKind         `json:"abortKind,omitempty"`
	StartedAt      time.Time         `json:"startedAt"`
	FinishedAt     time.Time         `json:"finishedAt"`
}

// Fold adds one page's outcomes to the summary.
func (s *JobSummary) Fold(p PageResult) {
	s.PagesCompleted = append(s.PagesCompleted, p.PageNumber)
	for _, o := range p.Outcomes {
		s.Attempts += o.Attempts
		if o.Succeeded {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, o)
	}
}
