package entity

import "time"

// JobStatus is the externally visible status of a submitted job.
type JobStatus struct {
	JobID       string    `json:"job_id"`
	Kind        JobKind   `json:"kind"`
	Key         string    `json:"key"`
	State       JobState  `json:"state"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Attempts    int       `json:"attempts"`
	AbortReason string    `json:"abort_reason,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
