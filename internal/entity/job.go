package entity

import "time"

// JobKind selects the extraction strategy for a job.
type JobKind string

const (
	JobKindRanking JobKind = "ranking"
	JobKindSearch  JobKind = "search"
)

// Credentials are handed to the session login step and never logged.
type Credentials struct {
	Username string
	Password string
}

// SessionOptions configures the browser session opened for a job.
type SessionOptions struct {
	ExecutablePath string
	Headless       bool
}

// Job is an accepted, validated job descriptor. It is not modified once submitted.
type Job struct {
	ID             string
	Kind           JobKind
	Key            string // ranking category or author name
	PageStart      int
	PageEnd        int
	DestinationDir string
	UseProxy       bool
	ProxyPort      string
	ChannelID      string

	Credentials Credentials
	Session     SessionOptions
}

// Timing holds every fixed pause and bound the pipeline uses.
type Timing struct {
	AnchorTimeout     time.Duration
	NavigationTimeout time.Duration
	FetchTimeout      time.Duration
	ThrottleDelay     time.Duration
	RetryDelay        time.Duration
	SettleDelay       time.Duration
	PostLoginDelay    time.Duration
	SearchTypeDelay   time.Duration
	ScrollStep        int
	ScrollDelay       time.Duration
}

// NavigationBound is the limit on one page load. It falls back to the anchor
// timeout; zero means unbounded.
func (t Timing) NavigationBound() time.Duration {
	if t.NavigationTimeout > 0 {
		return t.NavigationTimeout
	}
	return t.AnchorTimeout
}
