package entity

import "fmt"

// Event names delivered to operator sessions.
const (
	EventDownload = "download-message"
	EventLog      = "log-message"
)

// LogState is the severity attached to a LogEvent.
type LogState string

const (
	LogSuccess LogState = "success"
	LogWarning LogState = "warning"
	LogError   LogState = "error"
)

// LogEvent is a human readable progress line.
type LogEvent struct {
	Message string   `json:"message"`
	State   LogState `json:"state"`
}

// ProgressEvent is published for every successful download. It is also the
// record appended to the audit log.
type ProgressEvent struct {
	JobID           string `json:"jobId,omitempty"`
	Type            string `json:"type"`
	Number          string `json:"number"`
	ImageName       string `json:"imageName"`
	Destination     string `json:"destination"`
	DestinationPath string `json:"destinationPath"`
	Succeeded       bool   `json:"succeeded"`
	ImageURL        string `json:"imageURL"`
	Author          string `json:"author"`
	Title           string `json:"title"`
	Attempts        int    `json:"attempts"`
	DownloadTime    string `json:"DownloadTime"`
}

// PositionLabel formats a page and 1-based index as "P<page>_<index>".
func PositionLabel(page, index int) string {
	return fmt.Sprintf("P%d_%d", page, index)
}
