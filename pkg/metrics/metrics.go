package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveJobs          prometheus.Gauge
	JobsTotal           *prometheus.CounterVec
	PagesProcessed      *prometheus.CounterVec
	DownloadAttempts    *prometheus.CounterVec
	DownloadsTotal      *prometheus.CounterVec
	DownloadDuration    prometheus.Histogram
)

var initOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvester_active_jobs",
			Help: "Number of jobs currently running.",
		},
	)

	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_jobs_total",
			Help: "Total number of finished jobs.",
		},
		[]string{"state"}, // completed, aborted
	)

	PagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_pages_processed_total",
			Help: "Total number of listing pages fully drained.",
		},
		[]string{"strategy"},
	)

	DownloadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_download_attempts_total",
			Help: "Total number of fetch attempts, by file extension tried.",
		},
		[]string{"ext"},
	)

	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_downloads_total",
			Help: "Total number of finished downloads.",
		},
		[]string{"status", "error_type"}, // status: success, failure
	)

	DownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvester_download_duration_seconds",
			Help:    "Duration of a download including retries.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 240},
		},
	)
}
