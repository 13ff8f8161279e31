// Package metrics defines the Prometheus metrics exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HooksTotal counts processed lifecycle hooks by stage and outcome
	// (accepted, rejected, error).
	HooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tusgate_hooks_total",
			Help: "Total number of lifecycle hooks processed",
		},
		[]string{"type", "outcome"},
	)

	// HookDuration observes hook dispatch latency by stage.
	HookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tusgate_hook_duration_seconds",
			Help:    "Hook dispatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// UploadsRejectedTotal counts uploads rejected at pre-create.
	UploadsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tusgate_uploads_rejected_total",
			Help: "Total number of uploads rejected at pre-create",
		},
	)

	// DownloadsTotal counts file downloads by status (success, failure).
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tusgate_downloads_total",
			Help: "Total number of file downloads",
		},
		[]string{"status"},
	)

	// FileInfoRequestsTotal counts file info requests by status.
	FileInfoRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tusgate_file_info_requests_total",
			Help: "Total number of file info requests",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tusgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)
