package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the storage layer. Registered on the default
// registry at package init; updated from the operation monitor and
// from metric snapshot refreshes.
var (
	fileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakit_file_operations_total",
			Help: "Total file storage operations by type and outcome",
		},
		[]string{"operation", "status"},
	)

	fileOperationBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakit_file_operation_bytes_total",
			Help: "Total bytes processed by file storage operations",
		},
		[]string{"operation"},
	)

	operationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakit_operation_errors_total",
			Help: "Total recorded file operation errors by type",
		},
		[]string{"type"},
	)

	diskFreeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediakit_disk_free_bytes",
			Help: "Free disk space on the volume holding the storage root",
		},
	)

	diskUsedPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediakit_disk_used_percent",
			Help: "Used disk share of the volume holding the storage root",
		},
	)

	directorySizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediakit_storage_directory_bytes",
			Help: "Size of top-level storage categories in bytes",
		},
		[]string{"category"},
	)
)

func observeOperation(operation string, success bool, size int64) {
	status := "success"
	if !success {
		status = "error"
	}
	fileOperationsTotal.WithLabelValues(operation, status).Inc()
	if size > 0 {
		fileOperationBytesTotal.WithLabelValues(operation).Add(float64(size))
	}
}

func observeError(errType string) {
	operationErrorsTotal.WithLabelValues(errType).Inc()
}

func observeBreakdown(b UsageBreakdown) {
	diskFreeBytes.Set(float64(b.Disk.FreeBytes))
	diskUsedPercent.Set(b.Disk.PercentUsed)
	directorySizeBytes.WithLabelValues("users").Set(float64(b.Users.SizeBytes))
	directorySizeBytes.WithLabelValues("teams").Set(float64(b.Teams.SizeBytes))
	directorySizeBytes.WithLabelValues("temp").Set(float64(b.Temp.SizeBytes))
	directorySizeBytes.WithLabelValues("backups").Set(float64(b.Backups.SizeBytes))
	directorySizeBytes.WithLabelValues("total").Set(float64(b.Total.SizeBytes))
}
