// Package metrics registers the pipeline's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrheader_documents_total",
			Help: "Documents processed by header format and status",
		},
		[]string{"format", "status"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocrheader_stage_duration_seconds",
			Help:    "Time spent per pipeline stage",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25, 60},
		},
		[]string{"stage"}, // stage: rasterize, classify, extract, file, total
	)

	rasterRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocrheader_rasterize_retries_total",
			Help: "Rasterization attempts repeated after a timeout",
		},
	)

	reorganizeMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrheader_reorganize_moves_total",
			Help: "Files moved by success-folder reorganization, by pass",
		},
		[]string{"pass"},
	)

	rejectedFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocrheader_rejected_files_total",
			Help: "Non-PDF files swept out of the input folder",
		},
	)

	batchSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ocrheader_batch_size",
			Help: "Parallelism chosen for the current batch",
		},
	)

	runActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ocrheader_run_active",
			Help: "1 while a run is in progress",
		},
	)
)

// ObserveDocument counts one filed document.
func ObserveDocument(format string, success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	documentsTotal.WithLabelValues(format, status).Inc()
}

// ObserveStage records how long stage took since start.
func ObserveStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// IncRasterRetry counts a repeated rasterization.
func IncRasterRetry() { rasterRetries.Inc() }

// AddReorganizeMove counts a reorganization move in pass.
func AddReorganizeMove(pass int) {
	reorganizeMoves.WithLabelValues(strconv.Itoa(pass)).Inc()
}

// IncRejected counts a swept non-PDF file.
func IncRejected() { rejectedFiles.Inc() }

// SetBatchSize records the parallelism of the running batch.
func SetBatchSize(n int) { batchSize.Set(float64(n)) }

// SetRunActive flags whether a run is in progress.
func SetRunActive(active bool) {
	if active {
		runActive.Set(1)
		return
	}
	runActive.Set(0)
}
