package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsOnce ensures metrics are only initialized once.
var metricsOnce sync.Once

// metricsInstance is the singleton instance of upload metrics.
var metricsInstance *Metrics

// Metrics holds all Prometheus metrics for the upload service.
type Metrics struct {
	UploadsTotal   *prometheus.CounterVec   // netvault_uploads_total{outcome}
	UploadDuration *prometheus.HistogramVec // netvault_upload_duration_seconds{outcome}
	BytesReceived  prometheus.Counter       // netvault_bytes_received_total
}

// InitMetrics initializes all upload metrics. Metrics are only registered
// once; subsequent calls return the same instance.
func InitMetrics(registry prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registry == nil {
			registry = prometheus.DefaultRegisterer
		}
		metricsInstance = &Metrics{
			UploadsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
				Name: "netvault_uploads_total",
				Help: "Total upload requests by outcome",
			}, []string{"outcome"}),

			UploadDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
				Name:    "netvault_upload_duration_seconds",
				Help:    "Upload request duration in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"outcome"}),

			BytesReceived: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "netvault_bytes_received_total",
				Help: "Total uncompressed artifact bytes received",
			}),
		}
	})

	return metricsInstance
}

// RecordUpload records one upload request metric.
func (m *Metrics) RecordUpload(outcome string, durationSeconds float64) {
	m.UploadsTotal.WithLabelValues(outcome).Inc()
	m.UploadDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

// RecordBytes records uncompressed bytes received for a committed artifact.
func (m *Metrics) RecordBytes(bytes int64) {
	m.BytesReceived.Add(float64(bytes))
}
