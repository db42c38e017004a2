// Package metrics exports pipeline and transport counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesTotal counts processed batches by resulting phase.
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppg_batches_total",
			Help: "Total number of PPG batches processed",
		},
		[]string{"phase"},
	)

	// RejectedBatches counts requests refused before reaching the engine.
	RejectedBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppg_batches_rejected_total",
			Help: "Total number of PPG batches rejected by validation",
		},
		[]string{"reason"},
	)

	ProcessDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ppg_process_duration_seconds",
			Help:    "Engine processing time per batch in seconds",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
		},
	)

	// HeartRate is the last displayed BPM per device; 0 without contact.
	HeartRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ppg_heart_rate_bpm",
			Help: "Last displayed heart rate per device",
		},
		[]string{"device_id"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ppg_active_sessions",
			Help: "Number of open device sessions",
		},
	)

	// SideEffectErrors counts failures of persistence, archive, cache and
	// publish steps that do not fail the reading.
	SideEffectErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppg_side_effect_errors_total",
			Help: "Failures of non-critical steps after a batch was processed",
		},
		[]string{"stage"},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ppg_ws_clients",
			Help: "Number of connected websocket clients",
		},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ppg_broadcast_dropped_total",
			Help: "Subscribers dropped for not keeping up",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ppg_cache_hits_total",
			Help: "Total number of device state cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ppg_cache_misses_total",
			Help: "Total number of device state cache misses",
		},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ppg_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route", "method"},
	)
)

// ObserveReading records the outcome of one processed batch.
func ObserveReading(deviceID, phase string, heartRate int, seconds float64) {
	BatchesTotal.WithLabelValues(phase).Inc()
	HeartRate.WithLabelValues(deviceID).Set(float64(heartRate))
	ProcessDuration.Observe(seconds)
}

// ForgetDevice removes per-device series once its session ends.
func ForgetDevice(deviceID string) {
	HeartRate.DeleteLabelValues(deviceID)
}
