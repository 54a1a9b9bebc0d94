package prometheus

import (
	"strconv"
	"time"

	"greenpass-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Admission metrics
	AdmissionsCounter prometheus.CounterVec

	// Capacity metrics
	AdjustedCapacityGauge prometheus.GaugeVec
	AvailableSpotsGauge   prometheus.GaugeVec
	OverrideActiveGauge   prometheus.GaugeVec

	// Capacity operation counter
	CapacityOperationsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	AdmissionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_admissions_total",
			Help: "Total number of admission decisions",
		},
		[]string{"outcome"},
	)

	AdjustedCapacityGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_adjusted_capacity",
			Help: "Current adjusted capacity per destination",
		},
		[]string{"destination_id"},
	)

	AvailableSpotsGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_available_spots",
			Help: "Current available spots per destination",
		},
		[]string{"destination_id"},
	)

	OverrideActiveGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_override_active",
			Help: "Whether a capacity override is active per destination",
		},
		[]string{"destination_id"},
	)

	CapacityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of capacity operations",
		},
		[]string{"operation"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordCapacityOperation increments the counter for capacity operations
func RecordCapacityOperation(operation string) {
	CapacityOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordAdmission increments the admission counter for an outcome
func RecordAdmission(admitted bool) {
	outcome := "rejected"
	if admitted {
		outcome = "admitted"
	}
	AdmissionsCounter.WithLabelValues(outcome).Inc()
}

// UpdateCapacityGauges records the latest evaluation for a destination
func UpdateCapacityGauges(destinationID uint, adjustedCapacity, availableSpots int, overrideActive bool) {
	id := strconv.FormatUint(uint64(destinationID), 10)
	AdjustedCapacityGauge.WithLabelValues(id).Set(float64(adjustedCapacity))
	AvailableSpotsGauge.WithLabelValues(id).Set(float64(availableSpots))
	active := 0.0
	if overrideActive {
		active = 1.0
	}
	OverrideActiveGauge.WithLabelValues(id).Set(active)
}
