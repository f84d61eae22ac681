// Package metrics defines the Prometheus collectors shared by the server
// and the store client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/erazemk/stockroom/internal/model"
)

var (
	// RequestsTotal tracks total HTTP requests served.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockroom_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CollectionLength tracks the stored length of each collection.
	CollectionLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockroom_collection_length",
			Help: "Number of entries in each stored collection",
		},
		[]string{"collection"},
	)

	// UnitsOnHand tracks the total quantity across all inventory items.
	UnitsOnHand = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockroom_units_on_hand",
			Help: "Sum of quantities over all inventory items",
		},
	)

	// ClientRequests tracks store client calls by collection, method and outcome.
	ClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_client_requests_total",
			Help: "Store client requests by collection, method and outcome",
		},
		[]string{"collection", "method", "outcome"},
	)

	// CircuitBreakerState tracks the client breaker (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockroom_client_circuit_breaker_state",
			Help: "Store client circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)
)

// ObserveInventory updates the inventory gauges after a write.
func ObserveInventory(items []model.InventoryItem) {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	CollectionLength.WithLabelValues(model.CollectionInventory).Set(float64(len(items)))
	UnitsOnHand.Set(float64(total))
}

// ObserveLength sets the stored length of a collection.
func ObserveLength(collection string, n int) {
	CollectionLength.WithLabelValues(collection).Set(float64(n))
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and durations. The route label is the
// matched ServeMux pattern so path values don't explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
