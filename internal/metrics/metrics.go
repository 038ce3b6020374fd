package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the ledger's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wallet_ledger",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet_ledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wallet_ledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet_ledger",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of processed wallet operations.",
		},
		[]string{"type", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wallet_ledger",
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of wallet operations including the transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"type"},
	)

	walletsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wallet_ledger",
			Subsystem: "ledger",
			Name:      "wallets_created_total",
			Help:      "Total number of wallets created.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet_ledger",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "History cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		operationsTotal,
		operationDuration,
		walletsCreated,
		cacheLookups,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation records the outcome of one ProcessOperation call.
func RecordOperation(opType, result string, duration time.Duration) {
	if opType == "" {
		opType = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	opType = strings.ToUpper(opType)
	operationsTotal.WithLabelValues(opType, result).Inc()
	operationDuration.WithLabelValues(opType).Observe(duration.Seconds())
}

func RecordWalletCreated() {
	walletsCreated.Inc()
}

// RecordCacheLookup counts a history cache hit or miss.
func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordHTTP records a finished request. path should be the route pattern, not the raw URL.
func RecordHTTP(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackInFlight bumps the in-flight gauge and returns the matching decrement.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}
