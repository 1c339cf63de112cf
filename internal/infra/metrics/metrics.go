// Package metrics holds the Prometheus collectors for ledger operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

var (
	ledgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "credits",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Ledger operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	ledgerCredits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "credits",
		Subsystem: "ledger",
		Name:      "credits_total",
		Help:      "Credits moved through the ledger, by direction (granted/debited).",
	}, []string{"direction"})

	ledgerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "credits",
		Subsystem: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Ledger operation latency including the database transaction.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "credits",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
)

// ObserveOperation records one finished ledger operation.
func ObserveOperation(operation, outcome string, started time.Time) {
	ledgerOps.WithLabelValues(operation, outcome).Inc()
	ledgerDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func AddGranted(n int64) {
	if n > 0 {
		ledgerCredits.WithLabelValues("granted").Add(float64(n))
	}
}

func AddDebited(n int64) {
	if n > 0 {
		ledgerCredits.WithLabelValues("debited").Add(float64(n))
	}
}

// ObserveHTTP counts one served request. route is the router pattern, not
// the raw path, to keep label cardinality bounded.
func ObserveHTTP(route string, status int) {
	if route == "" {
		route = "unmatched"
	}

	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
