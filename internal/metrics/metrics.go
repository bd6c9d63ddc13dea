// Package metrics holds the Prometheus collectors for storage and HTTP traffic.
package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"socialmedia/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StorageDuration observes every repository call by operation and outcome.
	StorageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "socialmedia",
		Name:      "storage_operation_duration_seconds",
		Help:      "Latency of repository operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	// HTTPRequests counts served requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialmedia",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests served.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "socialmedia",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Register adds the collectors to reg. db may be nil when no SQL pool is in use.
func Register(reg prometheus.Registerer, db *sql.DB) error {
	cs := []prometheus.Collector{StorageDuration, HTTPRequests, HTTPDuration}
	if db != nil {
		cs = append(cs, collectors.NewDBStatsCollector(db, "socialmedia"))
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveStorage records one repository call.
func ObserveStorage(op string, err error, d time.Duration) {
	StorageDuration.WithLabelValues(op, Outcome(err)).Observe(d.Seconds())
}

// Outcome classifies err into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidation(err):
		return "invalid"
	case domain.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}
