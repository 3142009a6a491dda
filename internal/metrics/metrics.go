// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "risk_assessment"

var (
	// AuditEntriesWritten counts persisted audit entries.
	// Labels: field
	AuditEntriesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "entries_written_total",
		Help:      "Audit entries persisted by field",
	}, []string{"field"})

	// AuditWriteFailures counts audit batches that could not be persisted
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "write_failures_total",
		Help:      "Audit batches lost because persisting them failed",
	})

	// NotificationsCreated counts persisted notifications.
	// Labels: action, target
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "created_total",
		Help:      "Notifications created by action and target role",
	}, []string{"action", "target"})

	// NotificationFailures counts notifications that were skipped.
	// Labels: stage (lookup, persist)
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "failures_total",
		Help:      "Notifications skipped because a dependency failed",
	}, []string{"stage"})

	// NotificationsMarkedRead counts unread to read transitions.
	// Labels: mode (single, all)
	NotificationsMarkedRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "marked_read_total",
		Help:      "Notifications flipped from unread to read",
	}, []string{"mode"})

	// HTTPRequestDuration measures request latency.
	// Labels: method, status
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
