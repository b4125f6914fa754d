// Package telemetry provides application-level observability for the
// account-identity service.
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP listener started by cmd/server (default
// port 9090, path /metrics). The endpoint is not part of the Gin router.
//
// HTTP metrics use the Gin route template (c.FullPath()) rather than the raw
// URL so user-supplied path segments such as tokens never inflate label
// cardinality.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPRequestsTotal counts requests by {method, path, status}.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by method, route template, and status code.",
	},
	[]string{"method", "path", "status"},
)

// HTTPRequestDuration observes request latency by {method, path}.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds by method and route template.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

// ConfirmationEmailsTotal counts confirmation email dispatch outcomes,
// labelled result=sent|failed. Both the fire-and-forget path (email change)
// and the synchronous path (resend) feed it.
var ConfirmationEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "confirmation_emails_total",
		Help: "Confirmation email dispatch attempts by result.",
	},
	[]string{"result"},
)

// PreferenceSyncsTotal counts completed notification-preference batch syncs.
var PreferenceSyncsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "preference_syncs_total",
		Help: "Completed email-notification preference synchronizations.",
	},
)

// DBConnectionsInUse reports the connection pool's in-use count.
var DBConnectionsInUse = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_connections_in_use",
		Help: "Number of database connections currently checked out of the pool.",
	},
)

// StartDBPoolMonitor polls the pool stats on the given interval until stop is
// closed. cmd/server runs it for the lifetime of the process.
func StartDBPoolMonitor(db *sql.DB, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			DBConnectionsInUse.Set(float64(db.Stats().InUse))
		case <-stop:
			slog.Debug("db pool monitor stopped")
			return
		}
	}
}
