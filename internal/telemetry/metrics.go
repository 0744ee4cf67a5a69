// metrics.go registers the application's Prometheus collectors.
//
// All metrics live in the default registry and are exposed by the side-channel
// metrics server started in cmd/server (GET /metrics on the configured port).
// HTTP metrics are labelled by the Gin route template (c.FullPath()), never the
// raw URL, so user-supplied code strings and IDs cannot blow up label
// cardinality.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, recorded by the metrics middleware for every request.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Domain metrics for the code lifecycle.
//
// VerificationsTotal is labelled by outcome: "success", or the lowercased
// failure reason (code_not_found, code_already_verified, code_disabled,
// code_expired, project_disabled, project_expired). Reactivations count under
// ReactivationsTotal with outcome "success"/"failed".
//
// Useful queries:
//   - Redemption rate:      rate(codegate_verifications_total{outcome="success"}[5m])
//   - Failure breakdown:    sum by (outcome) (rate(codegate_verifications_total{outcome!="success"}[1h]))
var (
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegate_verifications_total",
			Help: "Total number of verification attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	ReactivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegate_reactivations_total",
			Help: "Total number of reactivation attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	CodesGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codegate_codes_generated_total",
			Help: "Total number of activation codes generated.",
		},
	)

	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codegate_rate_limit_rejections_total",
			Help: "Total number of verification requests rejected by the rate limiter.",
		},
	)

	ExpirySweepUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegate_expiry_sweep_updates_total",
			Help: "Total number of is_expired corrections applied by the sweep job, by direction.",
		},
		[]string{"direction"}, // "expired" or "unexpired"
	)
)

// DBOpenConnections tracks the sql.DB pool size, sampled every 30 seconds by
// StartDBStatsCollector rather than per-request.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a goroutine that samples connection pool
// statistics every 30 seconds. The goroutine exits when the database becomes
// unreachable, which happens naturally on shutdown once db.Close runs.
//
// Call once, right after the database connection is established.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
