// Package metrics defines and registers all custom Prometheus metrics of the
// reimbursement API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed at GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ers"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route template (e.g. "/reimbursements/:id")
//   - code: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ErrorsTotal counts error envelopes rendered by the error handler.
// Label:
//   - code: response status code
var ErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of error responses, by status code.",
	},
	[]string{"code"},
)

// ── Domain metrics ────────────────────────────────────────────────────────────

// ReimbursementsSubmittedTotal counts accepted submissions.
// Label:
//   - type: "lodging", "travel", "food" or "other"
var ReimbursementsSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reimbursements_submitted_total",
		Help:      "Total number of reimbursements submitted, by type.",
	},
	[]string{"type"},
)

// ReimbursementsResolvedTotal counts resolutions.
// Label:
//   - status: "approved" or "denied"
var ReimbursementsResolvedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reimbursements_resolved_total",
		Help:      "Total number of reimbursements resolved, by outcome.",
	},
	[]string{"status"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
