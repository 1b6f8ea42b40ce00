// Package metrics defines and registers the Prometheus metrics of the parking
// client and the dev API server. It is the single source of truth for metric names, labels, and help
// strings. Metrics register with the default registry on import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parking_client"

// ── Transport metrics ─────────────────────────────────────────────────────────

// APIRequestsTotal counts completed calls to the parking API.
// Labels:
//   - code: HTTP status code returned by the server
//   - method: HTTP method
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of parking API requests that produced a response.",
	},
	[]string{"code", "method"},
)

// APIRequestDuration measures round-trip latency of parking API calls.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of parking API round trips.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// APIInFlight tracks requests currently waiting for a response.
var APIInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_requests_in_flight",
		Help:      "Number of parking API requests awaiting a response.",
	},
)

// ── Slot cache metrics ────────────────────────────────────────────────────────

// RefreshTotal counts slot collection refreshes.
// Label:
//   - result: "applied", "stale" (older than the applied snapshot), "session_changed", or "error"
var RefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_refresh_total",
		Help:      "Total number of slot collection fetches, by outcome.",
	},
	[]string{"result"},
)

// RefreshCoalescedTotal counts callers that shared another caller's fetch.
var RefreshCoalescedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_refresh_coalesced_total",
		Help:      "Total number of refresh requests served by an already in-flight fetch.",
	},
)

// MutationsTotal counts slot mutations.
// Labels:
//   - op: "create", "book", "cancel", "delete"
//   - result: "ok" or the error kind (e.g. "conflict", "validation")
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_mutations_total",
		Help:      "Total number of slot mutations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionRestoreTotal counts startup session restores.
// Label:
//   - result: "restored", "absent", or "discarded"
var SessionRestoreTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_restore_total",
		Help:      "Total number of session restore attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Dev API server metrics ────────────────────────────────────────────────────

const serverNamespace = "parking_api"

// ServerRequestsTotal counts requests served by the dev API server.
// Labels:
//   - method: HTTP method
//   - route: route template, e.g. "/api/book/:id"
//   - code: response status code
var ServerRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: serverNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled by the parking API.",
	},
	[]string{"method", "route", "code"},
)

// ServerRequestDuration measures handler latency of the dev API server.
var ServerRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: serverNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests handled by the parking API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// InstrumentTransport wraps next with the transport metrics above.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(APIInFlight,
		promhttp.InstrumentRoundTripperCounter(APIRequestsTotal,
			promhttp.InstrumentRoundTripperDuration(APIRequestDuration, next),
		),
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
