package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PollerFetches counts every poller fetch by resource and outcome.
	PollerFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolroom_poller_fetches_total",
			Help: "Poller fetches by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	// PollerFetchDuration observes how long each poller fetch took.
	PollerFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolroom_poller_fetch_duration_seconds",
			Help:    "Poller fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	// ScanTransactions counts scan submissions by mode and outcome.
	ScanTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolroom_scan_transactions_total",
			Help: "Scan station submissions by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	// AlertActions counts acknowledge/resolve requests by action and outcome.
	AlertActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolroom_alert_actions_total",
			Help: "Alert transition requests by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	// HTTPRequestsTotal counts console HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolroom_console_http_requests_total",
			Help: "Console HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes console HTTP latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolroom_console_http_request_duration_seconds",
			Help:    "Console HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		PollerFetches,
		PollerFetchDuration,
		ScanTransactions,
		AlertActions,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Outcome maps an error to the label used on outcome counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
