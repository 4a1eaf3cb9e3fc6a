// Package metrics exposes the service's Prometheus collectors: HTTP
// request/latency metrics plus the business counters each component emits
// (ledger writes, webhook events, validation outcomes, incentive awards),
// grounded on the engine-wide Registry pattern used elsewhere in the pack.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector this service registers.
var Registry = prometheus.NewRegistry()

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tsp",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsp",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled, by method/route/status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tsp",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	ledgerTransactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsp",
		Subsystem: "ledger",
		Name:      "transactions_total",
		Help:      "Points transactions recorded, by activity type.",
	}, []string{"activity_type"})

	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsp",
		Subsystem: "ridehail",
		Name:      "webhook_events_total",
		Help:      "Vendor webhook callbacks processed, by event type and outcome.",
	}, []string{"event_type", "outcome"})

	validationRounds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsp",
		Subsystem: "validator",
		Name:      "rounds_total",
		Help:      "Trip validation rounds scored, by pass/fail outcome.",
	}, []string{"passed"})

	incentiveAwards = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsp",
		Subsystem: "incentive",
		Name:      "awards_total",
		Help:      "Incentive awards granted, by market.",
	}, []string{"market"})

	incentivePoints = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsp",
		Subsystem: "incentive",
		Name:      "points_awarded_total",
		Help:      "Sum of incentive points awarded, by market.",
	}, []string{"market"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerTransactions,
		webhookEvents,
		validationRounds,
		incentiveAwards,
		incentivePoints,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler serves the registered collectors for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// InstrumentHandler wraps next with HTTP in-flight/count/duration metrics.
// route should be the chi route pattern (e.g. "/wallet/summary"), not the
// raw path, so per-user path segments don't explode cardinality.
func InstrumentHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordLedgerTransaction counts one points_transaction write.
func RecordLedgerTransaction(activityType string) {
	ledgerTransactions.WithLabelValues(activityType).Inc()
}

// RecordWebhookEvent counts one processed (or rejected/duplicate) vendor
// webhook callback.
func RecordWebhookEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordValidationRound counts one scored Trip Validator round.
func RecordValidationRound(passed bool) {
	validationRounds.WithLabelValues(strconv.FormatBool(passed)).Inc()
}

// RecordIncentiveAward counts an incentive award and its point value.
func RecordIncentiveAward(market string, points float64) {
	if market == "" {
		market = "unknown"
	}
	incentiveAwards.WithLabelValues(market).Inc()
	incentivePoints.WithLabelValues(market).Add(points)
}
