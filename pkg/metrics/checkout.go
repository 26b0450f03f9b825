package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Distance lookup outcomes.
const (
	DistanceOutcomeCached      = "cached"
	DistanceOutcomeResolved    = "resolved"
	DistanceOutcomeUnavailable = "unavailable"
	DistanceOutcomeSuperseded  = "superseded"
)

// CheckoutMetrics records quote and distance lookup activity.
type CheckoutMetrics struct {
	quotes           *prometheus.CounterVec
	quoteDuration    *prometheus.HistogramVec
	distanceLookups  *prometheus.CounterVec
	distanceAttempts prometheus.Counter
	submissions      *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_quotes_total",
		Help: "Checkout quotes computed, by fee profile.",
	}, []string{"profile"})
	quoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_quote_duration_seconds",
		Help:    "Duration of quote computation including distance lookup.",
		Buckets: prometheus.DefBuckets,
	}, []string{"profile"})
	distanceLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "distance_lookups_total",
		Help: "Distance lookups by outcome.",
	}, []string{"outcome"})
	distanceAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distance_lookup_attempts_total",
		Help: "Upstream maps calls made while resolving distances, retries included.",
	})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Orders handed off to messaging, by fee profile.",
	}, []string{"profile"})
	reg.MustRegister(quotes, quoteDuration, distanceLookups, distanceAttempts, submissions)
	return &CheckoutMetrics{
		quotes:           quotes,
		quoteDuration:    quoteDuration,
		distanceLookups:  distanceLookups,
		distanceAttempts: distanceAttempts,
		submissions:      submissions,
	}
}

// ObserveQuote counts a quote and records how long it took.
func (m *CheckoutMetrics) ObserveQuote(profile string, duration time.Duration) {
	if m == nil || m.quotes == nil {
		return
	}
	label := normalizeLabel(profile)
	m.quotes.WithLabelValues(label).Inc()
	m.quoteDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncDistanceOutcome counts a finished distance lookup.
func (m *CheckoutMetrics) IncDistanceOutcome(outcome string) {
	if m == nil || m.distanceLookups == nil {
		return
	}
	m.distanceLookups.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDistanceAttempt counts one upstream maps call.
func (m *CheckoutMetrics) IncDistanceAttempt() {
	if m == nil || m.distanceAttempts == nil {
		return
	}
	m.distanceAttempts.Inc()
}

// IncSubmission counts a submitted order.
func (m *CheckoutMetrics) IncSubmission(profile string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(profile)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
