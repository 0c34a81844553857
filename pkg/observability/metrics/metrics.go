package metrics

import "github.com/prometheus/client_golang/prometheus"

// MatchMetrics exposes counters/histograms for therapist matching and booking.
type MatchMetrics struct {
	matchTotal   *prometheus.CounterVec
	matchLatency *prometheus.HistogramVec
	bookingTotal *prometheus.CounterVec
}

func NewMatchMetrics(reg prometheus.Registerer) *MatchMetrics {
	m := &MatchMetrics{
		matchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spa",
			Subsystem: "matcher",
			Name:      "match_total",
			Help:      "Total therapist match attempts by outcome",
		}, []string{"outcome"}),
		matchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spa",
			Subsystem: "matcher",
			Name:      "match_latency_seconds",
			Help:      "Latency of therapist matching",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spa",
			Subsystem: "booking",
			Name:      "booking_total",
			Help:      "Total booking attempts by resulting status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.matchTotal, m.matchLatency, m.bookingTotal)
	return m
}

// ObserveMatch records one matcher run. outcome is "matched", a no-match reason, or "error".
func (m *MatchMetrics) ObserveMatch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.matchTotal.WithLabelValues(outcome).Inc()
	m.matchLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *MatchMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(status).Inc()
}
