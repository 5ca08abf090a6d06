package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks claim contention and tracking update latency.
type DispatchMetrics struct {
	claimWon      *prometheus.CounterVec
	claimLost     *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	trackingDelay *prometheus.HistogramVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	claimWon := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_claim_won",
		Help: "Order claims that succeeded.",
	}, []string{"status"})
	claimLost := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_claim_lost",
		Help: "Order claims rejected because another agent won.",
	}, []string{"status"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})
	trackingDelay := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracking_update_duration_seconds",
		Help:    "Duration of agent location update handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})
	reg.MustRegister(claimWon, claimLost, transitions, trackingDelay)
	return &DispatchMetrics{
		claimWon:      claimWon,
		claimLost:     claimLost,
		transitions:   transitions,
		trackingDelay: trackingDelay,
	}
}

// IncClaimWon increments the winner counter for the given order status.
func (m *DispatchMetrics) IncClaimWon(status string) {
	if m == nil || m.claimWon == nil {
		return
	}
	m.claimWon.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncClaimLost increments the loser counter for the given order status.
func (m *DispatchMetrics) IncClaimLost(status string) {
	if m == nil || m.claimLost == nil {
		return
	}
	m.claimLost.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncTransition records an applied status transition.
func (m *DispatchMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveTrackingUpdate records how long a location update took to process.
func (m *DispatchMetrics) ObserveTrackingUpdate(phase string, duration time.Duration) {
	if m == nil || m.trackingDelay == nil {
		return
	}
	m.trackingDelay.WithLabelValues(normalizeLabel(phase)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
