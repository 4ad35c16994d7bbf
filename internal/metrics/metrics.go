// Package metrics exposes prometheus collectors for the escalation
// ladder, the D<->ND protocol channel, the IMMA-OI CCB pipeline, and the
// SG FSM, mirroring the shape of the teacher's internal/reconciler
// metrics: one struct bundling every collector, registered once at
// process start and passed down by reference to the packages that
// produce observations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every collector this process exposes. cmd/amfd builds
// one; cmd/amfnd builds none. MustRegister registers it against a
// prometheus.Registerer; neither daemon calls it.
type Registry struct {
	EscalationCount *prometheus.CounterVec
	MsgIDGaps       *prometheus.CounterVec
	CCBResolution   *prometheus.HistogramVec
	SGState         *prometheus.GaugeVec
}

// New builds a Registry with every collector initialized but not yet
// registered.
func New() *Registry {
	return &Registry{
		EscalationCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amfcore",
			Subsystem: "recovery",
			Name:      "escalation_total",
			Help:      "Count of escalation-ladder tier transitions, labeled by tier.",
		}, []string{"tier"}),
		MsgIDGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amfcore",
			Subsystem: "protocol",
			Name:      "msg_id_gap_total",
			Help:      "Count of fatal msg_id sequence gaps detected on a D<->ND channel, labeled by node.",
		}, []string{"node_id"}),
		CCBResolution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "amfcore",
			Subsystem: "imma",
			Name:      "ccb_resolution_seconds",
			Help:      "Latency between a CCB going critical across a stale broadcast and its outcome resolving.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		SGState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "amfcore",
			Subsystem: "sgfsm",
			Name:      "state",
			Help:      "Current SG FSM state, one gauge set to 1 per SG with all other states for that SG set to 0.",
		}, []string{"sg", "state"}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate-registration error the way cmd/*'s process-start wiring is
// expected to (a misconfigured registry is a programmer error, not a
// runtime condition to recover from).
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.EscalationCount, r.MsgIDGaps, r.CCBResolution, r.SGState)
}

// ObserveEscalation increments the counter for tier.
func (r *Registry) ObserveEscalation(tier string) {
	r.EscalationCount.WithLabelValues(tier).Inc()
}

// ObserveMsgIDGap increments the gap counter for nodeID.
func (r *Registry) ObserveMsgIDGap(nodeID string) {
	r.MsgIDGaps.WithLabelValues(nodeID).Inc()
}

// ObserveCCBResolution records how long a CCB took to resolve once critical,
// labeled by its terminal outcome ("apply" or "abort").
func (r *Registry) ObserveCCBResolution(outcome string, d time.Duration) {
	r.CCBResolution.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetSGState sets the gauge for sg to 1 for state and 0 for every other
// known SG FSM state, so the family always reflects exactly one active
// state per SG regardless of dashboard query (sum vs select-by-label).
func (r *Registry) SetSGState(sg string, state string, allStates []string) {
	for _, s := range allStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		r.SGState.WithLabelValues(sg, s).Set(v)
	}
}
