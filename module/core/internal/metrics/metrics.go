package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	PositionsIngested   prometheus.Counter
	PositionsRejected   *prometheus.CounterVec
	GeofenceEvents      *prometheus.CounterVec
	IncidentsCreated    *prometheus.CounterVec
	IncidentsDeduped    *prometheus.CounterVec
	NotificationAttempt *prometheus.CounterVec
	EscalationsActive   prometheus.Gauge
	EscalationsExhaust  prometheus.Counter
	Acknowledgements    prometheus.Counter
	DetectionCycle      prometheus.Histogram
}

// New builds the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PositionsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "positions_ingested_total",
			Help:      "Position reports accepted by the detection cycle.",
		}),
		PositionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "positions_rejected_total",
			Help:      "Position reports rejected at ingest.",
		}, []string{"reason"}),
		GeofenceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "geofence_events_total",
			Help:      "Geofence transitions detected.",
		}, []string{"geofence", "event_type"}),
		IncidentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "incidents_created_total",
			Help:      "Incidents admitted after deduplication.",
		}, []string{"incident_type", "severity"}),
		IncidentsDeduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "incidents_deduplicated_total",
			Help:      "Incident candidates discarded because an open incident exists.",
		}, []string{"incident_type"}),
		NotificationAttempt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "notification_attempts_total",
			Help:      "Escalation notification attempts by channel and outcome.",
		}, []string{"channel", "delivered"}),
		EscalationsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fleet",
			Name:      "escalations_active",
			Help:      "Escalation timelines currently running.",
		}),
		EscalationsExhaust: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "escalations_exhausted_total",
			Help:      "Incidents that ran out of escalation tiers.",
		}),
		Acknowledgements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "incident_acknowledgements_total",
			Help:      "Incidents acknowledged by an operator.",
		}),
		DetectionCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fleet",
			Name:      "detection_cycle_seconds",
			Help:      "Duration of one detection cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.PositionsIngested,
			m.PositionsRejected,
			m.GeofenceEvents,
			m.IncidentsCreated,
			m.IncidentsDeduped,
			m.NotificationAttempt,
			m.EscalationsActive,
			m.EscalationsExhaust,
			m.Acknowledgements,
			m.DetectionCycle,
		)
	}
	return m
}
