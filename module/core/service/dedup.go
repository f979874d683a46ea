package service

import (
	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/metrics"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

// Deduplicator admits an incident candidate only when no open incident of the
// same vehicle and type exists.
type Deduplicator struct {
	incidents store.IncidentStore
	metrics   *metrics.Metrics
}

func NewDeduplicator(incidents store.IncidentStore, m *metrics.Metrics) *Deduplicator {
	return &Deduplicator{incidents: incidents, metrics: m}
}

// Admit returns the stored incident and true when the candidate was created,
// or the already-open incident and false.
func (d *Deduplicator) Admit(candidate domain.Incident) (domain.Incident, bool) {
	candidate.EscalationLevel = 1
	candidate.ContactAttempts = []domain.ContactAttempt{}

	inc, created := d.incidents.CreateIfAbsent(candidate)
	if !created {
		d.metrics.IncidentsDeduped.WithLabelValues(string(candidate.Type)).Inc()
		return inc, false
	}
	d.metrics.IncidentsCreated.WithLabelValues(string(inc.Type), string(inc.Severity)).Inc()
	return inc, true
}
