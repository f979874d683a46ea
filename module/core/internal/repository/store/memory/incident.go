package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

var _ store.IncidentStore = (*IncidentStore)(nil)

type openKey struct {
	vehicleID string
	kind      domain.IncidentType
}

type IncidentStore struct {
	mu        sync.RWMutex
	incidents map[string]*domain.Incident
	open      map[openKey]string
}

func NewIncidentStore() *IncidentStore {
	return &IncidentStore{
		incidents: make(map[string]*domain.Incident),
		open:      make(map[openKey]string),
	}
}

func (s *IncidentStore) CreateIfAbsent(candidate domain.Incident) (domain.Incident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := openKey{vehicleID: candidate.VehicleID, kind: candidate.Type}
	if id, ok := s.open[key]; ok {
		if existing := s.incidents[id]; existing != nil && existing.Open() {
			return existing.Clone(), false
		}
		delete(s.open, key)
	}

	inc := candidate.Clone()
	s.incidents[inc.ID] = &inc
	if inc.Open() {
		s.open[key] = inc.ID
	}
	return inc.Clone(), true
}

func (s *IncidentStore) Get(id string) (domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[id]
	if !ok {
		return domain.Incident{}, store.ErrNotFound
	}
	return inc.Clone(), nil
}

func (s *IncidentStore) List(filter domain.IncidentFilter) []domain.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		if filter.Match(inc) {
			out = append(out, inc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// AppendAttempt is allowed on closed incidents so that attempts in flight at
// acknowledgement time are still recorded.
func (s *IncidentStore) AppendAttempt(id string, attempt domain.ContactAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return store.ErrNotFound
	}
	if n := len(inc.ContactAttempts); n > 0 && attempt.Timestamp.Before(inc.ContactAttempts[n-1].Timestamp) {
		attempt.Timestamp = inc.ContactAttempts[n-1].Timestamp
	}
	inc.ContactAttempts = append(inc.ContactAttempts, attempt)
	return nil
}

func (s *IncidentStore) RaiseLevel(id string, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return store.ErrNotFound
	}
	if level > inc.EscalationLevel {
		inc.EscalationLevel = level
	}
	return nil
}

// SetStatus never moves an incident out of a terminal status.
func (s *IncidentStore) SetStatus(id string, status domain.IncidentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return store.ErrNotFound
	}
	if !inc.Open() {
		return nil
	}
	inc.Status = status
	if !inc.Open() {
		delete(s.open, openKey{vehicleID: inc.VehicleID, kind: inc.Type})
	}
	return nil
}

func (s *IncidentStore) Acknowledge(id string, at time.Time) (domain.Incident, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return domain.Incident{}, false, store.ErrNotFound
	}
	if !inc.Open() {
		return inc.Clone(), false, nil
	}
	inc.Acknowledged = true
	inc.AcknowledgedAt = &at
	inc.Status = domain.IncidentAcknowledged
	delete(s.open, openKey{vehicleID: inc.VehicleID, kind: inc.Type})
	return inc.Clone(), true, nil
}

func (s *IncidentStore) Acknowledged(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[id]
	return ok && inc.Acknowledged
}
