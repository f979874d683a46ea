package memory

import (
	"sort"
	"sync"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

var _ store.VehicleStore = (*VehicleStore)(nil)

type VehicleStore struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
	states   map[string]domain.VehicleState
}

func NewVehicleStore() *VehicleStore {
	return &VehicleStore{
		vehicles: make(map[string]*domain.Vehicle),
		states:   make(map[string]domain.VehicleState),
	}
}

func (s *VehicleStore) UpsertVehicle(report domain.PositionReport) (domain.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[report.VehicleID]
	if !ok {
		v = &domain.Vehicle{
			VehicleID: report.VehicleID,
			FirstSeen: report.Timestamp,
		}
		s.vehicles[report.VehicleID] = v
	}
	v.Merge(report)
	return *v, !ok
}

func (s *VehicleStore) GetVehicle(id string) (domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vehicles[id]
	if !ok {
		return domain.Vehicle{}, store.ErrNotFound
	}
	return *v, nil
}

func (s *VehicleStore) ListVehicles() []domain.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out
}

func (s *VehicleStore) GetState(id string) (domain.VehicleState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[id]
	if !ok {
		return domain.VehicleState{}, store.ErrNotFound
	}
	return st, nil
}

func (s *VehicleStore) PutState(state domain.VehicleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.VehicleID] = state
}

func (s *VehicleStore) ListStates() []domain.VehicleState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.VehicleState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out
}
