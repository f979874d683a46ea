package service

import (
	"context"
	"sort"
	"sync"
	"time"
)

type PendingTimer struct {
	IncidentID string    `json:"incident_id"`
	FireAt     time.Time `json:"fire_at"`
}

type timerEntry struct {
	cancel  context.CancelFunc
	fireAt  time.Time
	pending bool
}

// TimerRegistry maps each running escalation to its cancel func and the wait
// it is currently blocked on. Cancelling an id stops every wait of that
// incident before it fires.
type TimerRegistry struct {
	mu      sync.Mutex
	entries map[string]*timerEntry
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{entries: make(map[string]*timerEntry)}
}

// Track registers the cancel func of an escalation. It returns false when
// the incident is already tracked.
func (r *TimerRegistry) Track(id string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return false
	}
	r.entries[id] = &timerEntry{cancel: cancel}
	return true
}

func (r *TimerRegistry) Schedule(id string, fireAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.fireAt = fireAt
		e.pending = true
	}
}

func (r *TimerRegistry) Fired(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.pending = false
	}
}

// Cancel stops the escalation for id. It reports whether one was running.
func (r *TimerRegistry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.cancel()
	}
	return ok
}

// Release forgets id once its escalation has returned.
func (r *TimerRegistry) Release(id string) {
	r.Cancel(id)
}

func (r *TimerRegistry) CancelAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*timerEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
	return len(entries)
}

func (r *TimerRegistry) PendingFor(id string) (PendingTimer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || !e.pending {
		return PendingTimer{}, false
	}
	return PendingTimer{IncidentID: id, FireAt: e.fireAt}, true
}

// Pending lists every scheduled wait ordered by fire time.
func (r *TimerRegistry) Pending() []PendingTimer {
	r.mu.Lock()
	out := make([]PendingTimer, 0, len(r.entries))
	for id, e := range r.entries {
		if e.pending {
			out = append(out, PendingTimer{IncidentID: id, FireAt: e.fireAt})
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].IncidentID < out[j].IncidentID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

func (r *TimerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
