package memory

import (
	"sync"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

var _ store.EventLog = (*EventLog)(nil)

const DefaultActivityCapacity = 1000

// EventLog keeps every geofence event and a bounded tail of activity entries.
type EventLog struct {
	mu          sync.RWMutex
	events      []domain.GeofenceEvent
	activity    []domain.ActivityLog
	activityCap int
}

func NewEventLog(activityCap int) *EventLog {
	if activityCap <= 0 {
		activityCap = DefaultActivityCapacity
	}
	return &EventLog{activityCap: activityCap}
}

func (l *EventLog) AppendGeofenceEvent(e domain.GeofenceEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *EventLog) GeofenceEvents(vehicleID string) []domain.GeofenceEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.GeofenceEvent, 0, len(l.events))
	for _, e := range l.events {
		if vehicleID == "" || e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	return out
}

func (l *EventLog) AppendActivity(a domain.ActivityLog) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.activity = append(l.activity, a)
	if over := len(l.activity) - l.activityCap; over > 0 {
		l.activity = append(l.activity[:0:0], l.activity[over:]...)
	}
}

// RecentActivity returns up to limit entries, newest first.
func (l *EventLog) RecentActivity(limit int) []domain.ActivityLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.activity)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.ActivityLog, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.activity[i])
	}
	return out
}
