// Package store defines the in-process stores that hold the live state shared
// by detection, escalation and the query API.
package store

import (
	"errors"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

var ErrNotFound = errors.New("store: not found")

// IncidentStore keeps incidents by id. CreateIfAbsent must be atomic with
// respect to the open-incident lookup on (vehicle, type).
type IncidentStore interface {
	CreateIfAbsent(candidate domain.Incident) (domain.Incident, bool)
	Get(id string) (domain.Incident, error)
	List(filter domain.IncidentFilter) []domain.Incident
	AppendAttempt(id string, attempt domain.ContactAttempt) error
	RaiseLevel(id string, level int) error
	SetStatus(id string, status domain.IncidentStatus) error
	Acknowledge(id string, at time.Time) (domain.Incident, bool, error)
	Acknowledged(id string) bool
}

type VehicleStore interface {
	UpsertVehicle(report domain.PositionReport) (domain.Vehicle, bool)
	GetVehicle(id string) (domain.Vehicle, error)
	ListVehicles() []domain.Vehicle
	GetState(id string) (domain.VehicleState, error)
	PutState(state domain.VehicleState)
	ListStates() []domain.VehicleState
}

type EventLog interface {
	AppendGeofenceEvent(e domain.GeofenceEvent)
	GeofenceEvents(vehicleID string) []domain.GeofenceEvent
	AppendActivity(a domain.ActivityLog)
	RecentActivity(limit int) []domain.ActivityLog
}
