package database

import (
	"context"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, loc *domain.VehicleLocation) error
	GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleLocation, error)
	UpsertVehicle(ctx context.Context, v *domain.Vehicle) error
}

type IncidentRepository interface {
	Save(ctx context.Context, inc *domain.Incident) error
	InsertAttempt(ctx context.Context, incidentID string, attempt *domain.ContactAttempt) error
}

type EventRepository interface {
	InsertGeofenceEvent(ctx context.Context, e *domain.GeofenceEvent) error
	InsertActivity(ctx context.Context, a *domain.ActivityLog) error
}
