package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
)

var _ database.EventRepository = (*EventRepo)(nil)

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) InsertGeofenceEvent(ctx context.Context, e *domain.GeofenceEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofence_events (id, vehicle_id, event_type, latitude, longitude, geofence_name, timestamp, notification_sent, timestamp_approximated) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.VehicleID, string(e.Type), e.Lat, e.Lon, e.GeofenceName, e.Timestamp, e.NotificationSent, e.Approximated,
	)
	return err
}

func (r *EventRepo) InsertActivity(ctx context.Context, a *domain.ActivityLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, vehicle_id, activity_type, description, latitude, longitude, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.VehicleID, string(a.Type), a.Description, a.Lat, a.Lon, a.Timestamp,
	)
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
