package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *domain.VehicleLocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicle_locations (vehicle_id, latitude, longitude, speed, heading, timestamp) VALUES ($1, $2, $3, $4, $5, $6)`,
		loc.VehicleID, loc.Location.Lat, loc.Location.Lon, loc.Speed, loc.Heading, loc.Location.Timestamp,
	)
	return err
}

func (r *LocationRepo) GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleLocation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT vehicle_id, latitude, longitude, speed, heading, timestamp FROM vehicle_locations WHERE vehicle_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		vehicleID,
	)

	var vl domain.VehicleLocation
	if err := row.Scan(&vl.VehicleID, &vl.Location.Lat, &vl.Location.Lon, &vl.Speed, &vl.Heading, &vl.Location.Timestamp); err != nil {
		return nil, err
	}
	return &vl, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT vehicle_id, latitude, longitude, speed, heading, timestamp FROM vehicle_locations WHERE vehicle_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`,
		query.VehicleID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.VehicleLocation
	for rows.Next() {
		var vl domain.VehicleLocation
		if err := rows.Scan(&vl.VehicleID, &vl.Location.Lat, &vl.Location.Lon, &vl.Speed, &vl.Heading, &vl.Location.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, vl)
	}
	return results, rows.Err()
}

func (r *LocationRepo) UpsertVehicle(ctx context.Context, v *domain.Vehicle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (vehicle_id, driver_name, driver_phone, license_plate, vehicle_type, active, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (vehicle_id) DO UPDATE SET driver_name = EXCLUDED.driver_name, driver_phone = EXCLUDED.driver_phone,
		license_plate = EXCLUDED.license_plate, vehicle_type = EXCLUDED.vehicle_type, active = EXCLUDED.active, last_seen = EXCLUDED.last_seen`,
		v.VehicleID, v.DriverName, v.DriverPhone, v.LicensePlate, v.VehicleType, v.Active, v.FirstSeen, v.LastSeen,
	)
	return err
}
