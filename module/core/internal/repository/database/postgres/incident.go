package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
)

var _ database.IncidentRepository = (*IncidentRepo)(nil)

// IncidentRepo journals incidents and their contact attempts. The live copy is
// held in memory; this table is the audit trail.
type IncidentRepo struct {
	db *sql.DB
}

func NewIncidentRepo(db *sql.DB) *IncidentRepo {
	return &IncidentRepo{db: db}
}

func (r *IncidentRepo) Save(ctx context.Context, inc *domain.Incident) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incidents (id, vehicle_id, incident_type, severity, message, latitude, longitude, location_description, created_at, acknowledged, acknowledged_at, escalation_level, status, timestamp_approximated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET acknowledged = EXCLUDED.acknowledged, acknowledged_at = EXCLUDED.acknowledged_at,
		escalation_level = EXCLUDED.escalation_level, status = EXCLUDED.status`,
		inc.ID, inc.VehicleID, string(inc.Type), string(inc.Severity), inc.Message,
		inc.Location.Lat, inc.Location.Lon, inc.Location.Description, inc.CreatedAt,
		inc.Acknowledged, nullTime(inc.AcknowledgedAt), inc.EscalationLevel, string(inc.Status), inc.Approximated,
	)
	return err
}

func (r *IncidentRepo) InsertAttempt(ctx context.Context, incidentID string, a *domain.ContactAttempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_attempts (incident_id, contact_name, method, address, attempt, level, timestamp, delivered) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		incidentID, a.ContactName, string(a.Channel), a.Address, a.Attempt, a.Level, a.Timestamp, a.Delivered,
	)
	return err
}
