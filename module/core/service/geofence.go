package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/metrics"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

type GeofenceService struct {
	publisher publisher.EventPublisher
	events    store.EventLog
	journal   database.EventRepository
	geofences []domain.Geofence
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewGeofenceService(pub publisher.EventPublisher, events store.EventLog, journal database.EventRepository, geofences []domain.Geofence, m *metrics.Metrics, logger *slog.Logger) *GeofenceService {
	return &GeofenceService{
		publisher: pub,
		events:    events,
		journal:   journal,
		geofences: geofences,
		metrics:   m,
		logger:    logger,
	}
}

// Detect compares the previous and current fix against every geofence. A nil
// prev means the vehicle has never been seen, so being inside yields a
// bootstrap enter. Events carry the current report's timestamp.
func (s *GeofenceService) Detect(prev *domain.PositionReport, curr domain.PositionReport) []domain.GeofenceEvent {
	var out []domain.GeofenceEvent
	for _, gf := range s.geofences {
		nowInside := inside(gf, curr.Point())

		var kind domain.GeofenceEventType
		switch {
		case prev == nil:
			if nowInside {
				kind = domain.GeofenceEnter
			}
		case !inside(gf, prev.Point()) && nowInside:
			kind = domain.GeofenceEnter
		case inside(gf, prev.Point()) && !nowInside:
			kind = domain.GeofenceExit
		}
		if kind == "" {
			continue
		}

		out = append(out, domain.GeofenceEvent{
			ID:           uuid.NewString(),
			VehicleID:    curr.VehicleID,
			Type:         kind,
			Lat:          curr.Lat,
			Lon:          curr.Lon,
			GeofenceName: gf.Name,
			Timestamp:    curr.Timestamp,
			Approximated: curr.TimestampApproximated,
		})
	}
	return out
}

// CheckAndAlert runs Detect, records each event with its activity entry and
// publishes it. Events are recorded even when publishing fails.
func (s *GeofenceService) CheckAndAlert(ctx context.Context, prev *domain.PositionReport, curr domain.PositionReport) ([]domain.GeofenceEvent, error) {
	events := s.Detect(prev, curr)

	var firstErr error
	for i := range events {
		e := &events[i]

		if err := s.publisher.PublishGeofenceEvent(ctx, e); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("publish geofence event: %w", err)
			}
		} else {
			e.NotificationSent = true
		}

		s.events.AppendGeofenceEvent(*e)
		activity := geofenceActivity(e)
		s.events.AppendActivity(activity)
		s.metrics.GeofenceEvents.WithLabelValues(e.GeofenceName, string(e.Type)).Inc()

		if err := s.journal.InsertGeofenceEvent(ctx, e); err != nil {
			s.logger.Warn("journal geofence event", slog.String("vehicle_id", e.VehicleID), slog.Any("error", err))
		}
		if err := s.journal.InsertActivity(ctx, &activity); err != nil {
			s.logger.Warn("journal activity", slog.String("vehicle_id", e.VehicleID), slog.Any("error", err))
		}

		s.logger.Info("geofence transition",
			slog.String("vehicle_id", e.VehicleID),
			slog.String("geofence", e.GeofenceName),
			slog.String("event_type", string(e.Type)),
			slog.Bool("timestamp_approximated", e.Approximated))
	}
	return events, firstErr
}

func geofenceActivity(e *domain.GeofenceEvent) domain.ActivityLog {
	verb, kind := "entered", domain.ActivityGeofenceEnter
	if e.Type == domain.GeofenceExit {
		verb, kind = "exited", domain.ActivityGeofenceExit
	}
	return domain.ActivityLog{
		ID:          uuid.NewString(),
		VehicleID:   e.VehicleID,
		Type:        kind,
		Description: fmt.Sprintf("Vehicle %s %s %s", e.VehicleID, verb, e.GeofenceName),
		Lat:         e.Lat,
		Lon:         e.Lon,
		Timestamp:   e.Timestamp,
	}
}

func inside(gf domain.Geofence, p domain.GeoPoint) bool {
	return Distance(p, gf.Center) <= gf.Radius
}
