package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/metrics"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/cache"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrStaleReport     = errors.New("stale position report")
)

const (
	DefaultDetectionInterval = 8 * time.Second
	recommendedStations      = 3
)

type escalator interface {
	Enqueue(ctx context.Context, incidentID string) error
}

// TrackingDeps groups what the detection cycle reads from and writes to.
// Clock and Mirror are optional.
type TrackingDeps struct {
	Vehicles  store.VehicleStore
	Incidents store.IncidentStore
	Events    store.EventLog

	Route      *RouteModel
	Geofence   *GeofenceService
	Detector   *IncidentDetector
	Dedup      *Deduplicator
	Escalation escalator
	History    *LocationService

	IncidentJournal database.IncidentRepository
	EventJournal    database.EventRepository
	Publisher       publisher.EventPublisher
	Mirror          cache.StateMirror

	Clock        clockz.Clock
	Interval     time.Duration
	MaxDeviation float64

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// TrackingService owns the per-vehicle runtime state. Reports are buffered
// by Submit and applied by the periodic detection cycle, newest per vehicle.
type TrackingService struct {
	TrackingDeps

	mu      sync.Mutex
	pending map[string]domain.PositionReport
}

func NewTrackingService(deps TrackingDeps) *TrackingService {
	if deps.Clock == nil {
		deps.Clock = clockz.RealClock
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultDetectionInterval
	}
	if deps.MaxDeviation <= 0 {
		deps.MaxDeviation = domain.DefaultMaxDeviationM
	}
	if deps.Mirror == nil {
		deps.Mirror = cache.NopMirror{}
	}
	return &TrackingService{
		TrackingDeps: deps,
		pending:      make(map[string]domain.PositionReport),
	}
}

// Submit validates a report and buffers it for the next cycle. Only the most
// recent report per vehicle is kept.
func (s *TrackingService) Submit(r domain.PositionReport) error {
	r, err := NormalizeReport(r, s.Clock.Now())
	if err != nil {
		s.Metrics.PositionsRejected.WithLabelValues("invalid").Inc()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[r.VehicleID]; ok && cur.Timestamp.After(r.Timestamp) {
		return nil
	}
	s.pending[r.VehicleID] = r
	return nil
}

// Run drives the detection cycle every Interval until ctx is done.
func (s *TrackingService) Run(ctx context.Context) {
	s.Logger.Info("detection cycle started", slog.Duration("interval", s.Interval))
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("detection cycle stopped")
			return
		case <-s.Clock.After(s.Interval):
			s.Cycle(ctx)
		}
	}
}

// Cycle applies every buffered report and re-evaluates stopped vehicles that
// sent nothing new. Vehicles run concurrently; each state is written only by
// its own goroutine.
func (s *TrackingService) Cycle(ctx context.Context) {
	start := time.Now()
	defer func() { s.Metrics.DetectionCycle.Observe(time.Since(start).Seconds()) }()

	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]domain.PositionReport)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, r := range batch {
		wg.Add(1)
		go func(r domain.PositionReport) {
			defer wg.Done()
			if err := s.Process(ctx, r); err != nil {
				s.Logger.Warn("process position report", slog.String("vehicle_id", r.VehicleID), slog.Any("error", err))
			}
		}(r)
	}
	for _, st := range s.Vehicles.ListStates() {
		if _, ok := batch[st.VehicleID]; ok || st.Position.Speed != 0 {
			continue
		}
		wg.Add(1)
		go func(st domain.VehicleState) {
			defer wg.Done()
			s.reevaluate(ctx, st)
		}(st)
	}
	wg.Wait()
}

// Process applies one report: vehicle registry, runtime state, geofences,
// history and incident detection.
func (s *TrackingService) Process(ctx context.Context, r domain.PositionReport) error {
	r, err := NormalizeReport(r, s.Clock.Now())
	if err != nil {
		s.Metrics.PositionsRejected.WithLabelValues("invalid").Inc()
		return err
	}

	var prevState *domain.VehicleState
	var prev *domain.PositionReport
	if st, err := s.Vehicles.GetState(r.VehicleID); err == nil {
		if r.Timestamp.Before(st.Position.Timestamp) {
			s.Metrics.PositionsRejected.WithLabelValues("stale").Inc()
			return fmt.Errorf("%w: %s at %s is older than %s", ErrStaleReport, r.VehicleID,
				r.Timestamp.Format(time.RFC3339), st.Position.Timestamp.Format(time.RFC3339))
		}
		prevState = &st
		prev = &st.Position
	}
	s.Metrics.PositionsIngested.Inc()

	if r.TimestampApproximated {
		s.Logger.Warn("position timestamp approximated", slog.String("vehicle_id", r.VehicleID), slog.Time("timestamp", r.Timestamp))
	}

	v, created := s.Vehicles.UpsertVehicle(r)
	if created {
		s.Logger.Info("vehicle registered", slog.String("vehicle_id", v.VehicleID), slog.String("driver", v.DriverName))
	}
	if err := s.History.RecordVehicle(ctx, &v); err != nil {
		s.Logger.Warn("journal vehicle", slog.String("vehicle_id", v.VehicleID), slog.Any("error", err))
	}

	st := s.advance(prevState, r)
	s.Vehicles.PutState(st)

	if _, err := s.Geofence.CheckAndAlert(ctx, prev, r); err != nil {
		s.Logger.Warn("geofence alert", slog.String("vehicle_id", r.VehicleID), slog.Any("error", err))
	}
	if err := s.History.SaveLocation(ctx, r); err != nil {
		s.Logger.Warn("save location", slog.String("vehicle_id", r.VehicleID), slog.Any("error", err))
	}
	s.warnFuel(ctx, prevState, st)
	s.detect(ctx, st, v, r.Timestamp)
	s.mirror(ctx, st)
	return nil
}

// advance derives the next runtime state from the previous one and a report.
func (s *TrackingService) advance(prev *domain.VehicleState, r domain.PositionReport) domain.VehicleState {
	st := domain.VehicleState{
		VehicleID: r.VehicleID,
		Position:  r,
		UpdatedAt: s.Clock.Now(),
	}

	if prev != nil {
		st.LastMovement = prev.LastMovement
		st.FuelLevel = prev.FuelLevel
		st.HasFuel = prev.HasFuel
	}
	if r.Speed > 0 || st.LastMovement.IsZero() {
		st.LastMovement = r.Timestamp
	}
	if r.Speed == 0 {
		st.StopMinutes = stopMinutes(st.LastMovement, r.Timestamp)
	}

	if r.FuelLevel != nil {
		st.FuelLevel = *r.FuelLevel
		st.HasFuel = true
	}

	p := r.Point()
	onRoute, wp, _ := s.Route.IsOnRoute(p, s.MaxDeviation)
	st.OnRoute = onRoute
	if wp != nil {
		st.MatchedWaypoint = wp.Name
	}
	st.NearestWaypoint, st.DeviationMeters = s.Route.NearestWaypoint(p)
	st.SpeedLimit = s.Route.SpeedLimitNear(p)
	st.RouteProgress = s.Route.Progress(p)
	return st
}

// reevaluate recomputes the stop duration of a silent stopped vehicle
// against the clock. Geofences need a new position and are not re-run.
func (s *TrackingService) reevaluate(ctx context.Context, st domain.VehicleState) {
	now := s.Clock.Now()
	if !now.After(st.Position.Timestamp) {
		return
	}
	minutes := stopMinutes(st.LastMovement, now)
	if minutes == st.StopMinutes {
		return
	}
	st.StopMinutes = minutes
	st.UpdatedAt = now
	s.Vehicles.PutState(st)

	v, err := s.Vehicles.GetVehicle(st.VehicleID)
	if err != nil {
		v = domain.Vehicle{VehicleID: st.VehicleID}
	}
	s.detect(ctx, st, v, now)
	s.mirror(ctx, st)
}

// stopMinutes truncates to whole minutes.
func stopMinutes(lastMovement, at time.Time) int {
	if lastMovement.IsZero() || !at.After(lastMovement) {
		return 0
	}
	return int(at.Sub(lastMovement) / time.Minute)
}

// detect stamps new incidents with at: the report time for a fresh
// position, the clock for a re-evaluated silent vehicle.
func (s *TrackingService) detect(ctx context.Context, st domain.VehicleState, v domain.Vehicle, at time.Time) {
	for _, candidate := range s.Detector.Evaluate(st, v) {
		candidate.CreatedAt = at
		inc, created := s.Dedup.Admit(candidate)
		if !created {
			continue
		}

		s.Logger.Warn("incident created",
			slog.String("incident_id", inc.ID),
			slog.String("vehicle_id", inc.VehicleID),
			slog.String("incident_type", string(inc.Type)),
			slog.String("severity", string(inc.Severity)),
			slog.Bool("timestamp_approximated", inc.Approximated))

		s.recordActivity(ctx, domain.ActivityLog{
			ID:          uuid.NewString(),
			VehicleID:   inc.VehicleID,
			Type:        domain.ActivityIncident,
			Description: inc.Message,
			Lat:         inc.Location.Lat,
			Lon:         inc.Location.Lon,
			Timestamp:   inc.CreatedAt,
		})
		if err := s.IncidentJournal.Save(ctx, &inc); err != nil {
			s.Logger.Warn("journal incident", slog.String("incident_id", inc.ID), slog.Any("error", err))
		}
		if err := s.Publisher.PublishIncident(ctx, &inc); err != nil {
			s.Logger.Warn("publish incident", slog.String("incident_id", inc.ID), slog.Any("error", err))
		}

		if !s.Detector.Escalates(inc.Type) {
			continue
		}
		if err := s.Escalation.Enqueue(ctx, inc.ID); err != nil {
			s.Logger.Error("enqueue incident", slog.String("incident_id", inc.ID), slog.Any("error", err))
		}
	}
}

// warnFuel writes a fuel warning once each time the level drops below the
// warning threshold.
func (s *TrackingService) warnFuel(ctx context.Context, prev *domain.VehicleState, st domain.VehicleState) {
	if !st.HasFuel || st.FuelLevel >= domain.FuelWarningPercent {
		return
	}
	if prev != nil && prev.HasFuel && prev.FuelLevel < domain.FuelWarningPercent {
		return
	}

	desc := fmt.Sprintf("Vehicle %s fuel at %.0f%%", st.VehicleID, st.FuelLevel)
	if stations := s.Route.NearestGasStations(st.Position.Point(), 1); len(stations) > 0 {
		desc += fmt.Sprintf(", nearest station %s (%.1f km)", stations[0].Name, stations[0].DistanceKm)
	}
	s.recordActivity(ctx, domain.ActivityLog{
		ID:          uuid.NewString(),
		VehicleID:   st.VehicleID,
		Type:        domain.ActivityFuelWarning,
		Description: desc,
		Lat:         st.Position.Lat,
		Lon:         st.Position.Lon,
		Timestamp:   st.Position.Timestamp,
	})
}

func (s *TrackingService) recordActivity(ctx context.Context, a domain.ActivityLog) {
	s.Events.AppendActivity(a)
	if err := s.EventJournal.InsertActivity(ctx, &a); err != nil {
		s.Logger.Warn("journal activity", slog.String("vehicle_id", a.VehicleID), slog.Any("error", err))
	}
}

func (s *TrackingService) mirror(ctx context.Context, st domain.VehicleState) {
	if err := s.Mirror.MirrorState(ctx, &st); err != nil {
		s.Logger.Warn("mirror vehicle state", slog.String("vehicle_id", st.VehicleID), slog.Any("error", err))
	}
}

// VehicleView is a vehicle with its runtime state and the derived route
// status. FuelStations is filled once fuel reaches the warning threshold.
type VehicleView struct {
	domain.Vehicle
	State        *domain.VehicleState `json:"state,omitempty"`
	Status       domain.RouteStatus   `json:"route_status,omitempty"`
	FuelStations []domain.FuelStation `json:"fuel_stations,omitempty"`
}

func (s *TrackingService) ListVehicles() []VehicleView {
	vehicles := s.Vehicles.ListVehicles()
	out := make([]VehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, s.view(v))
	}
	return out
}

func (s *TrackingService) GetVehicle(id string) (VehicleView, error) {
	v, err := s.Vehicles.GetVehicle(id)
	if errors.Is(err, store.ErrNotFound) {
		return VehicleView{}, ErrVehicleNotFound
	}
	if err != nil {
		return VehicleView{}, err
	}
	return s.view(v), nil
}

func (s *TrackingService) view(v domain.Vehicle) VehicleView {
	view := VehicleView{Vehicle: v}
	st, err := s.Vehicles.GetState(v.VehicleID)
	if err != nil {
		return view
	}
	view.State = &st
	view.Status = st.Status()
	if st.HasFuel && st.FuelLevel <= domain.FuelWarningPercent {
		view.FuelStations = s.Route.NearestGasStations(st.Position.Point(), recommendedStations)
	}
	return view
}

// FuelStations returns the stations closest to the vehicle's last position.
func (s *TrackingService) FuelStations(vehicleID string) ([]domain.FuelStation, error) {
	st, err := s.Vehicles.GetState(vehicleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Route.NearestGasStations(st.Position.Point(), recommendedStations), nil
}

func (s *TrackingService) GeofenceEvents(vehicleID string) []domain.GeofenceEvent {
	return s.Events.GeofenceEvents(vehicleID)
}

func (s *TrackingService) RecentActivity(limit int) []domain.ActivityLog {
	return s.Events.RecentActivity(limit)
}

type AnalyticsSummary struct {
	TotalVehicles        int                        `json:"total_vehicles"`
	VehiclesByStatus     map[domain.RouteStatus]int `json:"vehicles_by_status"`
	OpenIncidents        int                        `json:"open_incidents"`
	OpenBySeverity       map[domain.Severity]int    `json:"open_incidents_by_severity"`
	GeofenceEvents       int                        `json:"geofence_events"`
	ExhaustedEscalations int                        `json:"exhausted_escalations"`
	GeneratedAt          time.Time                  `json:"generated_at"`
}

func (s *TrackingService) Summary() AnalyticsSummary {
	sum := AnalyticsSummary{
		TotalVehicles:    len(s.Vehicles.ListVehicles()),
		VehiclesByStatus: make(map[domain.RouteStatus]int),
		OpenBySeverity:   make(map[domain.Severity]int),
		GeofenceEvents:   len(s.Events.GeofenceEvents("")),
		GeneratedAt:      s.Clock.Now(),
	}
	for _, st := range s.Vehicles.ListStates() {
		sum.VehiclesByStatus[st.Status()]++
	}
	for _, inc := range s.Incidents.List(domain.IncidentFilter{}) {
		switch {
		case inc.Status == domain.IncidentExhausted:
			sum.ExhaustedEscalations++
		case inc.Open():
			sum.OpenIncidents++
			sum.OpenBySeverity[inc.Severity]++
		}
	}
	return sum
}
