package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
)

// LocationService is the history side of tracking: every accepted report and
// vehicle registration goes to the location repository.
type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) SaveLocation(ctx context.Context, r domain.PositionReport) error {
	return s.repo.Insert(ctx, r.ToVehicleLocation())
}

func (s *LocationService) RecordVehicle(ctx context.Context, v *domain.Vehicle) error {
	return s.repo.UpsertVehicle(ctx, v)
}

// GetLatest returns the last journaled fix, which survives a restart of the
// runtime state.
func (s *LocationService) GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleLocation, error) {
	vl, err := s.repo.GetLatest(ctx, vehicleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	return vl, err
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleLocation, error) {
	return s.repo.GetHistory(ctx, query)
}
