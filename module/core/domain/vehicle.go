package domain

import "time"

type Vehicle struct {
	VehicleID    string    `json:"vehicle_id"`
	DriverName   string    `json:"driver_name"`
	DriverPhone  string    `json:"driver_phone"`
	LicensePlate string    `json:"license_plate"`
	VehicleType  string    `json:"vehicle_type"`
	Active       bool      `json:"active"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// Merge copies the non-empty identity fields of a report onto the vehicle.
func (v *Vehicle) Merge(r PositionReport) {
	if r.DriverName != "" {
		v.DriverName = r.DriverName
	}
	if r.DriverPhone != "" {
		v.DriverPhone = r.DriverPhone
	}
	if r.LicensePlate != "" {
		v.LicensePlate = r.LicensePlate
	}
	if r.VehicleType != "" {
		v.VehicleType = r.VehicleType
	}
	v.Active = true
	if r.Timestamp.After(v.LastSeen) {
		v.LastSeen = r.Timestamp
	}
}

type RouteStatus string

const (
	RouteStatusOnRoute        RouteStatus = "on_route"
	RouteStatusDeviation      RouteStatus = "deviation"
	RouteStatusCriticalStop   RouteStatus = "critical_stop"
	RouteStatusSpeedViolation RouteStatus = "speed_violation"
	RouteStatusCriticalSpeed  RouteStatus = "critical_speed"
)

const (
	CriticalSpeedKmh     = 90
	CriticalStopMinutes  = 60
	DeviationStopMinutes = 30
	CriticalFuelPercent  = 15
	FuelWarningPercent   = 30
	DefaultMaxDeviationM = 500
	DefaultSpeedLimitKmh = 80
)

// VehicleState holds the measurements the detection cycle keeps per vehicle.
// The route status is projected from them on demand and never stored.
type VehicleState struct {
	VehicleID       string         `json:"vehicle_id"`
	Position        PositionReport `json:"position"`
	LastMovement    time.Time      `json:"last_movement"`
	StopMinutes     int            `json:"stop_duration"`
	OnRoute         bool           `json:"on_route"`
	MatchedWaypoint string         `json:"matched_waypoint,omitempty"`
	NearestWaypoint string         `json:"nearest_waypoint"`
	DeviationMeters float64        `json:"deviation_meters"`
	SpeedLimit      float64        `json:"speed_limit"`
	FuelLevel       float64        `json:"fuel_level"`
	HasFuel         bool           `json:"-"`
	RouteProgress   float64        `json:"route_progress"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Status applies the fixed precedence critical_speed > speed_violation >
// critical_stop > deviation > on_route.
func (s VehicleState) Status() RouteStatus {
	speed := s.Position.Speed
	limit := s.SpeedLimit
	if limit <= 0 {
		limit = DefaultSpeedLimitKmh
	}
	switch {
	case speed > CriticalSpeedKmh:
		return RouteStatusCriticalSpeed
	case speed > limit:
		return RouteStatusSpeedViolation
	case speed == 0 && s.StopMinutes > CriticalStopMinutes:
		return RouteStatusCriticalStop
	case !s.OnRoute:
		return RouteStatusDeviation
	default:
		return RouteStatusOnRoute
	}
}
