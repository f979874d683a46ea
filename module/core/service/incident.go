package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

// IncidentRule is one independent condition over a vehicle's state.
type IncidentRule struct {
	Type      domain.IncidentType
	Severity  domain.Severity
	Escalates bool
	Match     func(st domain.VehicleState) bool
	Message   func(st domain.VehicleState, v domain.Vehicle) string
}

func DefaultRules() []IncidentRule {
	return []IncidentRule{
		{
			Type:      domain.IncidentExtendedStop,
			Severity:  domain.SeverityCritical,
			Escalates: true,
			Match: func(st domain.VehicleState) bool {
				return st.Position.Speed == 0 && st.StopMinutes > domain.CriticalStopMinutes
			},
			Message: func(st domain.VehicleState, v domain.Vehicle) string {
				return fmt.Sprintf("CRITICAL: Vehicle %s stopped for %d minutes - %s", st.VehicleID, st.StopMinutes, driverTag(v))
			},
		},
		{
			Type:      domain.IncidentSpeedViolation,
			Severity:  domain.SeverityCritical,
			Escalates: true,
			Match: func(st domain.VehicleState) bool {
				return st.Position.Speed > domain.CriticalSpeedKmh
			},
			Message: func(st domain.VehicleState, v domain.Vehicle) string {
				return fmt.Sprintf("CRITICAL: Vehicle %s speeding at %.0f km/h (limit %.0f km/h) - %s", st.VehicleID, st.Position.Speed, st.SpeedLimit, driverTag(v))
			},
		},
		{
			Type:      domain.IncidentRouteDeviation,
			Severity:  domain.SeverityCritical,
			Escalates: true,
			Match: func(st domain.VehicleState) bool {
				return !st.OnRoute && st.StopMinutes > domain.DeviationStopMinutes
			},
			Message: func(st domain.VehicleState, v domain.Vehicle) string {
				return fmt.Sprintf("CRITICAL: Vehicle %s off route for %d minutes, %.0f m from %s - %s", st.VehicleID, st.StopMinutes, st.DeviationMeters, st.NearestWaypoint, driverTag(v))
			},
		},
		{
			Type:      domain.IncidentLowFuel,
			Severity:  domain.SeverityHigh,
			Escalates: false,
			Match: func(st domain.VehicleState) bool {
				return st.HasFuel && st.FuelLevel < domain.CriticalFuelPercent
			},
			Message: func(st domain.VehicleState, v domain.Vehicle) string {
				return fmt.Sprintf("Vehicle %s low fuel: %.0f%% - %s", st.VehicleID, st.FuelLevel, driverTag(v))
			},
		},
	}
}

type IncidentDetector struct {
	rules []IncidentRule
	route *RouteModel
}

func NewIncidentDetector(route *RouteModel, rules []IncidentRule) *IncidentDetector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &IncidentDetector{rules: rules, route: route}
}

// Evaluate returns one candidate per matching rule. Candidates are not yet
// deduplicated and carry escalation level 1 with no contact attempts.
func (d *IncidentDetector) Evaluate(st domain.VehicleState, v domain.Vehicle) []domain.Incident {
	var out []domain.Incident
	for _, rule := range d.rules {
		if !rule.Match(st) {
			continue
		}

		status := domain.IncidentInformational
		if rule.Escalates {
			status = domain.IncidentPending
		}
		out = append(out, domain.Incident{
			ID:        uuid.NewString(),
			VehicleID: st.VehicleID,
			Type:      rule.Type,
			Severity:  rule.Severity,
			Message:   rule.Message(st, v),
			Location: domain.IncidentLocation{
				Lat:         st.Position.Lat,
				Lon:         st.Position.Lon,
				Description: d.route.Describe(st.Position.Point()),
			},
			CreatedAt:       st.Position.Timestamp,
			EscalationLevel: 1,
			ContactAttempts: []domain.ContactAttempt{},
			Status:          status,
			Approximated:    st.Position.TimestampApproximated,
		})
	}
	return out
}

func (d *IncidentDetector) Escalates(t domain.IncidentType) bool {
	for _, rule := range d.rules {
		if rule.Type == t {
			return rule.Escalates
		}
	}
	return false
}

func driverTag(v domain.Vehicle) string {
	switch {
	case v.DriverName == "":
		return "Driver: unknown"
	case v.DriverPhone == "":
		return "Driver: " + v.DriverName
	}
	return fmt.Sprintf("Driver: %s (%s)", v.DriverName, v.DriverPhone)
}
