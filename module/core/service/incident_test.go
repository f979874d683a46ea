package service

import (
	"strings"
	"testing"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

func fuel(v float64) *float64 { return &v }

func stateAt(speed float64, stopMinutes int, onRoute bool) domain.VehicleState {
	return domain.VehicleState{
		VehicleID: "OD-03-NT-1001",
		Position: domain.PositionReport{
			VehicleID: "OD-03-NT-1001",
			Lat:       20.9680,
			Lon:       85.2890,
			Speed:     speed,
			Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		},
		StopMinutes:     stopMinutes,
		OnRoute:         onRoute,
		NearestWaypoint: "Boinda",
		SpeedLimit:      80,
	}
}

var rajesh = domain.Vehicle{VehicleID: "OD-03-NT-1001", DriverName: "Rajesh Kumar", DriverPhone: "+91-9437123001"}

func types(incs []domain.Incident) map[domain.IncidentType]domain.Incident {
	out := make(map[domain.IncidentType]domain.Incident, len(incs))
	for _, inc := range incs {
		out[inc.Type] = inc
	}
	return out
}

func TestEvaluate_NoIncidentsWhenNormal(t *testing.T) {
	d := NewIncidentDetector(NewRouteModel(talcherRoute()), nil)

	if got := d.Evaluate(stateAt(60, 0, true), rajesh); len(got) != 0 {
		t.Fatalf("expected no incidents, got %+v", got)
	}
}

func TestEvaluate_Thresholds(t *testing.T) {
	d := NewIncidentDetector(NewRouteModel(talcherRoute()), nil)

	tests := []struct {
		name  string
		state domain.VehicleState
		want  domain.IncidentType
		fire  bool
	}{
		{"speed at threshold", stateAt(90, 0, true), domain.IncidentSpeedViolation, false},
		{"speed above threshold", stateAt(90.1, 0, true), domain.IncidentSpeedViolation, true},
		{"stop at threshold", stateAt(0, 60, true), domain.IncidentExtendedStop, false},
		{"stop above threshold", stateAt(0, 61, true), domain.IncidentExtendedStop, true},
		{"long stop while creeping", stateAt(2, 61, true), domain.IncidentExtendedStop, false},
		{"deviation at threshold", stateAt(0, 30, false), domain.IncidentRouteDeviation, false},
		{"deviation above threshold", stateAt(0, 31, false), domain.IncidentRouteDeviation, true},
		{"long stop on route", stateAt(0, 45, true), domain.IncidentRouteDeviation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := types(d.Evaluate(tt.state, rajesh))[tt.want]
			if ok != tt.fire {
				t.Errorf("expected %s fired=%v, got %v", tt.want, tt.fire, ok)
			}
		})
	}
}

func TestEvaluate_RulesFireIndependently(t *testing.T) {
	d := NewIncidentDetector(NewRouteModel(talcherRoute()), nil)

	st := stateAt(0, 75, false)
	st.HasFuel = true
	st.FuelLevel = 10

	got := types(d.Evaluate(st, rajesh))
	for _, want := range []domain.IncidentType{domain.IncidentExtendedStop, domain.IncidentRouteDeviation, domain.IncidentLowFuel} {
		if _, ok := got[want]; !ok {
			t.Errorf("expected %s", want)
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 incidents, got %d", len(got))
	}
}

func TestEvaluate_CandidateShape(t *testing.T) {
	d := NewIncidentDetector(NewRouteModel(talcherRoute()), nil)

	got := d.Evaluate(stateAt(95, 0, true), rajesh)
	if len(got) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(got))
	}
	inc := got[0]
	if inc.Type != domain.IncidentSpeedViolation || inc.Severity != domain.SeverityCritical {
		t.Errorf("unexpected type/severity %s/%s", inc.Type, inc.Severity)
	}
	if inc.EscalationLevel != 1 || len(inc.ContactAttempts) != 0 || inc.Acknowledged {
		t.Errorf("expected fresh candidate, got %+v", inc)
	}
	if inc.Status != domain.IncidentPending {
		t.Errorf("expected pending status, got %s", inc.Status)
	}
	if !strings.Contains(inc.Message, "Rajesh Kumar") || !strings.Contains(inc.Message, "95") {
		t.Errorf("message missing driver or speed: %q", inc.Message)
	}
	if inc.Location.Description != "At Boinda" {
		t.Errorf("expected location described by nearest waypoint, got %q", inc.Location.Description)
	}
	if !inc.CreatedAt.Equal(time.Unix(1_700_000_000, 0)) {
		t.Errorf("expected created_at from the report, got %v", inc.CreatedAt)
	}
}

func TestEvaluate_LowFuelIsInformational(t *testing.T) {
	d := NewIncidentDetector(NewRouteModel(talcherRoute()), nil)

	st := stateAt(50, 0, true)
	st.HasFuel = true
	st.FuelLevel = 12

	got := d.Evaluate(st, rajesh)
	if len(got) != 1 || got[0].Type != domain.IncidentLowFuel {
		t.Fatalf("expected one low fuel incident, got %+v", got)
	}
	if got[0].Severity != domain.SeverityHigh || got[0].Status != domain.IncidentInformational {
		t.Errorf("expected high/informational, got %s/%s", got[0].Severity, got[0].Status)
	}
	if d.Escalates(domain.IncidentLowFuel) {
		t.Error("low fuel must not escalate")
	}
	if !d.Escalates(domain.IncidentExtendedStop) {
		t.Error("extended stop must escalate")
	}
}

func TestEvaluate_NoFuelReading(t *testing.T) {
	d := NewIncidentDetector(NewRouteModel(talcherRoute()), nil)

	st := stateAt(50, 0, true)
	st.FuelLevel = 0

	if got := d.Evaluate(st, rajesh); len(got) != 0 {
		t.Fatalf("expected no low fuel incident without a reading, got %+v", got)
	}
}

func TestDriverTag(t *testing.T) {
	tests := []struct {
		v    domain.Vehicle
		want string
	}{
		{domain.Vehicle{}, "Driver: unknown"},
		{domain.Vehicle{DriverName: "Rajesh Kumar"}, "Driver: Rajesh Kumar"},
		{rajesh, "Driver: Rajesh Kumar (+91-9437123001)"},
	}
	for _, tt := range tests {
		if got := driverTag(tt.v); got != tt.want {
			t.Errorf("driverTag(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
