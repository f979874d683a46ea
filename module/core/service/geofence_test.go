package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store/memory"
)

func newGeofenceService(pub *mockEventPublisher) (*GeofenceService, *memory.EventLog, *mockEventRepo) {
	log := memory.NewEventLog(0)
	journal := &mockEventRepo{}
	svc := NewGeofenceService(pub, log, journal, []domain.Geofence{plantGate, destinationGate}, testMetrics(), discardLogger())
	return svc, log, journal
}

func report(lat, lon float64, ts int64) domain.PositionReport {
	return domain.PositionReport{
		VehicleID: "OD-03-NT-1001",
		Lat:       lat,
		Lon:       lon,
		Timestamp: time.Unix(ts, 0),
	}
}

func TestDetect_BootstrapEnter(t *testing.T) {
	svc, _, _ := newGeofenceService(&mockEventPublisher{})

	events := svc.Detect(nil, report(20.9463, 85.2190, 1715003456))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != domain.GeofenceEnter || events[0].GeofenceName != plantGate.Name {
		t.Errorf("expected enter at plant, got %+v", events[0])
	}
}

func TestDetect_FirstObservationOutside(t *testing.T) {
	svc, _, _ := newGeofenceService(&mockEventPublisher{})

	if events := svc.Detect(nil, report(21.0100, 85.5100, 1715003456)); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestDetect_Transitions(t *testing.T) {
	svc, _, _ := newGeofenceService(&mockEventPublisher{})
	inPlant := report(20.9463, 85.2190, 1715003456)
	away := report(20.9913, 85.2190, 1715003500)

	tests := []struct {
		name string
		prev domain.PositionReport
		curr domain.PositionReport
		want []domain.GeofenceEventType
	}{
		{"outside to inside", away, inPlant, []domain.GeofenceEventType{domain.GeofenceEnter}},
		{"inside to outside", inPlant, away, []domain.GeofenceEventType{domain.GeofenceExit}},
		{"inside to inside", inPlant, inPlant, nil},
		{"outside to outside", away, away, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := tt.prev
			events := svc.Detect(&prev, tt.curr)
			if len(events) != len(tt.want) {
				t.Fatalf("expected %d events, got %d", len(tt.want), len(events))
			}
			for i, e := range events {
				if e.Type != tt.want[i] {
					t.Errorf("event %d: expected %s, got %s", i, tt.want[i], e.Type)
				}
			}
		})
	}
}

func TestCheckAndAlert_PlantRoundTrip(t *testing.T) {
	pub := &mockEventPublisher{}
	svc, log, journal := newGeofenceService(pub)
	ctx := context.Background()

	// 5000 m north of the plant gate
	path := []domain.PositionReport{
		report(20.9463, 85.2190, 1715003456),
		report(20.9913, 85.2190, 1715003756),
		report(20.9464, 85.2191, 1715004056),
	}

	var prev *domain.PositionReport
	var got []domain.GeofenceEvent
	for i := range path {
		events, err := svc.CheckAndAlert(ctx, prev, path[i])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, events...)
		prev = &path[i]
	}

	want := []domain.GeofenceEventType{domain.GeofenceEnter, domain.GeofenceExit, domain.GeofenceEnter}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Type != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i].Type)
		}
		if !got[i].Timestamp.Equal(path[i].Timestamp) {
			t.Errorf("event %d: expected report timestamp %v, got %v", i, path[i].Timestamp, got[i].Timestamp)
		}
		if !got[i].NotificationSent {
			t.Errorf("event %d: expected notification_sent", i)
		}
	}

	if n := len(log.GeofenceEvents("OD-03-NT-1001")); n != 3 {
		t.Errorf("expected 3 logged events, got %d", n)
	}
	activity := log.RecentActivity(10)
	if len(activity) != 3 {
		t.Fatalf("expected 3 activity entries, got %d", len(activity))
	}
	if activity[1].Description != "Vehicle OD-03-NT-1001 exited NTPC Talcher Super Thermal Power Station" {
		t.Errorf("unexpected description: %s", activity[1].Description)
	}
	if activity[1].Type != domain.ActivityGeofenceExit {
		t.Errorf("expected geofence_exit, got %s", activity[1].Type)
	}
	if len(pub.geofences) != 3 || journal.events != 3 || journal.activity != 3 {
		t.Errorf("expected 3 publishes and journal writes, got %d %d %d", len(pub.geofences), journal.events, journal.activity)
	}
}

func TestCheckAndAlert_PublishError(t *testing.T) {
	pub := &mockEventPublisher{err: errors.New("broker down")}
	svc, log, _ := newGeofenceService(pub)

	events, err := svc.CheckAndAlert(context.Background(), nil, report(20.9463, 85.2190, 1715003456))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(events) != 1 || events[0].NotificationSent {
		t.Fatalf("expected 1 event without notification_sent, got %+v", events)
	}
	if n := len(log.GeofenceEvents("")); n != 1 {
		t.Errorf("expected event to be logged despite publish error, got %d", n)
	}
}

func TestCheckAndAlert_ApproximatedTimestampFlagged(t *testing.T) {
	svc, _, _ := newGeofenceService(&mockEventPublisher{})
	r := report(20.9463, 85.2190, 1715003456)
	r.TimestampApproximated = true

	events, _ := svc.CheckAndAlert(context.Background(), nil, r)
	if len(events) != 1 || !events[0].Approximated {
		t.Fatalf("expected approximated flag on event, got %+v", events)
	}
}

// Random walks around the plant gate must never produce two enters in a row
// for the same geofence, apart from the first observation.
func TestDetect_AlternationProperty(t *testing.T) {
	svc, _, _ := newGeofenceService(&mockEventPublisher{})
	rng := rand.New(rand.NewSource(42))

	for walk := 0; walk < 50; walk++ {
		var prev *domain.PositionReport
		last := map[string]domain.GeofenceEventType{}
		for step := 0; step < 200; step++ {
			r := report(
				plantGate.Center.Lat+(rng.Float64()-0.5)*0.008,
				plantGate.Center.Lon+(rng.Float64()-0.5)*0.008,
				int64(1715003456+step),
			)
			for _, e := range svc.Detect(prev, r) {
				if last[e.GeofenceName] == e.Type {
					t.Fatalf("walk %d step %d: consecutive %s for %s", walk, step, e.Type, e.GeofenceName)
				}
				if last[e.GeofenceName] == "" && e.Type == domain.GeofenceExit {
					t.Fatalf("walk %d step %d: exit without a prior enter", walk, step)
				}
				last[e.GeofenceName] = e.Type
			}
			prev = &r
		}
	}
}
