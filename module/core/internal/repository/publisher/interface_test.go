package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

type recordingPublisher struct {
	err       error
	geofences int
	incidents int
}

func (r *recordingPublisher) PublishGeofenceEvent(_ context.Context, _ *domain.GeofenceEvent) error {
	r.geofences++
	return r.err
}

func (r *recordingPublisher) PublishIncident(_ context.Context, _ *domain.Incident) error {
	r.incidents++
	return r.err
}

func TestFanout_PublishesToAll(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("broker down")}
	c := &recordingPublisher{}

	err := Fanout{a, b, c}.PublishIncident(context.Background(), &domain.Incident{ID: "inc-1"})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if a.incidents != 1 || b.incidents != 1 || c.incidents != 1 {
		t.Errorf("expected every publisher to be called once, got %d %d %d", a.incidents, b.incidents, c.incidents)
	}

	if err := (Fanout{a, c}).PublishGeofenceEvent(context.Background(), &domain.GeofenceEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.geofences != 1 || c.geofences != 1 {
		t.Errorf("expected geofence event on both, got %d %d", a.geofences, c.geofences)
	}
}
