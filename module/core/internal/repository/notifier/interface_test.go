package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

type countingSender struct {
	calls int
	ok    bool
}

func (c *countingSender) Send(_ context.Context, _ domain.Contact, _ domain.Channel, _ domain.Incident) bool {
	c.calls++
	return c.ok
}

var fleetManager = domain.Contact{
	Name:      "Fleet Manager",
	Phone:     "+91-9437100001",
	Email:     "fleet.manager@ntpc.co.in",
	PushToken: "fleet_mgr_push_001",
}

func TestRouter_RoutesByChannel(t *testing.T) {
	push := &countingSender{ok: true}
	fallback := &countingSender{ok: false}
	r := NewRouter(fallback).Route(domain.ChannelPush, push)

	if !r.Send(context.Background(), fleetManager, domain.ChannelPush, domain.Incident{}) {
		t.Error("expected push to be delivered")
	}
	if r.Send(context.Background(), fleetManager, domain.ChannelEmail, domain.Incident{}) {
		t.Error("expected fallback result for email")
	}
	if push.calls != 1 || fallback.calls != 1 {
		t.Errorf("expected 1 push and 1 fallback call, got %d and %d", push.calls, fallback.calls)
	}
}

func TestRouter_MissingAddress(t *testing.T) {
	push := &countingSender{ok: true}
	r := NewRouter(nil).Route(domain.ChannelPush, push)

	if r.Send(context.Background(), domain.Contact{Name: "No Token"}, domain.ChannelPush, domain.Incident{}) {
		t.Error("expected undelivered for contact without push token")
	}
	if push.calls != 0 {
		t.Errorf("expected sender not to be called, got %d", push.calls)
	}
}

func TestNewNotification(t *testing.T) {
	inc := domain.Incident{
		ID:              "inc-1",
		VehicleID:       "OD-03-NT-1004",
		Type:            domain.IncidentSpeedViolation,
		Severity:        domain.SeverityCritical,
		Location:        domain.IncidentLocation{Description: "Near Kamakhyanagar"},
		EscalationLevel: 2,
	}
	n := NewNotification(fleetManager, domain.ChannelPhone, inc, time.Unix(1715003456, 0))

	if n.Address != "+91-9437100001" {
		t.Errorf("expected phone address, got %s", n.Address)
	}
	if n.EscalationLevel != 2 || n.Location != "Near Kamakhyanagar" || n.SentAt != 1715003456 {
		t.Errorf("unexpected notification: %+v", n)
	}
}
