package service

import (
	"context"
	"testing"
	"time"
)

func TestTimerRegistry_CancelStopsContext(t *testing.T) {
	r := NewTimerRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	if !r.Track("inc-1", cancel) {
		t.Fatal("expected track to succeed")
	}
	if r.Track("inc-1", func() {}) {
		t.Fatal("expected duplicate track to fail")
	}

	r.Schedule("inc-1", time.Unix(1715003756, 0))
	if p, ok := r.PendingFor("inc-1"); !ok || !p.FireAt.Equal(time.Unix(1715003756, 0)) {
		t.Fatalf("expected pending timer, got %+v %v", p, ok)
	}

	if !r.Cancel("inc-1") {
		t.Fatal("expected cancel to find the timer")
	}
	if ctx.Err() == nil {
		t.Error("expected context to be cancelled")
	}
	if r.Cancel("inc-1") {
		t.Error("expected second cancel to be a no-op")
	}
	if _, ok := r.PendingFor("inc-1"); ok {
		t.Error("expected no pending timer after cancel")
	}
}

func TestTimerRegistry_PendingOrdered(t *testing.T) {
	r := NewTimerRegistry()
	base := time.Unix(1715003456, 0)

	r.Track("b", func() {})
	r.Track("a", func() {})
	r.Track("c", func() {})
	r.Schedule("b", base.Add(2*time.Minute))
	r.Schedule("a", base.Add(5*time.Minute))
	r.Schedule("c", base.Add(time.Minute))
	r.Fired("a")

	got := r.Pending()
	if len(got) != 2 {
		t.Fatalf("expected 2 pending timers, got %d", len(got))
	}
	if got[0].IncidentID != "c" || got[1].IncidentID != "b" {
		t.Errorf("expected [c b], got %+v", got)
	}
}

func TestTimerRegistry_CancelAll(t *testing.T) {
	r := NewTimerRegistry()
	ctx1, c1 := context.WithCancel(context.Background())
	ctx2, c2 := context.WithCancel(context.Background())
	r.Track("a", c1)
	r.Track("b", c2)

	if n := r.CancelAll(); n != 2 {
		t.Errorf("expected 2 cancelled, got %d", n)
	}
	if ctx1.Err() == nil || ctx2.Err() == nil {
		t.Error("expected both contexts cancelled")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}
