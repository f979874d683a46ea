package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(nil)
}

type mockEventPublisher struct {
	mu        sync.Mutex
	err       error
	geofences []*domain.GeofenceEvent
	incidents []*domain.Incident
}

func (m *mockEventPublisher) PublishGeofenceEvent(_ context.Context, e *domain.GeofenceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geofences = append(m.geofences, e)
	return m.err
}

func (m *mockEventPublisher) PublishIncident(_ context.Context, inc *domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents = append(m.incidents, inc)
	return m.err
}

type mockEventRepo struct {
	mu       sync.Mutex
	events   int
	activity int
}

func (m *mockEventRepo) InsertGeofenceEvent(context.Context, *domain.GeofenceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events++
	return nil
}

func (m *mockEventRepo) InsertActivity(context.Context, *domain.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity++
	return nil
}

type mockIncidentRepo struct {
	mu       sync.Mutex
	saved    int
	attempts int
}

func (m *mockIncidentRepo) Save(context.Context, *domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved++
	return nil
}

func (m *mockIncidentRepo) InsertAttempt(context.Context, string, *domain.ContactAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	return nil
}

type sentNotification struct {
	contact string
	channel domain.Channel
	level   int
}

// recordingSender records every Send. deliver decides the outcome; nil means
// always delivered.
type recordingSender struct {
	mu      sync.Mutex
	sent    []sentNotification
	deliver func(domain.Contact, domain.Channel) bool
}

func (s *recordingSender) Send(_ context.Context, c domain.Contact, ch domain.Channel, inc domain.Incident) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentNotification{contact: c.Name, channel: ch, level: inc.EscalationLevel})
	if s.deliver == nil {
		return true
	}
	return s.deliver(c, ch)
}

func (s *recordingSender) count(ch domain.Channel) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, n2 := range s.sent {
		if n2.channel == ch {
			n++
		}
	}
	return n
}

// gatedSender holds the first send to one contact on one channel open until
// release is closed.
type gatedSender struct {
	*recordingSender
	contact string
	channel domain.Channel
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedSender(rec *recordingSender, contact string, ch domain.Channel) *gatedSender {
	return &gatedSender{
		recordingSender: rec,
		contact:         contact,
		channel:         ch,
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (s *gatedSender) Send(ctx context.Context, c domain.Contact, ch domain.Channel, inc domain.Incident) bool {
	if c.Name == s.contact && ch == s.channel {
		s.once.Do(func() {
			close(s.entered)
			<-s.release
		})
	}
	return s.recordingSender.Send(ctx, c, ch, inc)
}
