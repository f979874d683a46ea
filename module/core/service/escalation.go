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
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrQueueClosed      = errors.New("escalation queue closed")
)

const defaultQueueSize = 256

type EscalationStatus struct {
	ActiveEscalations int            `json:"active_escalations"`
	PendingTimers     []PendingTimer `json:"pending_timers"`
	Tiers             []domain.Tier  `json:"tiers"`
	AttemptInterval   time.Duration  `json:"attempt_interval"`
	MaxAttempts       int            `json:"max_attempts"`
}

// EscalationEngine runs one timeline per admitted incident: push the tier,
// wait the tier timeout, then alternate email and phone rounds spaced by the
// attempt interval, then move to the next tier. Acknowledgement cancels the
// timeline; running out of tiers marks the incident exhausted.
type EscalationEngine struct {
	incidents store.IncidentStore
	events    store.EventLog
	sender    notifier.NotificationSender
	journal   database.IncidentRepository
	publisher publisher.EventPublisher
	policy    domain.EscalationPolicy

	clock     clockz.Clock
	timers    *TimerRegistry
	queueSize int
	queue     chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	metrics *metrics.Metrics
	logger  *slog.Logger
}

type EscalationOption func(*EscalationEngine)

func WithClock(c clockz.Clock) EscalationOption {
	return func(e *EscalationEngine) { e.clock = c }
}

func WithQueueSize(n int) EscalationOption {
	return func(e *EscalationEngine) { e.queueSize = n }
}

func NewEscalationEngine(
	incidents store.IncidentStore,
	events store.EventLog,
	sender notifier.NotificationSender,
	journal database.IncidentRepository,
	pub publisher.EventPublisher,
	policy domain.EscalationPolicy,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...EscalationOption,
) *EscalationEngine {
	e := &EscalationEngine{
		incidents: incidents,
		events:    events,
		sender:    sender,
		journal:   journal,
		publisher: pub,
		policy:    policy,
		clock:     clockz.RealClock,
		timers:    NewTimerRegistry(),
		queueSize: defaultQueueSize,
		done:      make(chan struct{}),
		metrics:   m,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.queueSize <= 0 {
		e.queueSize = defaultQueueSize
	}
	e.queue = make(chan string, e.queueSize)
	return e
}

// Enqueue hands an admitted incident to the engine.
func (e *EscalationEngine) Enqueue(ctx context.Context, incidentID string) error {
	select {
	case <-e.done:
		return ErrQueueClosed
	default:
	}

	select {
	case e.queue <- incidentID:
		return nil
	case <-e.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes the queue until ctx is cancelled, then cancels every pending
// wait and returns once all timelines have stopped.
func (e *EscalationEngine) Run(ctx context.Context) {
	defer e.closeOnce.Do(func() { close(e.done) })

	for {
		select {
		case id := <-e.queue:
			e.start(ctx, id)
		case <-ctx.Done():
			n := e.timers.CancelAll()
			e.wg.Wait()
			e.logger.Info("escalation engine stopped", slog.Int("cancelled", n))
			return
		}
	}
}

func (e *EscalationEngine) start(ctx context.Context, id string) {
	ictx, cancel := context.WithCancel(ctx)
	if !e.timers.Track(id, cancel) {
		cancel()
		return
	}

	inc, err := e.incidents.Get(id)
	if err != nil || !inc.Open() {
		e.timers.Release(id)
		return
	}

	e.wg.Add(1)
	e.metrics.EscalationsActive.Inc()
	go func() {
		defer e.wg.Done()
		defer e.metrics.EscalationsActive.Dec()
		defer e.timers.Release(id)
		e.escalate(ictx, inc)
	}()
}

func (e *EscalationEngine) escalate(ctx context.Context, inc domain.Incident) {
	id := inc.ID
	level := inc.EscalationLevel
	if _, ok := e.policy.Tier(level); !ok {
		if next, ok := e.policy.NextTier(level); ok {
			level = next
			_ = e.incidents.RaiseLevel(id, level)
		}
	}
	_ = e.incidents.SetStatus(id, domain.IncidentEscalating)

	for {
		tier, ok := e.policy.Tier(level)
		if !ok {
			e.exhaust(ctx, id, level)
			return
		}

		e.logger.Info("escalating incident",
			slog.String("incident_id", id),
			slog.String("vehicle_id", inc.VehicleID),
			slog.Int("level", level),
			slog.Int("contacts", len(tier.Contacts)))

		if !e.notifyTier(ctx, id, tier, domain.ChannelPush, 0) {
			return
		}
		if !e.wait(ctx, id, tier.Timeout) {
			return
		}
		for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
			if !e.notifyTier(ctx, id, tier, domain.ChannelEmail, attempt) {
				return
			}
			if !e.wait(ctx, id, e.policy.AttemptInterval) {
				return
			}
			if !e.notifyTier(ctx, id, tier, domain.ChannelPhone, attempt) {
				return
			}
			if !e.wait(ctx, id, e.policy.AttemptInterval) {
				return
			}
		}

		if level >= e.policy.MaxTier() {
			e.exhaust(ctx, id, level)
			return
		}
		next, _ := e.policy.NextTier(level)
		if err := e.incidents.RaiseLevel(id, next); err != nil {
			return
		}
		level = next
		e.persist(ctx, id)
	}
}

// notifyTier dispatches to every contact of the tier, checking for
// acknowledgement before each send. It returns false once the timeline must
// stop.
func (e *EscalationEngine) notifyTier(ctx context.Context, id string, tier domain.Tier, ch domain.Channel, attempt int) bool {
	for _, c := range tier.Contacts {
		if ctx.Err() != nil || e.incidents.Acknowledged(id) {
			return false
		}
		inc, err := e.incidents.Get(id)
		if err != nil {
			return false
		}

		// A send that has started runs to completion even if the incident
		// is acknowledged meanwhile, and its outcome is recorded.
		sendCtx := context.WithoutCancel(ctx)
		delivered := e.sender.Send(sendCtx, c, ch, inc)

		a := domain.ContactAttempt{
			ContactName: c.Name,
			Channel:     ch,
			Address:     c.Address(ch),
			Attempt:     attempt,
			Level:       tier.Level,
			Timestamp:   e.clock.Now(),
			Delivered:   delivered,
		}
		if err := e.incidents.AppendAttempt(id, a); err != nil {
			return false
		}
		e.metrics.NotificationAttempt.WithLabelValues(string(ch), fmt.Sprint(delivered)).Inc()
		if err := e.journal.InsertAttempt(sendCtx, id, &a); err != nil {
			e.logger.Warn("journal contact attempt", slog.String("incident_id", id), slog.Any("error", err))
		}
		if !delivered {
			e.logger.Warn("notification not delivered",
				slog.String("incident_id", id),
				slog.String("channel", string(ch)),
				slog.String("contact", c.Name),
				slog.Int("attempt", attempt))
		}
	}
	return ctx.Err() == nil
}

func (e *EscalationEngine) wait(ctx context.Context, id string, d time.Duration) bool {
	if d > 0 {
		fire := e.clock.After(d)
		e.timers.Schedule(id, e.clock.Now().Add(d))
		defer e.timers.Fired(id)

		select {
		case <-fire:
		case <-ctx.Done():
			return false
		}
	}
	return ctx.Err() == nil && !e.incidents.Acknowledged(id)
}

func (e *EscalationEngine) exhaust(ctx context.Context, id string, level int) {
	if err := e.incidents.SetStatus(id, domain.IncidentExhausted); err != nil {
		return
	}
	inc, err := e.incidents.Get(id)
	if err != nil || inc.Status != domain.IncidentExhausted {
		return
	}

	e.metrics.EscalationsExhaust.Inc()
	e.logger.Warn("escalation exhausted, manual follow-up required",
		slog.String("incident_id", id),
		slog.String("vehicle_id", inc.VehicleID),
		slog.Int("level", level),
		slog.Int("attempts", len(inc.ContactAttempts)))

	e.events.AppendActivity(domain.ActivityLog{
		ID:          uuid.NewString(),
		VehicleID:   inc.VehicleID,
		Type:        domain.ActivityIncident,
		Description: fmt.Sprintf("Escalation exhausted for %s on vehicle %s", inc.Type, inc.VehicleID),
		Lat:         inc.Location.Lat,
		Lon:         inc.Location.Lon,
		Timestamp:   e.clock.Now(),
	})
	e.persist(ctx, id)
}

// Acknowledge closes an open incident and cancels its pending waits before
// returning. Acknowledging a closed incident returns it unchanged.
func (e *EscalationEngine) Acknowledge(ctx context.Context, id string) (domain.Incident, error) {
	inc, changed, err := e.incidents.Acknowledge(id, e.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return domain.Incident{}, ErrIncidentNotFound
	}
	if err != nil {
		return domain.Incident{}, err
	}
	e.timers.Cancel(id)

	if !changed {
		return inc, nil
	}

	e.metrics.Acknowledgements.Inc()
	e.logger.Info("incident acknowledged",
		slog.String("incident_id", id),
		slog.String("vehicle_id", inc.VehicleID),
		slog.Int("level", inc.EscalationLevel))
	e.events.AppendActivity(domain.ActivityLog{
		ID:          uuid.NewString(),
		VehicleID:   inc.VehicleID,
		Type:        domain.ActivityAcknowledged,
		Description: fmt.Sprintf("Incident %s acknowledged for vehicle %s", inc.Type, inc.VehicleID),
		Lat:         inc.Location.Lat,
		Lon:         inc.Location.Lon,
		Timestamp:   *inc.AcknowledgedAt,
	})
	e.persist(ctx, id)
	return inc, nil
}

func (e *EscalationEngine) persist(ctx context.Context, id string) {
	inc, err := e.incidents.Get(id)
	if err != nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := e.journal.Save(ctx, &inc); err != nil {
		e.logger.Warn("journal incident", slog.String("incident_id", id), slog.Any("error", err))
	}
	if err := e.publisher.PublishIncident(ctx, &inc); err != nil {
		e.logger.Warn("publish incident", slog.String("incident_id", id), slog.Any("error", err))
	}
}

func (e *EscalationEngine) Status() EscalationStatus {
	return EscalationStatus{
		ActiveEscalations: e.timers.Len(),
		PendingTimers:     e.timers.Pending(),
		Tiers:             e.policy.Tiers,
		AttemptInterval:   e.policy.AttemptInterval,
		MaxAttempts:       e.policy.MaxAttempts,
	}
}

func (e *EscalationEngine) Get(id string) (domain.Incident, error) {
	inc, err := e.incidents.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Incident{}, ErrIncidentNotFound
	}
	return inc, err
}

func (e *EscalationEngine) List(filter domain.IncidentFilter) []domain.Incident {
	return e.incidents.List(filter)
}
