package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	ExchangeName = "fleet.events"
	QueueName    = "fleet_events"

	KindGeofence = "geofence_event"
	KindIncident = "incident"
)

type EventPublisher struct {
	ch *amqp.Channel
}

func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := Declare(ch); err != nil {
		return nil, err
	}

	return &EventPublisher{ch: ch}, nil
}

// Declare sets up the fanout exchange and the durable queue bound to it.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Envelope is the message body on fleet.events. Kind selects which payload
// field is set.
type Envelope struct {
	Kind     string                `json:"kind"`
	Geofence *domain.GeofenceEvent `json:"geofence_event,omitempty"`
	Incident *incidentMessage      `json:"incident,omitempty"`
}

type incidentMessage struct {
	ID              string                  `json:"id"`
	VehicleID       string                  `json:"vehicle_id"`
	Type            domain.IncidentType     `json:"incident_type"`
	Severity        domain.Severity         `json:"severity"`
	Message         string                  `json:"message"`
	Location        domain.IncidentLocation `json:"location"`
	EscalationLevel int                     `json:"escalation_level"`
	Status          domain.IncidentStatus   `json:"status"`
	CreatedAt       int64                   `json:"created_at"`
}

func (p *EventPublisher) PublishGeofenceEvent(ctx context.Context, e *domain.GeofenceEvent) error {
	return p.publish(ctx, Envelope{Kind: KindGeofence, Geofence: e})
}

func (p *EventPublisher) PublishIncident(ctx context.Context, inc *domain.Incident) error {
	return p.publish(ctx, Envelope{Kind: KindIncident, Incident: &incidentMessage{
		ID:              inc.ID,
		VehicleID:       inc.VehicleID,
		Type:            inc.Type,
		Severity:        inc.Severity,
		Message:         inc.Message,
		Location:        inc.Location,
		EscalationLevel: inc.EscalationLevel,
		Status:          inc.Status,
		CreatedAt:       inc.CreatedAt.Unix(),
	}})
}

func (p *EventPublisher) publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", env.Kind, err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, env.Kind, false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        env.Kind,
		Body:        body,
	})
}
