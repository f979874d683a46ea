package core

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher/rabbitmq"
)

// EventEnvelope is the body of every message on the fleet.events exchange.
type EventEnvelope = rabbitmq.Envelope

const (
	EventQueue        = rabbitmq.QueueName
	EventKindGeofence = rabbitmq.KindGeofence
	EventKindIncident = rabbitmq.KindIncident
)

// DeclareEvents declares the exchange and queue consumers read from.
func DeclareEvents(ch *amqp.Channel) error {
	return rabbitmq.Declare(ch)
}
