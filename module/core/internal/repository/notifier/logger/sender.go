package logger

import (
	"context"
	"log/slog"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier"
)

var _ notifier.NotificationSender = (*Sender)(nil)

// Sender writes notifications to the log. It is the fallback transport when no
// gateway is configured for a channel.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(_ context.Context, contact domain.Contact, channel domain.Channel, inc domain.Incident) bool {
	s.logger.Warn("escalation notification",
		slog.String("incident_id", inc.ID),
		slog.String("vehicle_id", inc.VehicleID),
		slog.String("channel", string(channel)),
		slog.String("contact", contact.Name),
		slog.String("address", contact.Address(channel)),
		slog.Int("level", inc.EscalationLevel),
		slog.String("message", inc.Message))
	return true
}
