package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier"
)

var _ notifier.NotificationSender = (*PushSender)(nil)

const SubjectPrefix = "fleet.notify.push"

// PushSender hands push notifications to the mobile gateway over NATS. A
// publish is considered delivered once the server has acknowledged the flush.
type PushSender struct {
	conn         *nats.Conn
	flushTimeout time.Duration
	logger       *slog.Logger
}

func NewPushSender(conn *nats.Conn, flushTimeout time.Duration, logger *slog.Logger) *PushSender {
	return &PushSender{conn: conn, flushTimeout: flushTimeout, logger: logger}
}

func Subject(pushToken string) string {
	return SubjectPrefix + "." + pushToken
}

func (s *PushSender) Send(ctx context.Context, contact domain.Contact, channel domain.Channel, inc domain.Incident) bool {
	n := notifier.NewNotification(contact, channel, inc, time.Now())
	data, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("marshal push notification", slog.String("incident_id", inc.ID), slog.Any("error", err))
		return false
	}

	if err := s.conn.Publish(Subject(contact.PushToken), data); err != nil {
		s.logger.Warn("push publish failed", slog.String("incident_id", inc.ID), slog.String("contact", contact.Name), slog.Any("error", err))
		return false
	}

	fctx, cancel := context.WithTimeout(ctx, s.flushTimeout)
	defer cancel()
	if err := s.conn.FlushWithContext(fctx); err != nil {
		s.logger.Warn("push flush failed", slog.String("incident_id", inc.ID), slog.Any("error", err))
		return false
	}
	return true
}
