package notifier

import (
	"context"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

// NotificationSender delivers one notification and reports whether it was
// delivered. Transport failures are reported as false, never as a panic.
type NotificationSender interface {
	Send(ctx context.Context, contact domain.Contact, channel domain.Channel, inc domain.Incident) bool
}

// Notification is the payload every transport renders.
type Notification struct {
	IncidentID      string              `json:"incident_id"`
	VehicleID       string              `json:"vehicle_id"`
	IncidentType    domain.IncidentType `json:"incident_type"`
	Severity        domain.Severity     `json:"severity"`
	Message         string              `json:"message"`
	Location        string              `json:"location"`
	EscalationLevel int                 `json:"escalation_level"`
	Channel         domain.Channel      `json:"channel"`
	ContactName     string              `json:"contact_name"`
	Address         string              `json:"address"`
	SentAt          int64               `json:"sent_at"`
}

func NewNotification(contact domain.Contact, channel domain.Channel, inc domain.Incident, now time.Time) Notification {
	return Notification{
		IncidentID:      inc.ID,
		VehicleID:       inc.VehicleID,
		IncidentType:    inc.Type,
		Severity:        inc.Severity,
		Message:         inc.Message,
		Location:        inc.Location.Description,
		EscalationLevel: inc.EscalationLevel,
		Channel:         channel,
		ContactName:     contact.Name,
		Address:         contact.Address(channel),
		SentAt:          now.Unix(),
	}
}

// Router picks a sender by channel and falls back when none is registered.
type Router struct {
	senders  map[domain.Channel]NotificationSender
	fallback NotificationSender
}

func NewRouter(fallback NotificationSender) *Router {
	return &Router{
		senders:  make(map[domain.Channel]NotificationSender),
		fallback: fallback,
	}
}

func (r *Router) Route(channel domain.Channel, s NotificationSender) *Router {
	r.senders[channel] = s
	return r
}

func (r *Router) Send(ctx context.Context, contact domain.Contact, channel domain.Channel, inc domain.Incident) bool {
	if contact.Address(channel) == "" {
		return false
	}
	if s, ok := r.senders[channel]; ok {
		return s.Send(ctx, contact, channel, inc)
	}
	if r.fallback == nil {
		return false
	}
	return r.fallback.Send(ctx, contact, channel, inc)
}
