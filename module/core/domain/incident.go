package domain

import "time"

type IncidentType string

const (
	IncidentExtendedStop   IncidentType = "critical_extended_stop"
	IncidentSpeedViolation IncidentType = "critical_speed_violation"
	IncidentRouteDeviation IncidentType = "critical_route_deviation"
	IncidentLowFuel        IncidentType = "critical_low_fuel"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

type IncidentStatus string

const (
	IncidentPending       IncidentStatus = "pending"
	IncidentEscalating    IncidentStatus = "escalating"
	IncidentInformational IncidentStatus = "informational"
	IncidentAcknowledged  IncidentStatus = "acknowledged"
	IncidentExhausted     IncidentStatus = "exhausted"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

type IncidentLocation struct {
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	Description string  `json:"description"`
}

type ContactAttempt struct {
	ContactName string    `json:"contact_name"`
	Channel     Channel   `json:"method"`
	Address     string    `json:"address"`
	Attempt     int       `json:"attempt"`
	Level       int       `json:"level"`
	Timestamp   time.Time `json:"timestamp"`
	Delivered   bool      `json:"delivered"`
}

type Incident struct {
	ID              string           `json:"id"`
	VehicleID       string           `json:"vehicle_id"`
	Type            IncidentType     `json:"incident_type"`
	Severity        Severity         `json:"severity"`
	Message         string           `json:"message"`
	Location        IncidentLocation `json:"location"`
	CreatedAt       time.Time        `json:"created_at"`
	Acknowledged    bool             `json:"acknowledged"`
	AcknowledgedAt  *time.Time       `json:"acknowledged_at,omitempty"`
	EscalationLevel int              `json:"escalation_level"`
	ContactAttempts []ContactAttempt `json:"contact_attempts"`
	Status          IncidentStatus   `json:"status"`
	Approximated    bool             `json:"timestamp_approximated"`
}

// Open reports whether the incident still blocks a new incident of the same
// vehicle and type.
func (i *Incident) Open() bool {
	switch i.Status {
	case IncidentAcknowledged, IncidentExhausted:
		return false
	}
	return !i.Acknowledged
}

// Clone returns a copy that shares no slices with i.
func (i *Incident) Clone() Incident {
	c := *i
	c.ContactAttempts = append([]ContactAttempt(nil), i.ContactAttempts...)
	if i.AcknowledgedAt != nil {
		at := *i.AcknowledgedAt
		c.AcknowledgedAt = &at
	}
	return c
}

type IncidentFilter struct {
	VehicleID    string
	Severity     Severity
	Acknowledged *bool
	OpenOnly     bool
}

func (f IncidentFilter) Match(i *Incident) bool {
	if f.VehicleID != "" && i.VehicleID != f.VehicleID {
		return false
	}
	if f.Severity != "" && i.Severity != f.Severity {
		return false
	}
	if f.Acknowledged != nil && i.Acknowledged != *f.Acknowledged {
		return false
	}
	if f.OpenOnly && !i.Open() {
		return false
	}
	return true
}
