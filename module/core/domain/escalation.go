package domain

import (
	"sort"
	"time"
)

type Contact struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	PushToken string `json:"push_token"`
}

// Address returns the contact's address for a channel.
func (c Contact) Address(ch Channel) string {
	switch ch {
	case ChannelPush:
		return c.PushToken
	case ChannelEmail:
		return c.Email
	case ChannelPhone:
		return c.Phone
	}
	return ""
}

type Tier struct {
	Level    int           `json:"level"`
	Timeout  time.Duration `json:"timeout"`
	Contacts []Contact     `json:"contacts"`
}

type EscalationPolicy struct {
	Tiers           []Tier
	AttemptInterval time.Duration
	MaxAttempts     int
}

// Tier returns the configured tier with the given level.
func (p EscalationPolicy) Tier(level int) (Tier, bool) {
	for _, t := range p.Tiers {
		if t.Level == level {
			return t, true
		}
	}
	return Tier{}, false
}

// NextTier returns the lowest configured level above level.
func (p EscalationPolicy) NextTier(level int) (int, bool) {
	for _, l := range p.levels() {
		if l > level {
			return l, true
		}
	}
	return 0, false
}

// MaxTier is the highest configured level, or 0 when none is configured.
// Escalation never raises an incident past it.
func (p EscalationPolicy) MaxTier() int {
	levels := p.levels()
	if len(levels) == 0 {
		return 0
	}
	return levels[len(levels)-1]
}

func (p EscalationPolicy) levels() []int {
	out := make([]int, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		out = append(out, t.Level)
	}
	sort.Ints(out)
	return out
}
