// Package monitor holds the per-account condition detectors and the
// engine that drives one polling cycle over all active accounts.
package monitor

import "time"

// Event is the outcome of one condition evaluation.
type Event int

const (
	// EventNone means no alert-worthy transition happened.
	EventNone Event = iota
	// EventActivated is the inactive-to-active edge.
	EventActivated
	// EventRepeat fires when a continuously active condition passes
	// its escalation interval since the last alert.
	EventRepeat
	// EventCleared is the active-to-inactive edge.
	EventCleared
)

// Condition is the reusable edge/escalation state machine shared by
// the detectors. Inactive conditions hold zero timestamps.
type Condition struct {
	active          bool
	firstDetectedAt time.Time
	lastAlertAt     time.Time
}

// Active reports whether the condition is currently active.
func (c *Condition) Active() bool { return c.active }

// ActiveSince returns when the condition first became active, zero if
// inactive.
func (c *Condition) ActiveSince() time.Time { return c.firstDetectedAt }

// Update advances the state machine with the latest predicate result.
// An escalation of zero or less disables repeat alerts. The returned
// event tells the caller whether to dispatch.
func (c *Condition) Update(now time.Time, active bool, escalation time.Duration) Event {
	if active {
		if !c.active {
			c.active = true
			c.firstDetectedAt = now
			c.lastAlertAt = now
			return EventActivated
		}
		if escalation > 0 && now.Sub(c.lastAlertAt) >= escalation {
			c.lastAlertAt = now
			return EventRepeat
		}
		return EventNone
	}

	wasActive := c.active
	c.active = false
	c.firstDetectedAt = time.Time{}
	c.lastAlertAt = time.Time{}
	if wasActive {
		return EventCleared
	}
	return EventNone
}
