package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCondition_ActivationEdge(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, EventActivated, c.Update(now, true, time.Hour))
	assert.True(t, c.Active())
	assert.Equal(t, now, c.ActiveSince())
}

func TestCondition_NoRepeatBeforeEscalation(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Update(now, true, time.Hour)
	assert.Equal(t, EventNone, c.Update(now.Add(30*time.Minute), true, time.Hour))
	assert.Equal(t, EventNone, c.Update(now.Add(59*time.Minute), true, time.Hour))
}

func TestCondition_RepeatAfterEscalation(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Update(now, true, time.Hour)
	assert.Equal(t, EventRepeat, c.Update(now.Add(time.Hour), true, time.Hour))

	// Escalation is measured from the last alert, not activation.
	assert.Equal(t, EventNone, c.Update(now.Add(90*time.Minute), true, time.Hour))
	assert.Equal(t, EventRepeat, c.Update(now.Add(2*time.Hour), true, time.Hour))
}

func TestCondition_ZeroEscalationNeverRepeats(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Update(now, true, 0)
	assert.Equal(t, EventNone, c.Update(now.Add(100*time.Hour), true, 0))
}

func TestCondition_ClearResetsTimestamps(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Update(now, true, time.Hour)
	assert.Equal(t, EventCleared, c.Update(now.Add(time.Minute), false, time.Hour))

	assert.False(t, c.Active())
	assert.True(t, c.ActiveSince().IsZero())
}

func TestCondition_ReactivationIsEdgeAgain(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Update(now, true, time.Hour)
	c.Update(now.Add(time.Minute), false, time.Hour)

	// Re-activation inside the old escalation window must still be an
	// edge, never suppressed by a stale last-alert timestamp.
	assert.Equal(t, EventActivated, c.Update(now.Add(2*time.Minute), true, time.Hour))
}

func TestCondition_InactiveStaysQuiet(t *testing.T) {
	t.Parallel()

	var c Condition
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, EventNone, c.Update(now, false, time.Hour))
	assert.Equal(t, EventNone, c.Update(now.Add(time.Minute), false, time.Hour))
}
