package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func TestGridFeedStatusOf(t *testing.T) {
	t.Parallel()

	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, telemetry.ReportingZone)
	night := time.Date(2026, 8, 30, 22, 0, 0, 0, telemetry.ReportingZone)

	tests := []struct {
		name     string
		feed     float64
		pv       float64
		now      time.Time
		expected domain.GridFeedStatus
	}{
		{"feeding during day", 800, 2000, noon, domain.GridFeedEnabled},
		{"feeding at night", 60, 0, night, domain.GridFeedEnabled},
		{"producing but not feeding", 0, 2000, noon, domain.GridFeedDisabled},
		{"trickle feed below threshold", 30, 2000, noon, domain.GridFeedDisabled},
		{"low production at noon", 0, 200, noon, domain.GridFeedUnknown},
		{"not feeding at night", 0, 0, night, domain.GridFeedUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &telemetry.Reading{SolarFeedPower: tt.feed, PVPower: tt.pv}
			assert.Equal(t, tt.expected, GridFeedStatusOf(r, tt.now, 500))
		})
	}
}

func TestLoadSheddingActive(t *testing.T) {
	t.Parallel()

	assert.False(t, loadSheddingActive(0, 180), "0V is system-off, not grid-down")
	assert.True(t, loadSheddingActive(170, 180))
	assert.True(t, loadSheddingActive(0.1, 180))
	assert.False(t, loadSheddingActive(180, 180))
	assert.False(t, loadSheddingActive(230, 180))
}

func TestInSummaryWindow(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 8, 30, 0, 4, 59, 0, telemetry.ReportingZone)
	out := time.Date(2026, 8, 30, 0, 5, 0, 0, telemetry.ReportingZone)

	assert.True(t, inSummaryWindow(in))
	assert.False(t, inSummaryWindow(out))

	// The window is defined in the reporting zone, not UTC.
	utcMidnight := time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC)
	assert.False(t, inSummaryWindow(utcMidnight))
}
