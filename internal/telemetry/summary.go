package telemetry

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/hamzajavaid/solarmon/internal/watchpower"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// sampleInterval is the device's reporting cadence. A full day of
// records holds 24h / 5m = 288 samples.
const (
	sampleInterval       = 5 * time.Minute
	expectedDailySamples = int(24 * time.Hour / sampleInterval)
)

// ComputeDailySummary aggregates one day's records into production,
// consumption and mode-duration totals. Each sample stands for one
// reporting interval; energy is power integrated over that interval.
func ComputeDailySummary(rows []watchpower.Row, day time.Time) domain.DailySummary {
	date := day.In(ReportingZone).Format("2006-01-02")
	intervalHours := sampleInterval.Hours()

	var (
		productionWh float64
		loadWh       float64
		batteryHours float64
		standbyHours float64
		samples      int
	)

	for _, row := range rows {
		f := row.Fields
		if len(f) < minStatsRecord {
			continue
		}
		if !strings.HasPrefix(f[fieldTimestamp], date) {
			continue
		}
		samples++

		productionWh += safeFloat(f[fieldPVPower]) * intervalHours
		loadWh += safeFloat(f[fieldACOutputPower]) * intervalHours

		if len(f) > fieldOperatingMode {
			switch domain.OperatingMode(f[fieldOperatingMode]) {
			case domain.ModeBattery:
				batteryHours += intervalHours
			case domain.ModeStandby:
				standbyHours += intervalHours
			}
		}
	}

	missing := expectedDailySamples - samples
	if missing < 0 {
		missing = 0
	}
	missingHours := float64(missing) * intervalHours

	// Days where the house consumed more than the array produced
	// contributed nothing to the grid, not a negative amount.
	contributionWh := productionWh - loadWh
	if contributionWh < 0 {
		contributionWh = 0
	}

	return domain.DailySummary{
		Date:                date,
		ProductionKWh:       round2(productionWh / 1000),
		LoadKWh:             round2(loadWh / 1000),
		GridContributionKWh: round2(contributionWh / 1000),
		BatteryModeHours:    round2(batteryHours),
		StandbyModeHours:    round2(standbyHours),
		MissingDataHours:    round2(missingHours),
		SystemOffHours:      round2(standbyHours + missingHours),
		SampleCount:         samples,
		ExpectedSampleCount: expectedDailySamples,
	}
}

// DailySummaryFor fetches the record set for the given day and
// aggregates it.
func (s *Sampler) DailySummaryFor(ctx context.Context, account domain.Account, day time.Time) (domain.DailySummary, error) {
	rows, err := s.DailyRows(ctx, account, day)
	if err != nil {
		return domain.DailySummary{}, err
	}
	return ComputeDailySummary(rows, day), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
