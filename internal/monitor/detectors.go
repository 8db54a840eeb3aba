package monitor

import (
	"time"

	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// Fixed escalation intervals. Grid-feed escalation is configurable;
// these match the deployed installations and are not.
const (
	loadSheddingEscalation  = 5 * time.Hour
	priorityResetEscalation = time.Hour
	apiFailureEscalation    = time.Hour
	systemOfflineEscalation = time.Hour

	// Grid-feed inference thresholds: the inverter reports feed power
	// even when export is disabled, so only a sustained reading counts.
	feedingMinWatts = 50.0

	daytimeStartHour = 7
	daytimeEndHour   = 17
)

// AccountState holds every detector's mutable state for one account.
// Created on first sighting, never shared across accounts.
type AccountState struct {
	GridFeed      Condition
	LoadShedding  Condition
	PriorityReset Condition
	APIFailure    Condition
	SystemOffline Condition

	// PreviousMode is the last non-Unknown operating mode seen.
	PreviousMode domain.OperatingMode

	// LastGridFeedStatus is the last definite (non-unknown) grid feed
	// status, carried across readings where feeding cannot be inferred.
	LastGridFeedStatus domain.GridFeedStatus

	// LastSummaryDate is the date (YYYY-MM-DD, reporting zone) of the
	// last daily summary sent.
	LastSummaryDate string

	// ConsecutiveFailures counts failed polls since the last success.
	ConsecutiveFailures int
}

func newAccountState() *AccountState {
	return &AccountState{
		PreviousMode:       domain.ModeUnknown,
		LastGridFeedStatus: domain.GridFeedEnabled,
	}
}

// GridFeedStatusOf infers the current grid-export behavior from the
// reading. The inference is advisory: it feeds the status snapshot,
// while the grid-feed detector is driven by the account's declared
// setting. Feed power is only trustworthy while the array is producing
// during daylight; outside that window a zero feed reading is
// inconclusive and the last known status stands.
func GridFeedStatusOf(r *telemetry.Reading, now time.Time, lowProductionWatts float64) domain.GridFeedStatus {
	feeding := r.SolarFeedPower >= feedingMinWatts
	if feeding {
		return domain.GridFeedEnabled
	}

	hour := now.In(telemetry.ReportingZone).Hour()
	daytime := hour >= daytimeStartHour && hour <= daytimeEndHour
	producing := r.PVPower > lowProductionWatts
	if daytime && producing {
		return domain.GridFeedDisabled
	}
	return domain.GridFeedUnknown
}

// loadSheddingActive reports whether the grid voltage indicates load
// shedding. Exactly 0V means the system is off or disconnected, not
// that the grid is down.
func loadSheddingActive(gridVoltage, threshold float64) bool {
	return gridVoltage > 0 && gridVoltage < threshold
}

// priorityResetActive reports whether the output-source priority has
// left its expected setting. Unknown readings are ignored.
func priorityResetActive(p domain.OutputPriority) bool {
	return p != domain.OutputPrioritySUB && p != domain.OutputPriorityUnknown
}

// modeChanged reports a mode transition. Unknown readings never fire
// and must not update PreviousMode.
func modeChanged(previous, current domain.OperatingMode) bool {
	return current != domain.ModeUnknown && current != previous
}

// inSummaryWindow reports whether local wall-clock time falls in the
// five-minute window after midnight in the reporting zone.
func inSummaryWindow(now time.Time) bool {
	local := now.In(telemetry.ReportingZone)
	return local.Hour() == 0 && local.Minute() < 5
}
