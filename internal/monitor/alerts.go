package monitor

import (
	"fmt"
	"time"

	"github.com/hamzajavaid/solarmon/internal/notify"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func gridFeedAlert(account domain.Account, r *telemetry.Reading, now, since time.Time) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertGridFeedDisabled,
		Severity:    notify.SeverityWarning,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       "Grid Feeding Disabled",
		Message:     "Grid export is switched off for this installation. Solar production beyond local consumption is being lost.",
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Solar Feed Power", Value: fmt.Sprintf("%.0f W", r.SolarFeedPower), Inline: true},
			{Name: "PV Power", Value: fmt.Sprintf("%.0f W", r.PVPower), Inline: true},
			{Name: "Disabled Since", Value: formatLocal(since), Inline: true},
		},
	}
}

func loadSheddingAlert(account domain.Account, r *telemetry.Reading, now, since time.Time) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertLoadShedding,
		Severity:    notify.SeverityCritical,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       "Load Shedding Detected",
		Message:     "Grid voltage has dropped below the normal operating range.",
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Grid Voltage", Value: fmt.Sprintf("%.1f V", r.GridVoltage), Inline: true},
			{Name: "Grid Frequency", Value: fmt.Sprintf("%.1f Hz", r.GridFrequency), Inline: true},
			{Name: "Operating Mode", Value: string(r.Mode), Inline: true},
			{Name: "Since", Value: formatLocal(since), Inline: true},
		},
	}
}

func priorityResetAlert(account domain.Account, r *telemetry.Reading, now time.Time) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertPriorityReset,
		Severity:    notify.SeverityWarning,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       "Output Priority Changed",
		Message: fmt.Sprintf(
			"The inverter's output source priority is %q instead of %q. The device settings may have been reset.",
			r.OutputPriority, domain.OutputPrioritySUB,
		),
		Timestamp: now,
		Fields: []notify.Field{
			{Name: "Output Priority", Value: string(r.OutputPriority), Inline: true},
			{Name: "Charger Priority", Value: r.ChargerPriority, Inline: true},
		},
	}
}

func modeChangeAlert(account domain.Account, previous domain.OperatingMode, r *telemetry.Reading, now time.Time) *notify.Alert {
	severity := notify.SeverityInfo
	if r.Mode == domain.ModeBattery || r.Mode == domain.ModeFault {
		severity = notify.SeverityWarning
	}
	return &notify.Alert{
		Kind:        domain.AlertModeChange,
		Severity:    severity,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       fmt.Sprintf("Operating Mode: %s", r.Mode),
		Message:     fmt.Sprintf("The inverter switched from %s to %s.", previous, r.Mode),
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Previous Mode", Value: string(previous), Inline: true},
			{Name: "Current Mode", Value: string(r.Mode), Inline: true},
			{Name: "Grid Voltage", Value: fmt.Sprintf("%.1f V", r.GridVoltage), Inline: true},
			{Name: "Output Load", Value: fmt.Sprintf("%.0f%%", r.OutputLoadPercent), Inline: true},
		},
	}
}

func systemOfflineAlert(account domain.Account, r *telemetry.Reading, now, since time.Time) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertSystemOffline,
		Severity:    notify.SeverityCritical,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       "System Offline",
		Message:     "The inverter has stopped reporting. The provider is still serving data, but the readings are no longer advancing.",
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Last Reading", Value: formatLocal(r.Timestamp), Inline: true},
			{Name: "Stale For", Value: formatDuration(now.Sub(r.Timestamp)), Inline: true},
			{Name: "Offline Since", Value: formatLocal(since), Inline: true},
		},
	}
}

func apiFailureAlert(account domain.Account, now time.Time, failures int, duration time.Duration) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertAPIFailure,
		Severity:    notify.SeverityCritical,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       "Monitoring Data Unavailable",
		Message:     "The telemetry provider has stopped returning data for this system. The inverter may be offline or the provider may be down.",
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Failed Polls", Value: fmt.Sprintf("%d", failures), Inline: true},
			{Name: "Down For", Value: formatDuration(duration), Inline: true},
		},
	}
}

func apiRecoveryAlert(account domain.Account, now time.Time, failures int, duration time.Duration) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertAPIRecovery,
		Severity:    notify.SeverityInfo,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       "Monitoring Data Restored",
		Message:     "The telemetry provider is returning data again.",
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Failed Polls", Value: fmt.Sprintf("%d", failures), Inline: true},
			{Name: "Outage Duration", Value: formatDuration(duration), Inline: true},
		},
	}
}

func dailySummaryAlert(account domain.Account, s domain.DailySummary, now time.Time) *notify.Alert {
	return &notify.Alert{
		Kind:        domain.AlertDailySummary,
		Severity:    notify.SeverityInfo,
		AccountID:   account.ID,
		AccountName: account.Name,
		Recipient:   account.NotificationEmail,
		Title:       fmt.Sprintf("Daily Summary for %s", s.Date),
		Message:     "Yesterday's production and consumption.",
		Timestamp:   now,
		Fields: []notify.Field{
			{Name: "Production", Value: fmt.Sprintf("%.2f kWh", s.ProductionKWh), Inline: true},
			{Name: "Consumption", Value: fmt.Sprintf("%.2f kWh", s.LoadKWh), Inline: true},
			{Name: "Grid Contribution", Value: fmt.Sprintf("%.2f kWh", s.GridContributionKWh), Inline: true},
			{Name: "Battery Mode", Value: formatHours(s.BatteryModeHours), Inline: true},
			{Name: "Standby", Value: formatHours(s.StandbyModeHours), Inline: true},
			{Name: "System Off", Value: formatHours(s.SystemOffHours), Inline: true},
			{Name: "Data Coverage", Value: fmt.Sprintf("%d/%d samples", s.SampleCount, s.ExpectedSampleCount), Inline: true},
		},
	}
}

func formatLocal(t time.Time) string {
	return t.In(telemetry.ReportingZone).Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}

func formatHours(h float64) string {
	hrs := int(h)
	mins := int((h - float64(hrs)) * 60)
	return fmt.Sprintf("%d hr %d min", hrs, mins)
}
