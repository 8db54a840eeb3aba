// Package domain defines the core business types for solarmon.
package domain

import (
	"errors"
	"time"
)

// OperatingMode represents the inverter operating mode as reported by
// the telemetry provider.
type OperatingMode string

// Operating mode constants.
const (
	ModeLine    OperatingMode = "Line Mode"
	ModeBattery OperatingMode = "Battery Mode"
	ModeStandby OperatingMode = "Standby Mode"
	ModeFault   OperatingMode = "Fault Mode"
	ModeUnknown OperatingMode = "Unknown"
)

// OutputPriority is the inverter's configured source-selection mode.
// Anything other than OutputPrioritySUB on a deployed system indicates
// the inverter lost its settings.
type OutputPriority string

// Output priority constants.
const (
	// OutputPrioritySUB is "Solar Utility Bat", the expected setting.
	OutputPrioritySUB     OutputPriority = "Solar Utility Bat"
	OutputPriorityUnknown OutputPriority = "Unknown"
)

// GridFeedStatus describes whether surplus production is being
// exported to the grid.
type GridFeedStatus string

// Grid feed status constants.
const (
	GridFeedEnabled  GridFeedStatus = "enabled"
	GridFeedDisabled GridFeedStatus = "disabled"
	GridFeedUnknown  GridFeedStatus = "unknown"
)

// AlertKind identifies which condition detector produced an alert.
type AlertKind string

// Alert kind constants.
const (
	AlertGridFeedDisabled AlertKind = "grid_feed_disabled"
	AlertLoadShedding     AlertKind = "load_shedding"
	AlertPriorityReset    AlertKind = "priority_reset"
	AlertModeChange       AlertKind = "mode_change"
	AlertAPIFailure       AlertKind = "api_failure"
	AlertAPIRecovery      AlertKind = "api_recovery"
	AlertSystemOffline    AlertKind = "system_offline"
	AlertDailySummary     AlertKind = "daily_summary"
)

// DeviceID identifies a single inverter on the telemetry provider.
type DeviceID struct {
	SerialNumber string `json:"serial_number" db:"serial_number" yaml:"serial_number"`
	WifiPN       string `json:"wifi_pn"       db:"wifi_pn"       yaml:"wifi_pn"`
	DevCode      int    `json:"dev_code"      db:"dev_code"      yaml:"dev_code"`
	DevAddr      int    `json:"dev_addr"      db:"dev_addr"      yaml:"dev_addr"`
}

// ErrIncompleteDevice is returned when an account is missing required
// device identifiers.
var ErrIncompleteDevice = errors.New("incomplete device identifiers")

// Validate checks that every identifier needed to address the device
// is present.
func (d DeviceID) Validate() error {
	if d.SerialNumber == "" || d.WifiPN == "" || d.DevCode == 0 {
		return ErrIncompleteDevice
	}
	return nil
}

// Credentials are the provider login credentials for an account.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"-"        yaml:"password"`
}

// Account is a monitored user account. Owned by the account store and
// treated as immutable during a polling cycle.
type Account struct {
	ID                string         `json:"id"                           yaml:"id"`
	Name              string         `json:"name"                         yaml:"name"`
	Credentials       Credentials    `json:"credentials"                  yaml:"credentials"`
	Device            DeviceID       `json:"device"                       yaml:"device"`
	NotificationEmail string         `json:"notification_email,omitempty" yaml:"notification_email"`
	GridFeed          GridFeedStatus `json:"grid_feed"                    yaml:"grid_feed"`
	Active            bool           `json:"active"                       yaml:"active"`
	CreatedAt         time.Time      `json:"created_at"                   yaml:"-"`
}

// GridFeedSetting returns the account's declared grid-feed flag.
// An account that never set one is treated as exporting normally.
func (a Account) GridFeedSetting() GridFeedStatus {
	if a.GridFeed == "" {
		return GridFeedEnabled
	}
	return a.GridFeed
}

// DailySummary holds per-day aggregate statistics computed from a full
// day of telemetry rows. Sent once per day by the daily-summary
// detector.
type DailySummary struct {
	Date                string  `json:"date"`
	ProductionKWh       float64 `json:"production_kwh"`
	LoadKWh             float64 `json:"load_kwh"`
	GridContributionKWh float64 `json:"grid_contribution_kwh"`
	BatteryModeHours    float64 `json:"battery_mode_hours"`
	StandbyModeHours    float64 `json:"standby_mode_hours"`
	MissingDataHours    float64 `json:"missing_data_hours"`
	SystemOffHours      float64 `json:"system_off_hours"`
	SampleCount         int     `json:"sample_count"`
	ExpectedSampleCount int     `json:"expected_sample_count"`
}
