// Package telemetry decodes positional provider records into named
// readings and computes daily aggregate statistics.
package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/hamzajavaid/solarmon/internal/watchpower"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// ReportingZone is the fixed local zone of the monitored installations.
// Daily boundaries (summaries, "today's" record set) use this zone.
var ReportingZone = time.FixedZone("UTC+5", 5*60*60)

// Field positions within a provider record. The provider's row format
// is positional; these indices are fixed by the device firmware.
const (
	fieldTimestamp        = 1
	fieldUtilityVoltage   = 6
	fieldUtilityFrequency = 7
	fieldGenVoltage       = 8
	fieldGenFrequency     = 9
	fieldPVVoltage        = 10
	fieldPVPower          = 11
	fieldACOutputVoltage  = 17
	fieldACOutputFreq     = 19
	fieldACOutputPower    = 21
	fieldOutputLoadPct    = 22
	fieldACInputRange     = 37
	fieldOutputPriority   = 38
	fieldChargerPriority  = 39
	fieldLoadStatus       = 45
	fieldSolarFeedPower   = 46
	fieldOperatingMode    = 47
	fieldSystemStatus     = 49

	// minFullRecord is the minimum field count for a complete reading.
	minFullRecord = fieldSystemStatus + 1

	// minStatsRecord is the minimum field count usable for daily stats.
	minStatsRecord = fieldACOutputPower + 1
)

// Reading is a point-in-time snapshot of the inverter, decoded from
// the latest provider record. Derived, never persisted.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`

	// GridVoltage and GridFrequency use the generator input when the
	// utility input reads exactly 0: some installations route grid
	// power through the generator terminals.
	GridVoltage   float64 `json:"grid_voltage"`
	GridFrequency float64 `json:"grid_frequency"`

	UtilityVoltage     float64 `json:"utility_voltage"`
	UtilityFrequency   float64 `json:"utility_frequency"`
	GeneratorVoltage   float64 `json:"generator_voltage"`
	GeneratorFrequency float64 `json:"generator_frequency"`

	PVVoltage float64 `json:"pv_voltage"`
	PVPower   float64 `json:"pv_power"`

	ACOutputVoltage   float64 `json:"ac_output_voltage"`
	ACOutputFrequency float64 `json:"ac_output_frequency"`
	ACOutputPower     float64 `json:"ac_output_power"`
	OutputLoadPercent float64 `json:"output_load_percent"`

	ACInputRange    string                `json:"ac_input_range"`
	OutputPriority  domain.OutputPriority `json:"output_priority"`
	ChargerPriority string                `json:"charger_priority"`
	LoadStatus      string                `json:"load_status"`
	SolarFeedPower  float64               `json:"solar_feed_power"`
	Mode            domain.OperatingMode  `json:"mode"`
	SystemStatus    string                `json:"system_status"`
}

// FromRow decodes one provider record into a Reading. Short records
// return watchpower.ErrNoData.
func FromRow(row watchpower.Row) (*Reading, error) {
	f := row.Fields
	if len(f) < minFullRecord {
		return nil, watchpower.ErrNoData
	}

	r := &Reading{
		Timestamp:          parseTimestamp(f[fieldTimestamp]),
		UtilityVoltage:     safeFloat(f[fieldUtilityVoltage]),
		UtilityFrequency:   safeFloat(f[fieldUtilityFrequency]),
		GeneratorVoltage:   safeFloat(f[fieldGenVoltage]),
		GeneratorFrequency: safeFloat(f[fieldGenFrequency]),
		PVVoltage:          safeFloat(f[fieldPVVoltage]),
		PVPower:            safeFloat(f[fieldPVPower]),
		ACOutputVoltage:    safeFloat(f[fieldACOutputVoltage]),
		ACOutputFrequency:  safeFloat(f[fieldACOutputFreq]),
		ACOutputPower:      safeFloat(f[fieldACOutputPower]),
		OutputLoadPercent:  safeFloat(f[fieldOutputLoadPct]),
		ACInputRange:       safeString(f[fieldACInputRange]),
		OutputPriority:     domain.OutputPriority(safeString(f[fieldOutputPriority])),
		ChargerPriority:    safeString(f[fieldChargerPriority]),
		LoadStatus:         safeString(f[fieldLoadStatus]),
		SolarFeedPower:     safeFloat(f[fieldSolarFeedPower]),
		Mode:               domain.OperatingMode(safeString(f[fieldOperatingMode])),
		SystemStatus:       safeString(f[fieldSystemStatus]),
	}

	r.GridVoltage = r.UtilityVoltage
	if r.UtilityVoltage == 0 {
		r.GridVoltage = r.GeneratorVoltage
	}
	r.GridFrequency = r.UtilityFrequency
	if r.UtilityFrequency == 0 {
		r.GridFrequency = r.GeneratorFrequency
	}

	return r, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, ReportingZone)
	if err != nil {
		return time.Time{}
	}
	return t
}

// safeFloat parses a provider field, treating empty or malformed
// values as 0 (the provider emits empty strings for absent values).
func safeFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func safeString(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
