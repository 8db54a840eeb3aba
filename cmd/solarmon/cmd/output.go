package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hamzajavaid/solarmon/internal/monitor"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printAccountsTable(accounts []domain.Account) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tUSERNAME\tSERIAL\tACTIVE\n")
	for i := range accounts {
		tw.writef("%s\t%s\t%s\t%s\t%v\n",
			accounts[i].ID,
			accounts[i].Name,
			accounts[i].Credentials.Username,
			accounts[i].Device.SerialNumber,
			accounts[i].Active,
		)
	}
	return tw.finish()
}

func printAccountDetail(a *domain.Account) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", a.ID)
	tw.writef("Name:\t%s\n", a.Name)
	tw.writef("Username:\t%s\n", a.Credentials.Username)
	tw.writef("Serial:\t%s\n", a.Device.SerialNumber)
	tw.writef("Wifi PN:\t%s\n", a.Device.WifiPN)
	tw.writef("Dev code:\t%d\n", a.Device.DevCode)
	tw.writef("Dev addr:\t%d\n", a.Device.DevAddr)
	tw.writef("Alert email:\t%s\n", a.NotificationEmail)
	tw.writef("Active:\t%v\n", a.Active)
	if !a.CreatedAt.IsZero() {
		tw.writef("Created:\t%s\n", a.CreatedAt.Format(time.RFC3339))
	}
	return tw.finish()
}

func printAccountStatus(st *monitor.AccountStatus) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("DETECTOR\tACTIVE\tSINCE\n")
	printCondition(tw, "grid feed", st.GridFeed)
	printCondition(tw, "load shedding", st.LoadShedding)
	printCondition(tw, "priority reset", st.PriorityReset)
	printCondition(tw, "provider outage", st.APIFailure)
	printCondition(tw, "system offline", st.SystemOffline)
	tw.writef("\n")
	tw.writef("Current mode:\t%s\n", st.PreviousMode)
	tw.writef("Grid feed status:\t%s\n", st.LastGridFeedStatus)
	tw.writef("Consecutive failures:\t%d\n", st.ConsecutiveFailures)
	if st.LastSummaryDate != "" {
		tw.writef("Last daily summary:\t%s\n", st.LastSummaryDate)
	}
	return tw.finish()
}

func printCondition(tw *tabWriter, name string, c monitor.ConditionStatus) {
	since := "-"
	if c.Active && !c.ActiveSince.IsZero() {
		since = c.ActiveSince.Format(time.RFC3339)
	}
	tw.writef("%s\t%v\t%s\n", name, c.Active, since)
}

func printReading(r *telemetry.Reading) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Timestamp:\t%s\n", r.Timestamp.Format(time.RFC3339))
	tw.writef("Mode:\t%s\n", r.Mode)
	tw.writef("Grid:\t%.1f V / %.1f Hz\n", r.GridVoltage, r.GridFrequency)
	tw.writef("PV:\t%.1f V / %.0f W\n", r.PVVoltage, r.PVPower)
	tw.writef("AC output:\t%.1f V / %.1f Hz / %.0f W\n",
		r.ACOutputVoltage, r.ACOutputFrequency, r.ACOutputPower)
	tw.writef("Load:\t%.0f%%\n", r.OutputLoadPercent)
	tw.writef("Solar feed:\t%.0f W\n", r.SolarFeedPower)
	tw.writef("Output priority:\t%s\n", r.OutputPriority)
	tw.writef("Charger priority:\t%s\n", r.ChargerPriority)
	tw.writef("System status:\t%s\n", r.SystemStatus)
	return tw.finish()
}
