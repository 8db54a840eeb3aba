// Package notify defines the notification interface and channel
// implementations for alert delivery.
package notify

import (
	"context"
	"time"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// Severity classifies an alert for rendering (color, prefix).
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// defaultSendTimeout bounds delivery to one channel. Alerts are sent
// from the monitoring cycle; a hung provider must not stall it.
const defaultSendTimeout = 10 * time.Second

// Field is one name/value pair rendered inside an alert.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Alert contains the data needed to deliver one alert on any channel.
type Alert struct {
	Kind        domain.AlertKind
	Severity    Severity
	AccountID   string
	AccountName string

	// Recipient is the account's preferred email address. Channels that
	// have no notion of a recipient ignore it; the email channel sends
	// to it instead of the configured default when set.
	Recipient string

	Title     string
	Message   string
	Timestamp time.Time
	Fields    []Field
}

// Notifier defines the interface for sending alerts on one channel.
type Notifier interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	Send(ctx context.Context, alert *Alert) error
}
