package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hamzajavaid/solarmon/internal/metrics"
)

// Dispatcher fans one alert out to every configured channel. A failing
// channel never blocks the others; failures are logged, counted and
// returned joined so the caller can record them without retry logic.
type Dispatcher struct {
	notifiers []Notifier
	log       *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(log *slog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		log:       log,
	}
}

// Channels returns the names of the configured channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch sends the alert on every channel. Every channel is always
// attempted; the returned error joins the individual failures.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *Alert) error {
	metrics.AlertsFiredTotal.WithLabelValues(string(alert.Kind)).Inc()

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues(n.Name()).Inc()
			d.log.Error("notification delivery failed",
				"channel", n.Name(),
				"kind", alert.Kind,
				"account", alert.AccountID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		d.log.Info("alert delivered",
			"channel", n.Name(),
			"kind", alert.Kind,
			"account", alert.AccountID,
		)
	}
	return errors.Join(errs...)
}
