package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded alerts. It is
// used when no delivery channel is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards alerts with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Name implements Notifier.
func (n *NoOpNotifier) Name() string { return "noop" }

// Send logs and discards the alert.
func (n *NoOpNotifier) Send(_ context.Context, alert *Alert) error {
	n.log.Debug("notification discarded (no channel configured)",
		"kind", alert.Kind,
		"account", alert.AccountID,
		"title", alert.Title,
	)
	return nil
}
