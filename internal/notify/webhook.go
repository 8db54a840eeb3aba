package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier implements Notifier by POSTing alerts as JSON to an
// arbitrary endpoint, for integrations without a dedicated channel.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: defaultSendTimeout},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithWebhookHeaders sets extra request headers (auth tokens and the like).
func WithWebhookHeaders(headers map[string]string) WebhookOption {
	return func(w *WebhookNotifier) {
		w.headers = headers
	}
}

// WithWebhookHTTPClient sets a custom HTTP client.
func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		w.client = c
	}
}

// Name implements Notifier.
func (w *WebhookNotifier) Name() string { return "webhook" }

type webhookPayload struct {
	Kind        string            `json:"kind"`
	Severity    string            `json:"severity"`
	AccountID   string            `json:"account_id"`
	AccountName string            `json:"account_name,omitempty"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Timestamp   time.Time         `json:"timestamp"`
	Details     map[string]string `json:"details,omitempty"`
}

// Send POSTs the alert as JSON.
func (w *WebhookNotifier) Send(ctx context.Context, alert *Alert) error {
	payload := webhookPayload{
		Kind:        string(alert.Kind),
		Severity:    string(alert.Severity),
		AccountID:   alert.AccountID,
		AccountName: alert.AccountName,
		Title:       alert.Title,
		Message:     alert.Message,
		Timestamp:   alert.Timestamp,
	}
	if len(alert.Fields) > 0 {
		payload.Details = make(map[string]string, len(alert.Fields))
		for _, f := range alert.Fields {
			payload.Details[f.Name] = f.Value
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("webhook returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
