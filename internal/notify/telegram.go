package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier implements Notifier via the Telegram bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramNotifier creates a new TelegramNotifier.
func NewTelegramNotifier(botToken, chatID string, opts ...TelegramOption) *TelegramNotifier {
	t := &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: defaultSendTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TelegramOption configures a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramHTTPClient sets a custom HTTP client.
func WithTelegramHTTPClient(c *http.Client) TelegramOption {
	return func(t *TelegramNotifier) {
		t.client = c
	}
}

// WithTelegramBaseURL overrides the API base URL, for tests.
func WithTelegramBaseURL(u string) TelegramOption {
	return func(t *TelegramNotifier) {
		t.baseURL = strings.TrimRight(u, "/")
	}
}

// Name implements Notifier.
func (t *TelegramNotifier) Name() string { return "telegram" }

type telegramSendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send delivers the alert as a Markdown bot message.
func (t *TelegramNotifier) Send(ctx context.Context, alert *Alert) error {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n%s\n", alert.Title, alert.Message)
	for _, f := range alert.Fields {
		fmt.Fprintf(&b, "\n*%s:* %s", f.Name, f.Value)
	}
	if alert.AccountName != "" {
		fmt.Fprintf(&b, "\n\n_%s_", alert.AccountName)
	}

	payload := telegramSendMessage{
		ChatID:    t.chatID,
		Text:      b.String(),
		ParseMode: "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("telegram returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
