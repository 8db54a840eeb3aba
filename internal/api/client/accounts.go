package client

import (
	"context"
	"fmt"

	"github.com/hamzajavaid/solarmon/internal/monitor"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// accountRequest contains only the fields the API accepts for create.
type accountRequest struct {
	Name              string `json:"name"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	SerialNumber      string `json:"serial_number"`
	WifiPN            string `json:"wifi_pn"`
	DevCode           int    `json:"dev_code"`
	DevAddr           int    `json:"dev_addr"`
	NotificationEmail string `json:"notification_email,omitempty"`
}

// ListAccounts returns all actively monitored accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.get(ctx, "/api/v1/accounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount returns a single account by ID.
func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	if err := c.get(ctx, "/api/v1/accounts/"+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount registers a new account for monitoring.
func (c *Client) CreateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	req := accountRequest{
		Name:              a.Name,
		Username:          a.Credentials.Username,
		Password:          a.Credentials.Password,
		SerialNumber:      a.Device.SerialNumber,
		WifiPN:            a.Device.WifiPN,
		DevCode:           a.Device.DevCode,
		DevAddr:           a.Device.DevAddr,
		NotificationEmail: a.NotificationEmail,
	}
	var created domain.Account
	if err := c.post(ctx, "/api/v1/accounts", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SetAccountActive enables or disables monitoring for an account.
func (c *Client) SetAccountActive(ctx context.Context, id string, active bool) error {
	body := map[string]bool{"active": active}
	return c.put(ctx, fmt.Sprintf("/api/v1/accounts/%s/active", id), body, nil)
}

// SetGridFeed declares whether the account's inverter is expected to
// export to the grid.
func (c *Client) SetGridFeed(ctx context.Context, id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put(ctx, fmt.Sprintf("/api/v1/accounts/%s/grid-feed", id), body, nil)
}

// UpdateNotificationEmail changes where an account's alerts go.
func (c *Client) UpdateNotificationEmail(ctx context.Context, id, email string) error {
	body := map[string]string{"email": email}
	return c.put(ctx, fmt.Sprintf("/api/v1/accounts/%s/notification-email", id), body, nil)
}

// GetAccountStatus returns the detector snapshot for an account.
func (c *Client) GetAccountStatus(ctx context.Context, id string) (*monitor.AccountStatus, error) {
	var st monitor.AccountStatus
	if err := c.get(ctx, fmt.Sprintf("/api/v1/accounts/%s/status", id), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetAccountReading fetches the latest telemetry reading for an account.
func (c *Client) GetAccountReading(ctx context.Context, id string) (*telemetry.Reading, error) {
	var r telemetry.Reading
	if err := c.get(ctx, fmt.Sprintf("/api/v1/accounts/%s/reading", id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
