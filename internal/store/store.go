// Package store defines the account store abstraction. The engine and
// API depend on the Store interface, never on concrete implementations,
// so tests run without a database and small deployments can run from
// static configuration.
package store

import (
	"context"
	"errors"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// ErrAccountNotFound is returned when no account matches the given id.
var ErrAccountNotFound = errors.New("account not found")

// Store defines all account data access operations.
type Store interface {
	// ListActiveAccounts returns every account the monitoring cycle
	// should process.
	ListActiveAccounts(ctx context.Context) ([]domain.Account, error)

	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	CreateAccount(ctx context.Context, a *domain.Account) error
	SetAccountActive(ctx context.Context, id string, active bool) error
	UpdateNotificationEmail(ctx context.Context, id, email string) error
	UpdateGridFeed(ctx context.Context, id string, status domain.GridFeedStatus) error

	Ping(ctx context.Context) error
	Close()
}
