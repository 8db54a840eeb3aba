package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// StaticStore implements Store over accounts supplied in the config
// file, for single-household deployments that have no database.
// Mutations are in-memory only and lost on restart.
type StaticStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	order    []string
}

// NewStaticStore creates a StaticStore from configured accounts,
// assigning ids to accounts that lack one.
func NewStaticStore(accounts []domain.Account) (*StaticStore, error) {
	s := &StaticStore{
		accounts: make(map[string]*domain.Account, len(accounts)),
	}
	for i := range accounts {
		a := accounts[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		if _, exists := s.accounts[a.ID]; exists {
			return nil, fmt.Errorf("duplicate account id %q", a.ID)
		}
		s.accounts[a.ID] = &a
		s.order = append(s.order, a.ID)
	}
	return s, nil
}

// ListActiveAccounts returns configured accounts with the active flag
// set, in configuration order.
func (s *StaticStore) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Account
	for _, id := range s.order {
		if a := s.accounts[id]; a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

// GetAccount retrieves one account by id.
func (s *StaticStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

// CreateAccount adds an account for the remainder of the process
// lifetime.
func (s *StaticStore) CreateAccount(ctx context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := s.accounts[a.ID]; exists {
		return fmt.Errorf("account %q already exists", a.ID)
	}
	a.CreatedAt = time.Now()

	cp := *a
	s.accounts[a.ID] = &cp
	s.order = append(s.order, a.ID)
	return nil
}

// SetAccountActive flips the active flag for an account.
func (s *StaticStore) SetAccountActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.Active = active
	return nil
}

// UpdateNotificationEmail changes the account's alert recipient.
func (s *StaticStore) UpdateNotificationEmail(ctx context.Context, id, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.NotificationEmail = email
	return nil
}

// UpdateGridFeed records whether the account's inverter is expected to
// export to the grid.
func (s *StaticStore) UpdateGridFeed(ctx context.Context, id string, status domain.GridFeedStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.GridFeed = status
	return nil
}

// Ping always succeeds; there is no backing service.
func (s *StaticStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *StaticStore) Close() {}
