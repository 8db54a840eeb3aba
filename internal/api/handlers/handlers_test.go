package handlers_test

import (
	"context"

	"github.com/hamzajavaid/solarmon/internal/monitor"
	"github.com/hamzajavaid/solarmon/internal/store"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// fakeStore is a hand-rolled store.Store for handler tests.
type fakeStore struct {
	accounts  map[string]*domain.Account
	pingErr   error
	createErr error

	setActiveCalls [][2]string
	emailCalls     [][2]string
	gridFeedCalls  [][2]string
}

func newFakeStore(accounts ...domain.Account) *fakeStore {
	f := &fakeStore{accounts: make(map[string]*domain.Account)}
	for i := range accounts {
		f.accounts[accounts[i].ID] = &accounts[i]
	}
	return f
}

func (f *fakeStore) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range f.accounts {
		if a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeStore) CreateAccount(ctx context.Context, a *domain.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	if a.ID == "" {
		a.ID = "generated-id"
	}
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeStore) SetAccountActive(ctx context.Context, id string, active bool) error {
	if _, ok := f.accounts[id]; !ok {
		return store.ErrAccountNotFound
	}
	f.setActiveCalls = append(f.setActiveCalls, [2]string{id, boolStr(active)})
	f.accounts[id].Active = active
	return nil
}

func (f *fakeStore) UpdateNotificationEmail(ctx context.Context, id, email string) error {
	if _, ok := f.accounts[id]; !ok {
		return store.ErrAccountNotFound
	}
	f.emailCalls = append(f.emailCalls, [2]string{id, email})
	f.accounts[id].NotificationEmail = email
	return nil
}

func (f *fakeStore) UpdateGridFeed(ctx context.Context, id string, status domain.GridFeedStatus) error {
	if _, ok := f.accounts[id]; !ok {
		return store.ErrAccountNotFound
	}
	f.gridFeedCalls = append(f.gridFeedCalls, [2]string{id, string(status)})
	f.accounts[id].GridFeed = status
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) Close() {}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type fakeStatusSource struct {
	statuses map[string]monitor.AccountStatus
}

func (f *fakeStatusSource) AccountStatus(accountID string) (monitor.AccountStatus, bool) {
	st, ok := f.statuses[accountID]
	return st, ok
}

type fakeReadingFetcher struct {
	reading *telemetry.Reading
	err     error
}

func (f *fakeReadingFetcher) LatestReading(ctx context.Context, account domain.Account) (*telemetry.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reading, nil
}

func handlerAccount() domain.Account {
	return domain.Account{
		ID:   "acct-1",
		Name: "Home System",
		Credentials: domain.Credentials{
			Username: "user",
			Password: "secret",
		},
		Device: domain.DeviceID{
			SerialNumber: "Q1234567890",
			WifiPN:       "W5678",
			DevCode:      2376,
			DevAddr:      1,
		},
		Active: true,
	}
}
