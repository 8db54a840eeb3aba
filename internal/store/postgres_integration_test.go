//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hamzajavaid/solarmon/internal/store"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("solarmon_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func testAccount(username string) *domain.Account {
	return &domain.Account{
		Name: "Home System",
		Credentials: domain.Credentials{
			Username: username,
			Password: "secret",
		},
		Device: domain.DeviceID{
			SerialNumber: "Q1234567890",
			WifiPN:       "W5678",
			DevCode:      2376,
			DevAddr:      1,
		},
		NotificationEmail: "owner@example.com",
		Active:            true,
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_CreateAndGetAccount(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a := testAccount("create-get")
	require.NoError(t, s.CreateAccount(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Credentials, got.Credentials)
	assert.Equal(t, a.Device, got.Device)
	assert.Equal(t, a.NotificationEmail, got.NotificationEmail)
	assert.True(t, got.Active)
}

func TestPostgresStore_GetAccount_NotFound(t *testing.T) {
	s := setupPostgres(t)

	_, err := s.GetAccount(context.Background(), "11111111-1111-1111-1111-111111111111")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestPostgresStore_ListActiveAccounts(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	active := testAccount("active-user")
	require.NoError(t, s.CreateAccount(ctx, active))

	inactive := testAccount("inactive-user")
	inactive.Active = false
	require.NoError(t, s.CreateAccount(ctx, inactive))

	accounts, err := s.ListActiveAccounts(ctx)
	require.NoError(t, err)

	require.Len(t, accounts, 1)
	assert.Equal(t, active.ID, accounts[0].ID)
}

func TestPostgresStore_SetAccountActive(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a := testAccount("toggle-user")
	require.NoError(t, s.CreateAccount(ctx, a))

	require.NoError(t, s.SetAccountActive(ctx, a.ID, false))

	accounts, err := s.ListActiveAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	err = s.SetAccountActive(ctx, "22222222-2222-2222-2222-222222222222", true)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestPostgresStore_UpdateNotificationEmail(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a := testAccount("email-user")
	require.NoError(t, s.CreateAccount(ctx, a))

	require.NoError(t, s.UpdateNotificationEmail(ctx, a.ID, "new@example.com"))

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.NotificationEmail)
}

func TestPostgresStore_UpdateGridFeed(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a := testAccount("grid-feed-user")
	require.NoError(t, s.CreateAccount(ctx, a))

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GridFeedEnabled, got.GridFeedSetting())

	require.NoError(t, s.UpdateGridFeed(ctx, a.ID, domain.GridFeedDisabled))

	got, err = s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GridFeedDisabled, got.GridFeedSetting())

	err = s.UpdateGridFeed(ctx, "33333333-3333-3333-3333-333333333333", domain.GridFeedEnabled)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestPostgresStore_MigrateIdempotent(t *testing.T) {
	s := setupPostgres(t)

	// Running migrations twice must be a no-op.
	require.NoError(t, s.Migrate(context.Background()))
}
