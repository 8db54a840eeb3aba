package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled
// PostgreSQL). Covered by the integration-tagged tests, which run it
// against a containerized Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// ListActiveAccounts returns every active account in creation order.
func (s *PostgresStore) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx, queryListActiveAccounts)
	if err != nil {
		return nil, fmt.Errorf("listing active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// GetAccount retrieves one account by id.
func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	rows, err := s.pool.Query(ctx, queryGetAccount, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("querying account %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying account %s: %w", id, err)
		}
		return nil, ErrAccountNotFound
	}
	return scanAccount(rows)
}

// CreateAccount inserts a new account, assigning an id when none is set.
func (s *PostgresStore) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	args := pgx.NamedArgs{
		"id":                 a.ID,
		"name":               a.Name,
		"provider_username":  a.Credentials.Username,
		"provider_password":  a.Credentials.Password,
		"serial_number":      a.Device.SerialNumber,
		"wifi_pn":            a.Device.WifiPN,
		"dev_code":           a.Device.DevCode,
		"dev_addr":           a.Device.DevAddr,
		"notification_email": a.NotificationEmail,
		"grid_feed":          string(a.GridFeedSetting()),
		"active":             a.Active,
	}

	if err := s.pool.QueryRow(ctx, queryCreateAccount, args).Scan(&a.CreatedAt); err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// SetAccountActive flips the active flag for an account.
func (s *PostgresStore) SetAccountActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, querySetAccountActive, pgx.NamedArgs{"id": id, "active": active})
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateNotificationEmail changes the account's alert recipient.
func (s *PostgresStore) UpdateNotificationEmail(ctx context.Context, id, email string) error {
	tag, err := s.pool.Exec(ctx, queryUpdateNotificationEmail, pgx.NamedArgs{"id": id, "email": email})
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateGridFeed records whether the account's inverter is expected to
// export to the grid.
func (s *PostgresStore) UpdateGridFeed(ctx context.Context, id string, status domain.GridFeedStatus) error {
	tag, err := s.pool.Exec(ctx, queryUpdateGridFeed, pgx.NamedArgs{"id": id, "grid_feed": string(status)})
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(rows pgx.Rows) (*domain.Account, error) {
	a := &domain.Account{}
	err := rows.Scan(
		&a.ID, &a.Name, &a.Credentials.Username, &a.Credentials.Password,
		&a.Device.SerialNumber, &a.Device.WifiPN, &a.Device.DevCode, &a.Device.DevAddr,
		&a.NotificationEmail, &a.GridFeed, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}
