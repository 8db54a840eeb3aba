package watchpower

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hamzajavaid/solarmon/internal/metrics"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// session holds one account's provider login state. The mutex
// serializes a foreground request and the background cycle so they
// cannot race into a double login for the same account.
type session struct {
	mu       sync.Mutex
	username string
	password string
	token    *Token
}

func (s *session) loggedInWith(creds domain.Credentials) bool {
	return s.token != nil &&
		s.username == creds.Username &&
		s.password == creds.Password
}

// SessionManager maintains one provider session per account. Sessions
// are created lazily on first use and re-created on forced re-login.
// Different accounts' sessions are fully independent.
type SessionManager struct {
	client Client
	log    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// WithSessionLogger sets a custom logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(m *SessionManager) {
		m.log = l
	}
}

// NewSessionManager creates a SessionManager on top of a provider client.
func NewSessionManager(client Client, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		client:   client,
		log:      slog.Default(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) session(accountID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[accountID]
	if !ok {
		s = &session{}
		m.sessions[accountID] = s
	}
	return s
}

// EnsureLoggedIn authenticates the account's session if it has never
// logged in, if force is set, or if the stored credentials differ from
// the supplied ones. On failure the session is marked logged out and
// an AuthFailedError is returned.
func (m *SessionManager) EnsureLoggedIn(
	ctx context.Context,
	accountID string,
	creds domain.Credentials,
	force bool,
) (*Token, error) {
	s := m.session(accountID)
	s.mu.Lock()
	defer s.mu.Unlock()

	return m.ensureLoggedInLocked(ctx, s, accountID, creds, force)
}

func (m *SessionManager) ensureLoggedInLocked(
	ctx context.Context,
	s *session,
	accountID string,
	creds domain.Credentials,
	force bool,
) (*Token, error) {
	if !force && s.loggedInWith(creds) {
		return s.token, nil
	}

	m.log.Info("logging in to telemetry provider", "account", accountID)

	tok, err := m.client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		s.token = nil
		m.log.Error("provider login failed", "account", accountID, "error", err)
		return nil, err
	}

	s.username = creds.Username
	s.password = creds.Password
	s.token = tok
	return tok, nil
}

// Invoke ensures login, then runs op with a valid token. If op fails
// with an auth-expiry error, it forces exactly one re-login and retries
// once; any other error, or a second failure, propagates unchanged.
// Provider tokens expire silently, so this is cheaper than proactively
// re-logging in on every call.
func (m *SessionManager) Invoke(
	ctx context.Context,
	accountID string,
	creds domain.Credentials,
	op func(tok *Token) error,
) error {
	s := m.session(accountID)
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := m.ensureLoggedInLocked(ctx, s, accountID, creds, false)
	if err != nil {
		return err
	}

	err = op(tok)
	if err == nil || !IsAuthExpired(err) {
		return err
	}

	m.log.Warn("session expired, forcing re-login", "account", accountID, "error", err)
	metrics.ProviderAuthRetriesTotal.Inc()

	tok, err = m.ensureLoggedInLocked(ctx, s, accountID, creds, true)
	if err != nil {
		return err
	}

	return op(tok)
}

// Reset discards an account's session so the next call logs in fresh.
func (m *SessionManager) Reset(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accountID)
}
