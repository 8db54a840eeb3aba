package watchpower

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient is a scriptable provider client for session tests.
type fakeClient struct {
	logins   atomic.Int64
	loginErr error
}

func (f *fakeClient) Login(_ context.Context, username, _ string) (*Token, error) {
	f.logins.Add(1)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &Token{Token: "tok-" + username, Secret: "sec"}, nil
}

func (f *fakeClient) FetchDailyRecords(
	_ context.Context,
	_ *Token,
	_ time.Time,
	_ domain.DeviceID,
) ([]Row, error) {
	return nil, nil
}

func testCreds() domain.Credentials {
	return domain.Credentials{Username: "user@example.com", Password: "pw"}
}

func TestEnsureLoggedIn_LoginsOnce(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	tok, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)
	require.NotNil(t, tok)

	_, err = m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)

	assert.Equal(t, int64(1), fc.logins.Load())
}

func TestEnsureLoggedIn_ForceRelogs(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)

	_, err = m.EnsureLoggedIn(context.Background(), "a1", testCreds(), true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), fc.logins.Load())
}

func TestEnsureLoggedIn_CredentialChangeRelogs(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)

	changed := domain.Credentials{Username: "user@example.com", Password: "new-pw"}
	_, err = m.EnsureLoggedIn(context.Background(), "a1", changed, false)
	require.NoError(t, err)

	assert.Equal(t, int64(2), fc.logins.Load())
}

func TestEnsureLoggedIn_FailureMarksLoggedOut(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{loginErr: &AuthFailedError{
		Username: "user@example.com",
		Err:      &APIError{Code: 3, Desc: "password error"},
	}}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.Error(t, err)
	assert.True(t, IsAuthFailed(err))

	// The failed session must not be treated as logged in: the next
	// attempt logs in again.
	fc.loginErr = nil
	_, err = m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fc.logins.Load())
}

func TestEnsureLoggedIn_ConcurrentCallersSerialize(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), fc.logins.Load())
}

func TestEnsureLoggedIn_AccountsIndependent(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)
	_, err = m.EnsureLoggedIn(context.Background(), "a2", testCreds(), false)
	require.NoError(t, err)

	assert.Equal(t, int64(2), fc.logins.Load())
}

func TestInvoke_RetriesOnceOnAuthExpiry(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	calls := 0
	err := m.Invoke(context.Background(), "a1", testCreds(), func(tok *Token) error {
		calls++
		if calls == 1 {
			return &APIError{Code: codeTokenExpired, Desc: "token expired"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), fc.logins.Load()) // initial + forced
}

func TestInvoke_SecondAuthFailurePropagates(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	calls := 0
	err := m.Invoke(context.Background(), "a1", testCreds(), func(*Token) error {
		calls++
		return &APIError{Code: codeTokenExpired, Desc: "token expired"}
	})

	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
	assert.Equal(t, 2, calls) // exactly one retry, never a third attempt
}

func TestInvoke_NonAuthErrorNotRetried(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	wantErr := errors.New("boom")
	calls := 0
	err := m.Invoke(context.Background(), "a1", testCreds(), func(*Token) error {
		calls++
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), fc.logins.Load())
}

func TestInvoke_ReloginFailurePropagates(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	// Warm the session, then make the forced re-login fail.
	_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)
	fc.loginErr = &AuthFailedError{Username: "user@example.com", Err: &APIError{Code: 3, Desc: "password error"}}

	err = m.Invoke(context.Background(), "a1", testCreds(), func(*Token) error {
		return &APIError{Code: codeTokenExpired, Desc: "token expired"}
	})

	require.Error(t, err)
	assert.True(t, IsAuthFailed(err))
}

func TestReset_DiscardsSession(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	m := NewSessionManager(fc, WithSessionLogger(quietLogger()))

	_, err := m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)

	m.Reset("a1")

	_, err = m.EnsureLoggedIn(context.Background(), "a1", testCreds(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fc.logins.Load())
}
