package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListAccounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title":"Not Found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetAccount(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 404)")
}

func TestClient_ListAccounts(t *testing.T) {
	t.Parallel()

	accounts := []domain.Account{
		{ID: "acct-1", Name: "Home Inverter", Active: true},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(accounts)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "acct-1", result[0].ID)
}

func TestClient_CreateAccount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/accounts", r.URL.Path)

		var req accountRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "inverter-user", req.Username)
		assert.Equal(t, "secret", req.Password)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Account{ID: "acct-1", Name: req.Name})
	}))
	defer srv.Close()

	c := New(srv.URL)
	created, err := c.CreateAccount(context.Background(), &domain.Account{
		Name: "Home Inverter",
		Credentials: domain.Credentials{
			Username: "inverter-user",
			Password: "secret",
		},
		Device: domain.DeviceID{
			SerialNumber: "SN1",
			WifiPN:       "W1",
			DevCode:      2376,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "acct-1", created.ID)
}

func TestClient_SetAccountActive(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/accounts/acct-1/active", r.URL.Path)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body["active"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.SetAccountActive(context.Background(), "acct-1", false))
}

func TestClient_SetGridFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/accounts/acct-1/grid-feed", r.URL.Path)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["enabled"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.SetGridFeed(context.Background(), "acct-1", true))
}

func TestClient_GetAccountStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts/acct-1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"load_shedding":{"active":true},"consecutive_failures":2}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	st, err := c.GetAccountStatus(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, st.LoadShedding.Active)
	assert.Equal(t, 2, st.ConsecutiveFailures)
}
