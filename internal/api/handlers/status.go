package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hamzajavaid/solarmon/internal/monitor"
	"github.com/hamzajavaid/solarmon/internal/store"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	"github.com/hamzajavaid/solarmon/internal/watchpower"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// StatusSource exposes the engine's per-account detector snapshots.
type StatusSource interface {
	AccountStatus(accountID string) (monitor.AccountStatus, bool)
}

// ReadingFetcher fetches the latest decoded reading for an account.
type ReadingFetcher interface {
	LatestReading(ctx context.Context, account domain.Account) (*telemetry.Reading, error)
}

// StatusHandler serves live monitoring state and on-demand readings.
type StatusHandler struct {
	store   store.Store
	status  StatusSource
	sampler ReadingFetcher
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(s store.Store, status StatusSource, sampler ReadingFetcher) *StatusHandler {
	return &StatusHandler{store: s, status: status, sampler: sampler}
}

// --- Input/Output types ---

// AccountStatusInput is the input for the detector status endpoint.
type AccountStatusInput struct {
	ID string `path:"id" doc:"Account id"`
}

// AccountStatusOutput is the detector status response.
type AccountStatusOutput struct {
	Body monitor.AccountStatus
}

// AccountReadingInput is the input for the live reading endpoint.
type AccountReadingInput struct {
	ID string `path:"id" doc:"Account id"`
}

// AccountReadingOutput is the live reading response.
type AccountReadingOutput struct {
	Body telemetry.Reading
}

// --- Handlers ---

// GetAccountStatus returns the detector snapshot for an account.
func (h *StatusHandler) GetAccountStatus(
	ctx context.Context,
	input *AccountStatusInput,
) (*AccountStatusOutput, error) {
	if _, err := h.store.GetAccount(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to get account: " + err.Error())
	}

	st, ok := h.status.AccountStatus(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("account has not been polled yet")
	}

	return &AccountStatusOutput{Body: st}, nil
}

// GetAccountReading fetches the current reading through the session
// and cache layers. Within the cache TTL this costs no provider call.
func (h *StatusHandler) GetAccountReading(
	ctx context.Context,
	input *AccountReadingInput,
) (*AccountReadingOutput, error) {
	account, err := h.store.GetAccount(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to get account: " + err.Error())
	}

	reading, err := h.sampler.LatestReading(ctx, *account)
	switch {
	case err == nil:
		return &AccountReadingOutput{Body: *reading}, nil
	case errors.Is(err, watchpower.ErrNoData):
		return nil, huma.Error404NotFound("no telemetry for today yet")
	case watchpower.IsAuthFailed(err):
		return nil, huma.Error502BadGateway("provider rejected the account credentials")
	default:
		return nil, huma.Error502BadGateway("provider unavailable: " + err.Error())
	}
}

// RegisterStatusRoutes registers monitoring status endpoints with the
// Huma API.
func RegisterStatusRoutes(api huma.API, h *StatusHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{id}/status",
		Summary:     "Get detector status",
		Description: "Returns the current state of every condition detector for the account.",
		Tags:        []string{"monitoring"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetAccountStatus)

	huma.Register(api, huma.Operation{
		OperationID: "get-account-reading",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{id}/reading",
		Summary:     "Get the latest reading",
		Description: "Fetches the most recent telemetry reading from the provider.",
		Tags:        []string{"monitoring"},
		Errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	}, h.GetAccountReading)
}
