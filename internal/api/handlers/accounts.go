package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hamzajavaid/solarmon/internal/store"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// AccountsHandler handles account CRUD operations.
type AccountsHandler struct {
	store store.Store
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(s store.Store) *AccountsHandler {
	return &AccountsHandler{store: s}
}

// --- Input/Output types ---

// ListAccountsOutput is the response for listing active accounts.
type ListAccountsOutput struct {
	Body []domain.Account
}

// GetAccountInput is the input for getting a single account.
type GetAccountInput struct {
	ID string `path:"id" doc:"Account id"`
}

// GetAccountOutput is the response for getting a single account.
type GetAccountOutput struct {
	Body domain.Account
}

// CreateAccountInput is the input for creating an account.
type CreateAccountInput struct {
	Body struct {
		Name              string `json:"name" minLength:"1" doc:"Display name"`
		Username          string `json:"username" minLength:"1" doc:"Provider username"`
		Password          string `json:"password" minLength:"1" doc:"Provider password"`
		SerialNumber      string `json:"serial_number" minLength:"1" doc:"Inverter serial number"`
		WifiPN            string `json:"wifi_pn" minLength:"1" doc:"Datalogger wifi PN"`
		DevCode           int    `json:"dev_code" minimum:"1" doc:"Provider device code"`
		DevAddr           int    `json:"dev_addr" doc:"Device bus address"`
		NotificationEmail string `json:"notification_email,omitempty" doc:"Alert recipient"`
	}
}

// CreateAccountOutput is the response for creating an account.
type CreateAccountOutput struct {
	Body domain.Account
}

// SetAccountActiveInput is the input for toggling monitoring.
type SetAccountActiveInput struct {
	ID   string `path:"id" doc:"Account id"`
	Body struct {
		Active bool `json:"active"`
	}
}

// SetGridFeedInput is the input for declaring grid-feed expectations.
type SetGridFeedInput struct {
	ID   string `path:"id" doc:"Account id"`
	Body struct {
		Enabled bool `json:"enabled" doc:"Whether the inverter is expected to export to the grid"`
	}
}

// UpdateNotificationEmailInput is the input for changing the recipient.
type UpdateNotificationEmailInput struct {
	ID   string `path:"id" doc:"Account id"`
	Body struct {
		Email string `json:"email" format:"email"`
	}
}

// --- Handlers ---

// ListAccounts returns every actively monitored account.
func (h *AccountsHandler) ListAccounts(
	ctx context.Context,
	_ *struct{},
) (*ListAccountsOutput, error) {
	accounts, err := h.store.ListActiveAccounts(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list accounts: " + err.Error())
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}

	return &ListAccountsOutput{Body: accounts}, nil
}

// GetAccount returns a single account by id.
func (h *AccountsHandler) GetAccount(
	ctx context.Context,
	input *GetAccountInput,
) (*GetAccountOutput, error) {
	a, err := h.store.GetAccount(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to get account: " + err.Error())
	}

	return &GetAccountOutput{Body: *a}, nil
}

// CreateAccount registers a new account for monitoring.
func (h *AccountsHandler) CreateAccount(
	ctx context.Context,
	input *CreateAccountInput,
) (*CreateAccountOutput, error) {
	a := &domain.Account{
		Name: input.Body.Name,
		Credentials: domain.Credentials{
			Username: input.Body.Username,
			Password: input.Body.Password,
		},
		Device: domain.DeviceID{
			SerialNumber: input.Body.SerialNumber,
			WifiPN:       input.Body.WifiPN,
			DevCode:      input.Body.DevCode,
			DevAddr:      input.Body.DevAddr,
		},
		NotificationEmail: input.Body.NotificationEmail,
		Active:            true,
	}

	if err := a.Device.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	if err := h.store.CreateAccount(ctx, a); err != nil {
		return nil, huma.Error500InternalServerError("failed to create account: " + err.Error())
	}

	return &CreateAccountOutput{Body: *a}, nil
}

// SetAccountActive enables or disables monitoring for an account.
func (h *AccountsHandler) SetAccountActive(
	ctx context.Context,
	input *SetAccountActiveInput,
) (*struct{}, error) {
	if err := h.store.SetAccountActive(ctx, input.ID, input.Body.Active); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to update account: " + err.Error())
	}
	return nil, nil
}

// SetGridFeed declares whether the account's inverter should be
// exporting to the grid. Only accounts marked as exporting are watched
// by the grid-feed detector.
func (h *AccountsHandler) SetGridFeed(
	ctx context.Context,
	input *SetGridFeedInput,
) (*struct{}, error) {
	status := domain.GridFeedDisabled
	if input.Body.Enabled {
		status = domain.GridFeedEnabled
	}
	if err := h.store.UpdateGridFeed(ctx, input.ID, status); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to update account: " + err.Error())
	}
	return nil, nil
}

// UpdateNotificationEmail changes where an account's alerts go.
func (h *AccountsHandler) UpdateNotificationEmail(
	ctx context.Context,
	input *UpdateNotificationEmailInput,
) (*struct{}, error) {
	if err := h.store.UpdateNotificationEmail(ctx, input.ID, input.Body.Email); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to update account: " + err.Error())
	}
	return nil, nil
}

// RegisterAccountRoutes registers account endpoints with the Huma API.
func RegisterAccountRoutes(api huma.API, h *AccountsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-accounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts",
		Summary:     "List monitored accounts",
		Description: "Returns every account with monitoring enabled.",
		Tags:        []string{"accounts"},
	}, h.ListAccounts)

	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{id}",
		Summary:     "Get an account",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetAccount)

	huma.Register(api, huma.Operation{
		OperationID:   "create-account",
		Method:        http.MethodPost,
		Path:          "/api/v1/accounts",
		Summary:       "Create an account",
		Description:   "Registers an account and starts monitoring it on the next cycle.",
		Tags:          []string{"accounts"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateAccount)

	huma.Register(api, huma.Operation{
		OperationID: "set-account-active",
		Method:      http.MethodPut,
		Path:        "/api/v1/accounts/{id}/active",
		Summary:     "Enable or disable monitoring",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusNotFound},
	}, h.SetAccountActive)

	huma.Register(api, huma.Operation{
		OperationID: "set-grid-feed",
		Method:      http.MethodPut,
		Path:        "/api/v1/accounts/{id}/grid-feed",
		Summary:     "Declare grid-feed expectations",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusNotFound},
	}, h.SetGridFeed)

	huma.Register(api, huma.Operation{
		OperationID: "update-notification-email",
		Method:      http.MethodPut,
		Path:        "/api/v1/accounts/{id}/notification-email",
		Summary:     "Change the alert recipient",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusNotFound},
	}, h.UpdateNotificationEmail)
}
