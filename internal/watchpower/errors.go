package watchpower

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when the provider answered but carried no
// usable rows for the requested day.
var ErrNoData = errors.New("no telemetry data available")

// ErrProviderUnavailable marks transport-level failures: network
// errors, 5xx responses, and malformed payloads. These are counted by
// the API-failure detector and never retried within a cycle.
var ErrProviderUnavailable = errors.New("telemetry provider unavailable")

// Provider error codes that indicate an expired or invalid session.
// Catalogued from observed provider responses; anything else with
// auth-looking text falls through to the substring heuristic below.
const (
	codeNotLoggedIn  = 5
	codeTokenExpired = 6
	codeSecretError  = 7
)

// APIError is a structured provider error carrying the provider's
// numeric code and description.
type APIError struct {
	Code int
	Desc string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Desc)
}

// AuthExpired reports whether this error means the session token is no
// longer valid and a re-login may succeed. Known codes are checked
// first; the substring heuristic is a fallback for provider text we
// have not catalogued.
func (e *APIError) AuthExpired() bool {
	switch e.Code {
	case codeNotLoggedIn, codeTokenExpired, codeSecretError:
		return true
	}
	desc := strings.ToLower(e.Desc)
	for _, marker := range []string{"token", "auth", "login"} {
		if strings.Contains(desc, marker) {
			return true
		}
	}
	return false
}

// AuthFailedError is returned when the provider rejects credentials at
// login. It is distinct from AuthExpired: a retry with the same
// credentials will not succeed.
type AuthFailedError struct {
	Username string
	Err      error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthFailedError) Unwrap() error { return e.Err }

// IsAuthExpired reports whether err represents an expired session that
// warrants exactly one forced re-login and retry.
func IsAuthExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.AuthExpired()
}

// IsAuthFailed reports whether err represents rejected credentials.
func IsAuthFailed(err error) bool {
	var authErr *AuthFailedError
	return errors.As(err, &authErr)
}
