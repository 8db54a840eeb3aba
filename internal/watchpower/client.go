// Package watchpower provides a WatchPower/Dess telemetry provider client
// abstracted behind interfaces for testability.
package watchpower

import (
	"context"
	"time"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// Token is an authenticated provider session. Opaque to callers;
// obtained from Login and passed back on every data call.
type Token struct {
	Token  string
	Secret string
	Expire int64
}

// Row is one positional telemetry record. Field meanings are fixed by
// position; see the telemetry package for the index mapping.
type Row struct {
	Fields []string `json:"field"`
}

// Client defines the interface for the telemetry provider.
type Client interface {
	// Login authenticates with the provider and returns a session token.
	Login(ctx context.Context, username, password string) (*Token, error)

	// FetchDailyRecords returns every record logged for the device on
	// the given day, oldest first.
	FetchDailyRecords(
		ctx context.Context,
		tok *Token,
		day time.Time,
		dev domain.DeviceID,
	) ([]Row, error)
}
