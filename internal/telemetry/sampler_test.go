package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamzajavaid/solarmon/internal/cache"
	"github.com/hamzajavaid/solarmon/internal/watchpower"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

type fakeProvider struct {
	rows     []watchpower.Row
	fetchErr error
	fetches  atomic.Int64
}

func (f *fakeProvider) Login(ctx context.Context, username, password string) (*watchpower.Token, error) {
	return &watchpower.Token{Token: "tok", Secret: "sec"}, nil
}

func (f *fakeProvider) FetchDailyRecords(ctx context.Context, tok *watchpower.Token, day time.Time, dev domain.DeviceID) ([]watchpower.Row, error) {
	f.fetches.Add(1)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rows, nil
}

func testAccount() domain.Account {
	return domain.Account{
		ID: "acct-1",
		Credentials: domain.Credentials{
			Username: "user",
			Password: "pass",
		},
		Device: domain.DeviceID{
			SerialNumber: "Q1234567890",
			WifiPN:       "W5678",
			DevCode:      2376,
			DevAddr:      1,
		},
	}
}

func newTestSampler(t *testing.T, provider *fakeProvider, opts ...SamplerOption) *Sampler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := watchpower.NewSessionManager(provider, watchpower.WithSessionLogger(log))
	return NewSampler(provider, sessions, cache.New(), log, opts...)
}

func TestSampler_LatestReading(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{rows: []watchpower.Row{
		testRow(map[int]string{fieldPVPower: "100"}),
		testRow(map[int]string{fieldPVPower: "2500"}),
	}}
	s := newTestSampler(t, provider)

	r, err := s.LatestReading(context.Background(), testAccount())
	require.NoError(t, err)

	// Always the last row of the day.
	assert.Equal(t, 2500.0, r.PVPower)
}

func TestSampler_CachesDailyRows(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{rows: []watchpower.Row{testRow(nil)}}
	s := newTestSampler(t, provider)

	_, err := s.LatestReading(context.Background(), testAccount())
	require.NoError(t, err)
	_, err = s.LatestReading(context.Background(), testAccount())
	require.NoError(t, err)

	assert.Equal(t, int64(1), provider.fetches.Load())
}

func TestSampler_CacheKeyedByDay(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{rows: []watchpower.Row{testRow(nil)}}
	s := newTestSampler(t, provider)

	ctx := context.Background()
	acct := testAccount()
	d1 := time.Date(2026, 8, 28, 0, 0, 0, 0, ReportingZone)
	d2 := time.Date(2026, 8, 29, 0, 0, 0, 0, ReportingZone)

	_, err := s.DailyRows(ctx, acct, d1)
	require.NoError(t, err)
	_, err = s.DailyRows(ctx, acct, d2)
	require.NoError(t, err)

	assert.Equal(t, int64(2), provider.fetches.Load())
}

func TestSampler_EmptyDayIsNoData(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	s := newTestSampler(t, provider)

	_, err := s.LatestReading(context.Background(), testAccount())
	assert.True(t, errors.Is(err, watchpower.ErrNoData))
}

func TestSampler_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fetchErr: watchpower.ErrProviderUnavailable}
	s := newTestSampler(t, provider)

	_, err := s.LatestReading(context.Background(), testAccount())
	assert.True(t, errors.Is(err, watchpower.ErrProviderUnavailable))
}

func TestSampler_DailySummaryFor(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{rows: []watchpower.Row{
		statsRow("2026-08-29 12:00:00", "2400", "1200", "Line Mode"),
	}}
	s := newTestSampler(t, provider)

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, ReportingZone)
	sum, err := s.DailySummaryFor(context.Background(), testAccount(), day)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-29", sum.Date)
	assert.Equal(t, 1, sum.SampleCount)
	assert.InDelta(t, 0.2, sum.ProductionKWh, 0.001)
}
