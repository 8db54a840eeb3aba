package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamzajavaid/solarmon/internal/cache"
	"github.com/hamzajavaid/solarmon/internal/metrics"
	"github.com/hamzajavaid/solarmon/internal/watchpower"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// Sampler fetches provider record sets per account, keeping a short
// TTL cache in front of the provider so a monitoring cycle and an API
// request arriving together cost a single upstream call.
type Sampler struct {
	client   watchpower.Client
	sessions *watchpower.SessionManager
	cache    *cache.Cache
	log      *slog.Logger
	nowFunc  func() time.Time
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithSamplerNowFunc overrides the clock, for tests.
func WithSamplerNowFunc(f func() time.Time) SamplerOption {
	return func(s *Sampler) { s.nowFunc = f }
}

// NewSampler creates a Sampler over the given provider client and
// session manager.
func NewSampler(client watchpower.Client, sessions *watchpower.SessionManager, c *cache.Cache, log *slog.Logger, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		client:   client,
		sessions: sessions,
		cache:    c,
		log:      log,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyRows returns every record the provider holds for the account's
// device on the given day. Results are cached for the cache TTL.
func (s *Sampler) DailyRows(ctx context.Context, account domain.Account, day time.Time) ([]watchpower.Row, error) {
	key := fmt.Sprintf("daily_rows_%s_%s", account.ID, day.Format("2006-01-02"))
	if v, ok := s.cache.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		return v.([]watchpower.Row), nil
	}

	var rows []watchpower.Row
	err := s.sessions.Invoke(ctx, account.ID, account.Credentials, func(tok *watchpower.Token) error {
		var err error
		rows, err = s.client.FetchDailyRecords(ctx, tok, day, account.Device)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch daily records for %s: %w", account.ID, err)
	}

	s.cache.Set(key, rows)
	return rows, nil
}

// LatestReading returns the most recent decoded reading for the
// account, fetching today's record set and taking its last row.
// Returns an error wrapping watchpower.ErrNoData when the provider has
// no usable record yet.
func (s *Sampler) LatestReading(ctx context.Context, account domain.Account) (*Reading, error) {
	today := s.nowFunc().In(ReportingZone)
	rows, err := s.DailyRows(ctx, account, today)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no records for %s on %s: %w", account.ID, today.Format("2006-01-02"), watchpower.ErrNoData)
	}

	r, err := FromRow(rows[len(rows)-1])
	if err != nil {
		return nil, fmt.Errorf("decode latest record for %s: %w", account.ID, err)
	}
	return r, nil
}
