package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hamzajavaid/solarmon/internal/config"
	"github.com/hamzajavaid/solarmon/internal/metrics"
	"github.com/hamzajavaid/solarmon/internal/notify"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// AccountLister provides the set of accounts a cycle should process.
type AccountLister interface {
	ListActiveAccounts(ctx context.Context) ([]domain.Account, error)
}

// ReadingSource produces decoded telemetry for an account.
type ReadingSource interface {
	LatestReading(ctx context.Context, account domain.Account) (*telemetry.Reading, error)
	DailySummaryFor(ctx context.Context, account domain.Account, day time.Time) (domain.DailySummary, error)
}

// AlertSink delivers alerts to the configured channels.
type AlertSink interface {
	Dispatch(ctx context.Context, alert *notify.Alert) error
}

// Engine runs one monitoring cycle over all active accounts: fetch the
// latest reading, advance every detector, dispatch whatever fired.
// Accounts are processed sequentially; the scarce resource is the
// provider's rate tolerance, not local CPU.
type Engine struct {
	accounts   AccountLister
	source     ReadingSource
	dispatcher AlertSink
	cfg        config.MonitorConfig
	log        *slog.Logger
	nowFunc    func() time.Time

	mu     sync.Mutex
	states map[string]*AccountState
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineNowFunc overrides the clock, for tests.
func WithEngineNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) { e.nowFunc = f }
}

// NewEngine creates a monitoring engine.
func NewEngine(
	accounts AccountLister,
	source ReadingSource,
	dispatcher AlertSink,
	cfg config.MonitorConfig,
	log *slog.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		accounts:   accounts,
		source:     source,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log,
		nowFunc:    time.Now,
		states:     make(map[string]*AccountState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCycle processes every active account once. A failure on one
// account is logged and never aborts the cycle for the rest.
func (e *Engine) RunCycle(ctx context.Context) error {
	start := e.nowFunc()
	metrics.CyclesTotal.Inc()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	accounts, err := e.accounts.ListActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing active accounts: %w", err)
	}

	e.log.Info("monitoring cycle started", "accounts", len(accounts))

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			e.log.Info("cycle interrupted", "error", err)
			return err
		}
		if err := e.processAccount(ctx, account); err != nil {
			metrics.AccountErrorsTotal.Inc()
			e.log.Error("account processing failed",
				"account", account.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (e *Engine) processAccount(ctx context.Context, account domain.Account) error {
	if err := account.Device.Validate(); err != nil {
		metrics.AccountsSkippedTotal.Inc()
		e.log.Error("skipping account",
			"account", account.ID,
			"error", err,
		)
		return nil
	}

	now := e.nowFunc()
	st := e.state(account.ID)

	reading, err := e.source.LatestReading(ctx, account)
	if err != nil {
		e.handlePollFailure(ctx, account, st, now, err)
		return nil
	}

	e.handlePollSuccess(ctx, account, st, now)
	e.runDetectors(ctx, account, st, reading, now)
	e.maybeSendDailySummary(ctx, account, st, now)
	return nil
}

// handlePollFailure advances only the API-failure detector. The other
// detectors are suspended until the provider recovers: evaluating them
// against stale fields would fire on data that no longer reflects the
// installation.
func (e *Engine) handlePollFailure(ctx context.Context, account domain.Account, st *AccountState, now time.Time, pollErr error) {
	e.mu.Lock()
	st.ConsecutiveFailures++
	evt := st.APIFailure.Update(now, true, apiFailureEscalation)
	failures := st.ConsecutiveFailures
	e.mu.Unlock()

	e.log.Warn("poll failed",
		"account", account.ID,
		"consecutive_failures", failures,
		"error", pollErr,
	)

	if evt == EventActivated || evt == EventRepeat {
		e.dispatch(ctx, apiFailureAlert(account, now, failures, e.failureDuration(failures)))
	}
}

func (e *Engine) handlePollSuccess(ctx context.Context, account domain.Account, st *AccountState, now time.Time) {
	e.mu.Lock()
	evt := st.APIFailure.Update(now, false, apiFailureEscalation)
	failures := st.ConsecutiveFailures
	st.ConsecutiveFailures = 0
	e.mu.Unlock()

	if evt == EventCleared {
		e.log.Info("provider recovered",
			"account", account.ID,
			"failed_polls", failures,
		)
		e.dispatch(ctx, apiRecoveryAlert(account, now, failures, e.failureDuration(failures)))
	}
}

func (e *Engine) runDetectors(ctx context.Context, account domain.Account, st *AccountState, r *telemetry.Reading, now time.Time) {
	var alerts []*notify.Alert

	e.mu.Lock()

	// Grid feed. The detector follows the account's declared setting,
	// not telemetry: feed power alone cannot distinguish disabled
	// export from a cloudy hour. The inference result is kept for the
	// status snapshot only. An unknown inference (night, low
	// production) leaves the last definite status standing.
	if status := GridFeedStatusOf(r, now, e.cfg.LowProductionThresholdWatts); status != domain.GridFeedUnknown {
		st.LastGridFeedStatus = status
	}
	evt := st.GridFeed.Update(now, account.GridFeedSetting() == domain.GridFeedDisabled, e.cfg.GridFeedEscalation)
	if evt == EventActivated || evt == EventRepeat {
		alerts = append(alerts, gridFeedAlert(account, r, now, st.GridFeed.ActiveSince()))
	}

	// System offline. A reading whose inverter timestamp has stopped
	// advancing means the datalogger is up but the inverter is not
	// reporting. Readings without a timestamp cannot be judged.
	if !r.Timestamp.IsZero() {
		stale := now.Sub(r.Timestamp) > e.cfg.SystemOfflineThreshold
		evt = st.SystemOffline.Update(now, stale, systemOfflineEscalation)
		if evt == EventActivated || evt == EventRepeat {
			alerts = append(alerts, systemOfflineAlert(account, r, now, st.SystemOffline.ActiveSince()))
		}
	}

	// Load shedding.
	evt = st.LoadShedding.Update(now, loadSheddingActive(r.GridVoltage, e.cfg.LoadSheddingVoltageThreshold), loadSheddingEscalation)
	if evt == EventActivated || evt == EventRepeat {
		alerts = append(alerts, loadSheddingAlert(account, r, now, st.LoadShedding.ActiveSince()))
	}

	// Output priority reset.
	evt = st.PriorityReset.Update(now, priorityResetActive(r.OutputPriority), priorityResetEscalation)
	if evt == EventActivated || evt == EventRepeat {
		alerts = append(alerts, priorityResetAlert(account, r, now))
	}

	// Operating mode change. The first definite mode only sets the
	// baseline; Unknown readings never fire and never update it.
	switch {
	case st.PreviousMode == domain.ModeUnknown:
		if r.Mode != domain.ModeUnknown {
			st.PreviousMode = r.Mode
		}
	case modeChanged(st.PreviousMode, r.Mode):
		alerts = append(alerts, modeChangeAlert(account, st.PreviousMode, r, now))
		st.PreviousMode = r.Mode
	}

	e.mu.Unlock()

	for _, a := range alerts {
		e.dispatch(ctx, a)
	}
}

// maybeSendDailySummary fires once per day inside the five-minute
// window after local midnight, summarizing the previous day. A failed
// summary fetch leaves the date gate unset so a later poll inside the
// window retries.
func (e *Engine) maybeSendDailySummary(ctx context.Context, account domain.Account, st *AccountState, now time.Time) {
	if !inSummaryWindow(now) {
		return
	}

	local := now.In(telemetry.ReportingZone)
	today := local.Format("2006-01-02")

	e.mu.Lock()
	done := st.LastSummaryDate == today
	e.mu.Unlock()
	if done {
		return
	}

	yesterday := local.AddDate(0, 0, -1)
	summary, err := e.source.DailySummaryFor(ctx, account, yesterday)
	if err != nil {
		e.log.Warn("daily summary fetch failed",
			"account", account.ID,
			"date", yesterday.Format("2006-01-02"),
			"error", err,
		)
		return
	}

	e.dispatch(ctx, dailySummaryAlert(account, summary, now))

	e.mu.Lock()
	st.LastSummaryDate = today
	e.mu.Unlock()
}

// dispatch is best-effort: delivery failures are already logged and
// counted by the dispatcher and must not roll back detector state.
func (e *Engine) dispatch(ctx context.Context, alert *notify.Alert) {
	if err := e.dispatcher.Dispatch(ctx, alert); err != nil {
		e.log.Warn("alert delivery incomplete",
			"kind", alert.Kind,
			"account", alert.AccountID,
			"error", err,
		)
	}
}

func (e *Engine) failureDuration(failures int) time.Duration {
	return time.Duration(failures) * e.cfg.PollInterval
}

func (e *Engine) state(accountID string) *AccountState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[accountID]
	if !ok {
		st = newAccountState()
		e.states[accountID] = st
	}
	return st
}

// ConditionStatus is a read-only view of one detector's state.
type ConditionStatus struct {
	Active      bool      `json:"active"`
	ActiveSince time.Time `json:"active_since,omitzero"`
}

// AccountStatus is a read-only snapshot of one account's detectors,
// served by the status API.
type AccountStatus struct {
	GridFeed            ConditionStatus       `json:"grid_feed"`
	LoadShedding        ConditionStatus       `json:"load_shedding"`
	PriorityReset       ConditionStatus       `json:"priority_reset"`
	APIFailure          ConditionStatus       `json:"api_failure"`
	SystemOffline       ConditionStatus       `json:"system_offline"`
	PreviousMode        domain.OperatingMode  `json:"previous_mode"`
	LastGridFeedStatus  domain.GridFeedStatus `json:"last_grid_feed_status"`
	ConsecutiveFailures int                   `json:"consecutive_failures"`
	LastSummaryDate     string                `json:"last_summary_date,omitempty"`
}

// AccountStatus returns the detector snapshot for an account, false if
// the engine has never processed it.
func (e *Engine) AccountStatus(accountID string) (AccountStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[accountID]
	if !ok {
		return AccountStatus{}, false
	}
	return AccountStatus{
		GridFeed:            conditionStatus(&st.GridFeed),
		LoadShedding:        conditionStatus(&st.LoadShedding),
		PriorityReset:       conditionStatus(&st.PriorityReset),
		APIFailure:          conditionStatus(&st.APIFailure),
		SystemOffline:       conditionStatus(&st.SystemOffline),
		PreviousMode:        st.PreviousMode,
		LastGridFeedStatus:  st.LastGridFeedStatus,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastSummaryDate:     st.LastSummaryDate,
	}, true
}

func conditionStatus(c *Condition) ConditionStatus {
	return ConditionStatus{
		Active:      c.Active(),
		ActiveSince: c.ActiveSince(),
	}
}
