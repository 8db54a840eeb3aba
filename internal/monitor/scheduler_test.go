package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func newSchedulerTestEngine() (*Engine, *fakeSink) {
	sink := &fakeSink{}
	eng := NewEngine(
		&fakeAccounts{},
		newFakeSource(),
		sink,
		testMonitorConfig(),
		quietLogger(),
	)
	return eng, sink
}

func TestNewScheduler_RegistersCycleEntry(t *testing.T) {
	t.Parallel()

	eng, _ := newSchedulerTestEngine()
	sched, err := NewScheduler(eng, 400*time.Second, quietLogger())
	require.NoError(t, err)

	assert.Len(t, sched.Entries(), 1)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	eng, _ := newSchedulerTestEngine()
	sched, err := NewScheduler(eng, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}

func TestScheduler_RunsImmediateFirstCycle(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	source := newFakeSource()
	acct := monitorAccount()
	source.set(acct.ID, healthyReading(domain.ModeLine, 170), nil)

	eng := NewEngine(
		&fakeAccounts{accounts: []domain.Account{acct}},
		source,
		sink,
		testMonitorConfig(),
		quietLogger(),
	)
	sched, err := NewScheduler(eng, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	defer sched.Stop()

	// The first cycle runs at startup, not after the first interval.
	assert.Eventually(t, func() bool {
		return len(sink.byKind(domain.AlertLoadShedding)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// blockingAccounts parks the first ListActiveAccounts call until
// released, to hold a cycle in flight.
type blockingAccounts struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAccounts) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	b.entered <- struct{}{}
	<-b.release
	return nil, nil
}

func TestScheduler_StopWaitsForImmediateCycle(t *testing.T) {
	t.Parallel()

	accounts := &blockingAccounts{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	eng := NewEngine(accounts, newFakeSource(), &fakeSink{}, testMonitorConfig(), quietLogger())
	sched, err := NewScheduler(eng, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	<-accounts.entered

	// The startup cycle is still inside the engine; Stop's context must
	// not complete until it finishes.
	ctx := sched.Stop()
	select {
	case <-ctx.Done():
		t.Fatal("stop completed while a cycle was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(accounts.release)
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stop never completed after the cycle finished")
	}
}

func TestScheduler_StopPreventsFurtherCycles(t *testing.T) {
	t.Parallel()

	eng, _ := newSchedulerTestEngine()
	sched, err := NewScheduler(eng, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	<-sched.Stop().Done()

	// A late cron wakeup after Stop must be a no-op.
	sched.runCycle()
}
