package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic monitoring cycle. Shutdown is
// cooperative: stopping prevents the next cycle from starting and the
// engine checks the context between accounts, so an in-flight cycle
// winds down within one account's work.
type Scheduler struct {
	cron    *cron.Cron
	engine  *Engine
	log     *slog.Logger
	baseCtx context.Context
	cancel  context.CancelFunc

	// wg tracks the immediate cycle Start launches outside cron, so
	// Stop can wait for it like any scheduled one.
	wg sync.WaitGroup
}

// NewScheduler creates a Scheduler running the engine's cycle at the
// given interval. A cycle that overruns the interval suppresses the
// next tick instead of piling up concurrent cycles.
func NewScheduler(eng *Engine, interval time.Duration, log *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		engine:  eng,
		log:     log,
		baseCtx: ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc("@every "+interval.String(), s.runCycle); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Start begins the schedule and runs one cycle immediately, so a fresh
// process does not wait a full interval before its first poll.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCycle()
	}()
}

// Stop cancels future cycles and returns a context that is done when
// every running cycle, the immediate one included, has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	s.cancel()
	cronCtx := s.cron.Stop()

	done, finish := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		finish()
	}()
	return done
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runCycle() {
	if err := s.baseCtx.Err(); err != nil {
		return
	}
	if err := s.engine.RunCycle(s.baseCtx); err != nil {
		s.log.Error("monitoring cycle failed", "error", err)
	}
}
