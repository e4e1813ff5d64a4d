/*
scheduler.go - Periodic premium recompute and quality scan

PURPOSE:
  Keeps the stored monthly premiums of the current month and the
  data-quality gauges fresh without an operator calling the endpoints.
  Each run recomputes the month (same path as POST
  /api/premiums/{ym}/recalculate) and rescans data quality.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - A failed run is logged and retried at the next tick
  - Stop cancels an in-flight run and waits for the goroutine

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: false)

USAGE:
  scheduler := NewRecalculationScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Recalculate, ListQualityIssues
  - config/config.go: scheduler section
*/
package api

import (
	"context"
	"sync"
	"time"
)

// RecalculationScheduler recomputes the current month on a ticker.
type RecalculationScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRecalculationScheduler creates a disabled scheduler with a one-hour
// interval.
func NewRecalculationScheduler(handler *Handler) *RecalculationScheduler {
	return &RecalculationScheduler{
		Handler:       handler,
		CheckInterval: time.Hour,
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (rs *RecalculationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	log := rs.Handler.Log
	if !rs.Enabled {
		log.Info().Msg("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run(ctx)

	log.Info().Dur("interval", rs.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running pass to end.
func (rs *RecalculationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	rs.cancel()
	rs.wg.Wait()
	rs.ticker = nil
	rs.Handler.Log.Info().Msg("scheduler stopped")
}

func (rs *RecalculationScheduler) run(ctx context.Context) {
	defer rs.wg.Done()

	rs.RunOnce(ctx)

	for {
		select {
		case <-rs.ticker.C:
			rs.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce recomputes the current month and rescans data quality. Errors
// are logged; the next pass retries.
func (rs *RecalculationScheduler) RunOnce(ctx context.Context) {
	h := rs.Handler
	ym := h.today().YearMonth()

	if _, err := h.recalculate(ctx, ym); err != nil {
		h.Log.Error().Err(err).Str("year_month", ym.String()).Msg("scheduled recalculation failed")
	}

	views, stale, err := h.scan(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("scheduled quality scan failed")
		return
	}
	open := 0
	for _, v := range views {
		if !v.Acknowledged {
			open++
		}
	}
	h.Log.Info().
		Int("issues", len(views)).
		Int("open", open).
		Int("stale_acknowledgements", len(stale)).
		Msg("scheduled quality scan")
}
