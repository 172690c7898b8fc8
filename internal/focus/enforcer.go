// Package focus keeps the cover surface on top while the workstation is locked.
package focus

import (
	"log/slog"
	"time"

	"desklock/internal/clock"
)

// DefaultInterval is how often focus is re-asserted while locked.
const DefaultInterval = 500 * time.Millisecond

// Target is a surface whose topmost and key-input status can be re-claimed.
type Target interface {
	Reassert() error
}

// Enforcer owns the re-assertion ticker. It is driven by the lock state
// machine's command loop: the loop selects on C() and calls Tick. An Enforcer
// is not safe for concurrent use; only the command loop touches it.
type Enforcer struct {
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	ticker  clock.Ticker
	target  Target
	failing bool
}

// NewEnforcer creates a stopped enforcer.
func NewEnforcer(clk clock.Clock, interval time.Duration, logger *slog.Logger) *Enforcer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Enforcer{
		clock:    clk,
		interval: interval,
		logger:   logger.With("component", "focus"),
	}
}

// Start begins periodic re-assertion of target. Starting a running enforcer
// only swaps the target.
func (e *Enforcer) Start(target Target) {
	e.target = target
	if e.ticker != nil {
		return
	}
	e.ticker = e.clock.NewTicker(e.interval)
	e.failing = false
	e.logger.Debug("focus enforcement started", "interval", e.interval)
}

// Stop halts re-assertion. It is a no-op when stopped.
func (e *Enforcer) Stop() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	e.ticker = nil
	e.logger.Debug("focus enforcement stopped")
}

// Running reports whether the ticker is live.
func (e *Enforcer) Running() bool {
	return e.ticker != nil
}

// C is the tick channel, nil while stopped so a select on it blocks forever.
func (e *Enforcer) C() <-chan time.Time {
	if e.ticker == nil {
		return nil
	}
	return e.ticker.C()
}

// Tick re-asserts the target once. Without a target, or when stopped, it
// does nothing.
func (e *Enforcer) Tick() {
	if e.ticker == nil || e.target == nil {
		return
	}
	if err := e.target.Reassert(); err != nil {
		if !e.failing {
			e.logger.Warn("failed to re-assert cover focus", "error", err)
		}
		e.failing = true
		return
	}
	if e.failing {
		e.logger.Info("cover focus re-asserted")
	}
	e.failing = false
}

// SetInterval changes the period used by the next Start.
func (e *Enforcer) SetInterval(d time.Duration) {
	if d > 0 {
		e.interval = d
	}
}
