// Package interceptor owns the process-wide input hook and decides, per event,
// whether the event is swallowed or forwarded.
package interceptor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"desklock/internal/chord"
	"desklock/internal/clock"
	"desklock/internal/input"
)

// Toggle origins reported to the Dispatcher.
const (
	OriginHook  = "hook"
	OriginLocal = "local"
)

const (
	noticeBuffer = 64

	// autoDisableWindow and autoDisableWarnCount decide when repeated host
	// auto-disables are reported as a performance concern.
	autoDisableWindow    = time.Minute
	autoDisableWarnCount = 3
)

// Dispatcher is the lock state seen from the hook callback. Both methods must
// return without blocking.
type Dispatcher interface {
	IsLocked() bool
	TryToggle(origin string) bool
}

// Stats are cumulative counters since the interceptor was created.
type Stats struct {
	Events         uint64 `json:"events"`
	Forwarded      uint64 `json:"forwarded"`
	Swallowed      uint64 `json:"swallowed"`
	Toggles        uint64 `json:"toggles"`
	DroppedToggles uint64 `json:"dropped_toggles"`
	AutoDisables   uint64 `json:"auto_disables"`
}

type noticeKind uint8

const (
	noticeAutoDisabled noticeKind = iota + 1
	noticeToggleDropped
)

type notice struct {
	kind   noticeKind
	origin string
	at     time.Time
}

// Interceptor wraps a platform Hook with the chord and lock-state decision.
type Interceptor struct {
	hook       Hook
	chords     *chord.Registry
	dispatcher Dispatcher
	clock      clock.Clock
	logger     *slog.Logger

	mu        sync.Mutex
	installed bool

	// held is the chord key whose press was consumed and whose release is
	// still pending, or zero.
	held atomic.Uint32

	events         atomic.Uint64
	forwarded      atomic.Uint64
	swallowed      atomic.Uint64
	toggles        atomic.Uint64
	droppedToggles atomic.Uint64
	autoDisables   atomic.Uint64

	notices chan notice
}

// New creates an interceptor. The hook is not installed until Start.
func New(hook Hook, chords *chord.Registry, dispatcher Dispatcher, clk clock.Clock, logger *slog.Logger) *Interceptor {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Interceptor{
		hook:       hook,
		chords:     chords,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger.With("component", "interceptor"),
		notices:    make(chan notice, noticeBuffer),
	}
}

// Start installs the hook. Calling Start on an installed interceptor is a
// no-op. Errors wrap ErrPermissionDenied or ErrHookInstallFailed and are
// never fatal; the caller decides on degraded operation.
func (i *Interceptor) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.installed {
		return nil
	}

	i.held.Store(0)
	if err := i.hook.Install(i.Decide); err != nil {
		if !errors.Is(err, ErrPermissionDenied) && !errors.Is(err, ErrHookInstallFailed) {
			err = fmt.Errorf("%w: %w", ErrHookInstallFailed, err)
		}
		i.logger.Warn("input hook not installed", "error", err)
		return err
	}

	i.installed = true
	i.logger.Info("input hook installed", "chord", i.chords.Current().String())
	return nil
}

// Stop releases the hook. It is idempotent and does not wait on lock
// transitions, so it is safe during shutdown.
func (i *Interceptor) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.installed {
		return nil
	}

	i.installed = false
	i.held.Store(0)
	if err := i.hook.Uninstall(); err != nil {
		i.logger.Error("failed to release input hook", "error", err)
		return fmt.Errorf("uninstall hook: %w", err)
	}

	i.logger.Info("input hook released")
	return nil
}

// Installed reports whether the hook is currently live.
func (i *Interceptor) Installed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.installed
}

// Permitted reports whether the OS currently allows the hook to be installed.
func (i *Interceptor) Permitted() bool {
	return i.hook.Permitted()
}

// RequestPermission asks the OS to prompt the user, where the hook supports it.
// It returns the permission state after the request.
func (i *Interceptor) RequestPermission() bool {
	if pr, ok := i.hook.(PermissionRequester); ok {
		return pr.RequestPermission()
	}
	return i.hook.Permitted()
}

// Decide is the hook callback. It runs inside the OS callback context and
// must stay non-blocking: no logging, no I/O.
func (i *Interceptor) Decide(ev input.Event) input.Verdict {
	return i.decide(ev, OriginHook)
}

// FilterLocal applies the same decision to events delivered to the
// application's own surfaces. It is the only protection in degraded mode.
func (i *Interceptor) FilterLocal(ev input.Event) input.Verdict {
	return i.decide(ev, OriginLocal)
}

func (i *Interceptor) decide(ev input.Event, origin string) input.Verdict {
	i.events.Add(1)

	switch ev.Kind {
	case input.KindHookDisabled:
		i.hook.Reenable()
		i.autoDisables.Add(1)
		i.notify(notice{kind: noticeAutoDisabled, origin: origin, at: i.clock.Now()})
		return i.forward()

	case input.KindKeyDown:
		if chord.Matches(ev.Key, ev.Modifiers, i.chords.Current()) {
			// Auto-repeat while the chord key is still down must not toggle
			// again. A press the host does not flag as a repeat always
			// toggles, even if the previous release was never seen.
			wasHeld := i.held.Swap(uint32(ev.Key)) == uint32(ev.Key)
			if !ev.Repeat || !wasHeld {
				if i.dispatcher.TryToggle(origin) {
					i.toggles.Add(1)
				} else {
					i.droppedToggles.Add(1)
					i.notify(notice{kind: noticeToggleDropped, origin: origin, at: i.clock.Now()})
				}
			}
			return i.swallow()
		}

	case input.KindKeyUp:
		if k := uint32(ev.Key); k != 0 && i.held.CompareAndSwap(k, 0) {
			return i.swallow()
		}
	}

	if i.dispatcher.IsLocked() {
		return i.swallow()
	}
	return i.forward()
}

func (i *Interceptor) forward() input.Verdict {
	i.forwarded.Add(1)
	return input.Forward
}

func (i *Interceptor) swallow() input.Verdict {
	i.swallowed.Add(1)
	return input.Swallow
}

// notify hands a diagnostic to the reporter, dropping it if the buffer is full.
func (i *Interceptor) notify(n notice) {
	select {
	case i.notices <- n:
	default:
	}
}

// Stats returns a snapshot of the counters.
func (i *Interceptor) Stats() Stats {
	return Stats{
		Events:         i.events.Load(),
		Forwarded:      i.forwarded.Load(),
		Swallowed:      i.swallowed.Load(),
		Toggles:        i.toggles.Load(),
		DroppedToggles: i.droppedToggles.Load(),
		AutoDisables:   i.autoDisables.Load(),
	}
}

// Run logs diagnostics produced by the callback until ctx is cancelled.
func (i *Interceptor) Run(ctx context.Context) {
	var disables []time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-i.notices:
			switch n.kind {
			case noticeAutoDisabled:
				disables = recentSince(append(disables, n.at), n.at.Add(-autoDisableWindow))
				if len(disables) >= autoDisableWarnCount {
					i.logger.Warn("input hook repeatedly disabled by the OS, callback too slow",
						"count", len(disables),
						"window", autoDisableWindow,
					)
				} else {
					i.logger.Debug("input hook re-enabled after OS auto-disable")
				}
			case noticeToggleDropped:
				i.logger.Warn("toggle request dropped, command queue full", "origin", n.origin)
			}
		}
	}
}

// recentSince drops timestamps before cutoff, keeping order.
func recentSince(ts []time.Time, cutoff time.Time) []time.Time {
	n := 0
	for _, t := range ts {
		if !t.Before(cutoff) {
			ts[n] = t
			n++
		}
	}
	return ts[:n]
}
