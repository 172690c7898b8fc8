// Package lockstate holds the canonical lock state and serializes every
// transition through a single command loop.
package lockstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"desklock/config"
	"desklock/internal/clock"
	"desklock/internal/focus"
	"desklock/internal/input"
	"desklock/internal/platform"
)

var (
	ErrStopped        = errors.New("lock state machine stopped")
	ErrQueueFull      = errors.New("lock command queue full")
	ErrAlreadyRunning = errors.New("lock state machine already running")

	// ErrCoalesced is returned for a toggle dropped as a duplicate of one
	// just applied from another origin. The state did not change.
	ErrCoalesced = errors.New("toggle coalesced with a recent toggle")
)

// DefaultQueueSize bounds the hand-off from hook callbacks and other origins.
const DefaultQueueSize = 16

// SourceShutdown marks the unlock performed when the loop exits.
const SourceShutdown = "shutdown"

// State is the lock state.
type State uint8

const (
	Unlocked State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Op is a transition request.
type Op uint8

const (
	OpLock Op = iota + 1
	OpUnlock
	OpToggle
	opConfigure
)

func (o Op) String() string {
	switch o {
	case OpLock:
		return "lock"
	case OpUnlock:
		return "unlock"
	case OpToggle:
		return "toggle"
	case opConfigure:
		return "configure"
	default:
		return "unknown"
	}
}

// Transition describes one completed state change.
type Transition struct {
	From   State
	To     State
	Source string
	At     time.Time
}

// Settings are the tunables applied by the loop.
type Settings struct {
	FocusInterval  time.Duration
	Fade           time.Duration
	CoalesceWindow time.Duration
	SuppressOSUI   bool
	Appearance     config.Appearance
}

// SettingsFromConfig extracts the machine settings from a config snapshot.
func SettingsFromConfig(c *config.Config) Settings {
	return Settings{
		FocusInterval:  c.Lock.FocusInterval(),
		Fade:           c.Lock.Fade(),
		CoalesceWindow: c.Lock.CoalesceWindow(),
		SuppressOSUI:   c.Lock.SuppressOSUI,
		Appearance:     c.Appearance,
	}
}

type command struct {
	op       Op
	source   string
	settings Settings
	done     chan error
}

// Machine is the lock state machine. IsLocked may be called from any
// goroutine, including OS hook callbacks. Everything else that touches the
// cover, the OS affordances or the focus enforcer runs on the Run goroutine.
type Machine struct {
	platform platform.Platform
	clock    clock.Clock
	logger   *slog.Logger
	filter   input.Handler

	locked  atomic.Bool
	running atomic.Bool
	cmds    chan command
	stopped chan struct{}

	mu        sync.Mutex
	listeners []func(Transition)

	// Owned by the Run goroutine.
	settings     Settings
	cover        platform.Surface
	focus        *focus.Enforcer
	suppressed   bool
	lastToggleBy string
	lastToggleAt time.Time
}

// Options configures a Machine.
type Options struct {
	Platform  platform.Platform
	Clock     clock.Clock
	Logger    *slog.Logger
	Settings  Settings
	QueueSize int

	// Filter is installed on the cover for events delivered to it directly.
	Filter input.Handler
}

// New creates a machine in the Unlocked state. Call Run to start processing.
func New(opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	logger := opts.Logger.With("component", "lockstate")

	return &Machine{
		platform: opts.Platform,
		clock:    opts.Clock,
		logger:   logger,
		filter:   opts.Filter,
		cmds:     make(chan command, opts.QueueSize),
		stopped:  make(chan struct{}),
		settings: opts.Settings,
		focus:    focus.NewEnforcer(opts.Clock, opts.Settings.FocusInterval, opts.Logger),
	}
}

// SetFilter sets the cover's local event filter. It must be called before Run.
func (m *Machine) SetFilter(h input.Handler) {
	m.filter = h
}

// IsLocked returns the canonical state. It is a single atomic load.
func (m *Machine) IsLocked() bool {
	return m.locked.Load()
}

// State returns the canonical state.
func (m *Machine) State() State {
	if m.locked.Load() {
		return Locked
	}
	return Unlocked
}

// Subscribe registers fn to be called after every completed transition.
// fn runs on the command loop and must not block.
func (m *Machine) Subscribe(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// TryToggle queues a toggle without blocking. It is safe to call from an OS
// hook callback and returns false when the request was dropped.
func (m *Machine) TryToggle(origin string) bool {
	return m.TrySubmit(OpToggle, origin) == nil
}

// TrySubmit queues op without blocking.
func (m *Machine) TrySubmit(op Op, source string) error {
	select {
	case <-m.stopped:
		return ErrStopped
	default:
	}
	select {
	case m.cmds <- command{op: op, source: source}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit queues op, waiting for queue space but not for the transition.
func (m *Machine) Submit(ctx context.Context, op Op, source string) error {
	return m.send(ctx, command{op: op, source: source})
}

// Do queues op and waits until the loop has applied it.
func (m *Machine) Do(ctx context.Context, op Op, source string) error {
	return m.roundTrip(ctx, command{op: op, source: source})
}

// Configure replaces the settings and waits until the loop applies them.
// A visible cover picks up the new appearance immediately.
func (m *Machine) Configure(ctx context.Context, s Settings) error {
	return m.roundTrip(ctx, command{op: opConfigure, settings: s})
}

func (m *Machine) send(ctx context.Context, cmd command) error {
	select {
	case <-m.stopped:
		return ErrStopped
	default:
	}
	select {
	case m.cmds <- cmd:
		return nil
	case <-m.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) roundTrip(ctx context.Context, cmd command) error {
	cmd.done = make(chan error, 1)
	if err := m.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.done:
		return err
	case <-m.stopped:
		// The loop may have applied the command just before exiting.
		select {
		case err := <-cmd.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands and focus ticks until ctx is cancelled. On exit it
// unlocks, closes the cover, and makes every later request fail with
// ErrStopped. A transition in flight when ctx is cancelled completes first.
func (m *Machine) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(m.stopped)

	m.logger.Info("lock state machine started")

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil

		case cmd := <-m.cmds:
			err := m.apply(cmd)
			if cmd.done != nil {
				cmd.done <- err
			}

		case <-m.focus.C():
			m.focus.Tick()
		}
	}
}

// Stopped is closed when Run has returned.
func (m *Machine) Stopped() <-chan struct{} {
	return m.stopped
}

func (m *Machine) apply(cmd command) error {
	switch cmd.op {
	case OpLock:
		return m.lock(cmd.source)
	case OpUnlock:
		return m.unlock(cmd.source)
	case OpToggle:
		return m.toggle(cmd.source)
	case opConfigure:
		return m.configure(cmd.settings)
	default:
		return fmt.Errorf("unknown op %d", cmd.op)
	}
}

func (m *Machine) toggle(source string) error {
	now := m.clock.Now()
	if m.lastToggleBy != "" && source != m.lastToggleBy && now.Sub(m.lastToggleAt) < m.settings.CoalesceWindow {
		m.logger.Debug("toggle coalesced",
			"source", source,
			"previous_source", m.lastToggleBy,
			"since", now.Sub(m.lastToggleAt),
		)
		return ErrCoalesced
	}
	m.lastToggleBy = source
	m.lastToggleAt = now

	if m.locked.Load() {
		return m.unlock(source)
	}
	return m.lock(source)
}

func (m *Machine) lock(source string) error {
	if m.locked.Load() {
		return nil
	}

	// Swallowing starts here; the hook reads this flag on every event.
	m.locked.Store(true)

	if m.settings.SuppressOSUI {
		if err := m.platform.SuppressAffordances(); err != nil {
			m.logger.Warn("failed to suppress OS affordances", "error", err)
		} else {
			m.suppressed = true
		}
	}

	if err := m.ensureCover(); err != nil {
		m.logger.Error("failed to create cover", "error", err)
	} else {
		if err := m.cover.Update(m.settings.Appearance); err != nil {
			m.logger.Warn("failed to apply cover appearance", "error", err)
		}
		if err := m.cover.Show(m.settings.Fade); err != nil {
			m.logger.Error("failed to show cover", "error", err)
		}
	}

	var target focus.Target
	if m.cover != nil {
		target = m.cover
	}
	m.focus.Start(target)

	m.logger.Info("locked", "source", source)
	m.notify(Transition{From: Unlocked, To: Locked, Source: source, At: m.clock.Now()})
	return nil
}

func (m *Machine) unlock(source string) error {
	if !m.locked.Load() {
		return nil
	}

	m.focus.Stop()

	if m.suppressed {
		if err := m.platform.RestoreAffordances(); err != nil {
			m.logger.Warn("failed to restore OS affordances", "error", err)
		}
		m.suppressed = false
	}

	if m.cover != nil {
		if err := m.cover.Hide(m.settings.Fade); err != nil {
			m.logger.Error("failed to hide cover", "error", err)
		}
	}

	m.locked.Store(false)

	m.logger.Info("unlocked", "source", source)
	m.notify(Transition{From: Locked, To: Unlocked, Source: source, At: m.clock.Now()})
	return nil
}

func (m *Machine) configure(s Settings) error {
	m.settings = s
	m.focus.SetInterval(s.FocusInterval)
	if m.cover != nil {
		if err := m.cover.Update(s.Appearance); err != nil {
			return fmt.Errorf("update cover appearance: %w", err)
		}
	}
	m.logger.Debug("settings applied",
		"focus_interval", s.FocusInterval,
		"fade", s.Fade,
		"coalesce_window", s.CoalesceWindow,
		"suppress_os_ui", s.SuppressOSUI,
	)
	return nil
}

// ensureCover creates the cover on first use and reuses it afterwards.
func (m *Machine) ensureCover() error {
	if m.cover != nil {
		return nil
	}
	cover, err := m.platform.NewSurface(platform.SurfaceOptions{
		Appearance: m.settings.Appearance,
		Filter:     m.filter,
	})
	if err != nil {
		return err
	}
	m.cover = cover
	return nil
}

func (m *Machine) shutdown() {
	if err := m.unlock(SourceShutdown); err != nil {
		m.logger.Error("failed to unlock on shutdown", "error", err)
	}
	if m.cover != nil {
		if err := m.cover.Close(); err != nil {
			m.logger.Error("failed to close cover", "error", err)
		}
		m.cover = nil
	}
	m.logger.Info("lock state machine stopped")
}

func (m *Machine) notify(t Transition) {
	m.mu.Lock()
	listeners := append([]func(Transition){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(t)
	}
}
