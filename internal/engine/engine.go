// Package engine composes the chord registry, the input interceptor, the lock
// state machine and the degraded-mode hotkey into the single object the
// application shell drives.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"desklock/config"
	"desklock/internal/chord"
	"desklock/internal/clock"
	"desklock/internal/hotkey"
	"desklock/internal/interceptor"
	"desklock/internal/lockstate"
	"desklock/internal/platform"
)

// Toggle sources besides interceptor.OriginHook and interceptor.OriginLocal.
const (
	SourceHotkey = "hotkey"
	SourceMenu   = "menu"
	SourceAPI    = "api"
)

// closeTimeout bounds the unlock performed by Close.
const closeTimeout = 5 * time.Second

const warningTitle = "DeskLock: input not fully blocked"

// Controller is the lock surface exposed to the shell and the control API.
type Controller interface {
	Toggle(ctx context.Context, source string) error
	Lock(ctx context.Context, source string) error
	Unlock(ctx context.Context, source string) error
	IsLocked() bool
	Status() Status
}

// Status is a point-in-time view of the engine.
type Status struct {
	Locked       bool              `json:"locked"`
	Intercepting bool              `json:"intercepting"`
	Degraded     bool              `json:"degraded"`
	Permitted    bool              `json:"permitted"`
	Chord        string            `json:"chord"`
	Stats        interceptor.Stats `json:"stats"`
}

// Options configures an Engine. Nil collaborators are replaced by the ones
// for the running OS.
type Options struct {
	Config   *config.Config
	Hook     interceptor.Hook
	Platform platform.Platform
	Hotkeys  hotkey.Registrar
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Engine owns the lock subsystem for the lifetime of the process. New starts
// the command loop, Close tears everything down. Start and Stop only manage
// the privileged hook and may be cycled freely in between.
type Engine struct {
	logger   *slog.Logger
	platform platform.Platform
	hotkeys  hotkey.Registrar

	chords      *chord.Registry
	machine     *lockstate.Machine
	interceptor *interceptor.Interceptor

	cancel   context.CancelFunc
	diagDone chan struct{}

	mu       sync.Mutex
	started  bool
	degraded bool
	closed   bool
}

// New builds the engine and starts its command loop.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Hook == nil {
		opts.Hook = interceptor.NewHook()
	}
	if opts.Platform == nil {
		opts.Platform = platform.NewPlatform(opts.Logger)
	}
	if opts.Hotkeys == nil {
		opts.Hotkeys = hotkey.New(opts.Logger)
	}
	logger := opts.Logger.With("component", "engine")

	initial, err := cfg.Chord()
	if err != nil {
		logger.Warn("configured hotkey rejected, using default",
			"hotkey", cfg.Hotkey,
			"default", chord.DefaultSpec(),
			"error", err)
		initial = chord.Default()
	}
	chords := chord.NewRegistry(initial)

	machine := lockstate.New(lockstate.Options{
		Platform: opts.Platform,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Settings: lockstate.SettingsFromConfig(cfg),
	})
	icpt := interceptor.New(opts.Hook, chords, machine, opts.Clock, opts.Logger)
	machine.SetFilter(icpt.FilterLocal)

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		logger:      logger,
		platform:    opts.Platform,
		hotkeys:     opts.Hotkeys,
		chords:      chords,
		machine:     machine,
		interceptor: icpt,
		cancel:      cancel,
		diagDone:    make(chan struct{}),
	}
	chords.OnChange(e.onChordChange)

	go func() {
		if err := machine.Run(ctx); err != nil {
			logger.Error("command loop exited", "error", err)
		}
	}()
	go func() {
		defer close(e.diagDone)
		icpt.Run(ctx)
	}()

	return e
}

// Start installs the privileged hook. It returns false when the hook could
// not be installed; the engine then runs degraded: the chord is registered as
// an ordinary global hotkey, the cover still blocks its own input, and a
// warning is shown to the user. Calling Start again retries the install.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	e.started = true

	err := e.interceptor.Start()
	if err == nil {
		if e.degraded {
			e.leaveDegradedLocked()
		}
		return true
	}

	if !e.degraded {
		e.enterDegradedLocked(err)
	}
	return false
}

// Stop releases the privileged hook and the degraded-mode hotkey. It is
// idempotent and never waits on a lock transition.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}
	if err := e.interceptor.Stop(); err != nil {
		e.logger.Error("failed to release input hook", "error", err)
	}
	if e.degraded {
		e.leaveDegradedLocked()
	}
	e.started = false
}

// Close unlocks, releases the hook, stops the command loop and closes the
// cover. Later calls are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if err := e.machine.Do(ctx, lockstate.OpUnlock, lockstate.SourceShutdown); err != nil && !errors.Is(err, lockstate.ErrStopped) {
		e.logger.Error("failed to unlock before shutdown", "error", err)
		errs = append(errs, err)
	}

	e.Stop()

	e.cancel()
	<-e.machine.Stopped()
	<-e.diagDone

	e.logger.Info("engine closed")
	return errors.Join(errs...)
}

// Toggle flips the lock state and waits for the transition. It returns
// lockstate.ErrCoalesced when another origin toggled within the coalescing
// window and the state was left as is.
func (e *Engine) Toggle(ctx context.Context, source string) error {
	return e.machine.Do(ctx, lockstate.OpToggle, source)
}

// Lock locks and waits for the transition. Locking while locked is a no-op.
func (e *Engine) Lock(ctx context.Context, source string) error {
	return e.machine.Do(ctx, lockstate.OpLock, source)
}

// Unlock unlocks and waits for the transition.
func (e *Engine) Unlock(ctx context.Context, source string) error {
	return e.machine.Do(ctx, lockstate.OpUnlock, source)
}

// IsLocked returns the canonical lock state.
func (e *Engine) IsLocked() bool {
	return e.machine.IsLocked()
}

// OnTransition registers fn for every completed lock transition. fn runs on
// the command loop and must not block.
func (e *Engine) OnTransition(fn func(lockstate.Transition)) {
	e.machine.Subscribe(fn)
}

// HasRequiredPermission reports whether Start can install the privileged hook.
func (e *Engine) HasRequiredPermission() bool {
	return e.interceptor.Permitted()
}

// RequestPermission asks the OS to prompt the user for the hook privilege.
func (e *Engine) RequestPermission() bool {
	return e.interceptor.RequestPermission()
}

// Degraded reports whether the engine runs without the privileged hook.
func (e *Engine) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

// Chord returns the active toggle chord.
func (e *Engine) Chord() chord.Chord {
	return e.chords.Current()
}

// ApplyConfig applies a new settings snapshot without reinstalling the hook.
// An invalid hotkey is rejected and the previous chord stays active; the
// remaining settings are applied regardless.
func (e *Engine) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	var errs []error

	c, err := cfg.Chord()
	if err == nil {
		err = e.chords.Set(c)
	}
	if err != nil {
		e.logger.Warn("hotkey rejected, keeping previous chord",
			"hotkey", cfg.Hotkey,
			"chord", e.chords.Current().String(),
			"error", err)
		errs = append(errs, err)
	}

	if err := e.machine.Configure(ctx, lockstate.SettingsFromConfig(cfg)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Stats returns the interceptor counters.
func (e *Engine) Stats() interceptor.Stats {
	return e.interceptor.Stats()
}

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	return Status{
		Locked:       e.machine.IsLocked(),
		Intercepting: e.interceptor.Installed(),
		Degraded:     e.Degraded(),
		Permitted:    e.interceptor.Permitted(),
		Chord:        e.chords.Current().String(),
		Stats:        e.interceptor.Stats(),
	}
}

func (e *Engine) enterDegradedLocked(cause error) {
	e.degraded = true
	e.logger.Warn("running in degraded mode, only the cover blocks input", "error", cause)

	if err := e.hotkeys.Register(e.chords.Current(), e.onHotkey); err != nil {
		e.logger.Warn("global hotkey unavailable, chord works only on the cover", "error", err)
	}
	if err := e.platform.ShowWarningNotification(warningTitle, warningMessage(cause, e.chords.Current())); err != nil {
		e.logger.Error("failed to show warning", "error", err)
	}
}

func (e *Engine) leaveDegradedLocked() {
	if err := e.hotkeys.Unregister(); err != nil {
		e.logger.Warn("failed to unregister global hotkey", "error", err)
	}
	e.degraded = false
	e.logger.Info("left degraded mode")
}

func (e *Engine) onHotkey() {
	if !e.machine.TryToggle(SourceHotkey) {
		e.logger.Warn("hotkey toggle dropped")
	}
}

func (e *Engine) onChordChange(c chord.Chord) {
	e.logger.Info("chord changed", "chord", c.String())

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.degraded {
		return
	}
	if err := e.hotkeys.Register(c, e.onHotkey); err != nil {
		e.logger.Warn("failed to re-register global hotkey", "chord", c.String(), "error", err)
	}
}

func warningMessage(cause error, c chord.Chord) string {
	if errors.Is(cause, interceptor.ErrPermissionDenied) {
		return "DeskLock needs permission to monitor input before it can block other applications. " +
			"Until it is granted, only the lock screen itself blocks input. " +
			"Grant access in system settings, then restart DeskLock. " +
			"Toggle with " + c.String() + "."
	}
	return "The input hook could not be installed, so other applications still receive input " +
		"while locked. Toggle with " + c.String() + "."
}

var _ Controller = (*Engine)(nil)
