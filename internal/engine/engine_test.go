package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"desklock/config"
	"desklock/internal/chord"
	"desklock/internal/clock"
	"desklock/internal/input"
	"desklock/internal/interceptor"
	"desklock/internal/lockstate"
	"desklock/internal/platform"
)

// MockHook is a test double for interceptor.Hook
type MockHook struct {
	mu         sync.Mutex
	handler    input.Handler
	live       int
	installs   int
	uninstalls int
	InstallErr error
}

func (m *MockHook) Install(h input.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InstallErr != nil {
		return m.InstallErr
	}
	if m.live > 0 {
		return errors.New("handle already live")
	}
	m.handler = h
	m.live++
	m.installs++
	return nil
}

func (m *MockHook) Uninstall() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live > 0 {
		m.live--
		m.uninstalls++
	}
	m.handler = nil
	return nil
}

func (m *MockHook) Reenable() {}

func (m *MockHook) Permitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !errors.Is(m.InstallErr, interceptor.ErrPermissionDenied)
}

func (m *MockHook) setInstallErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InstallErr = err
}

func (m *MockHook) Deliver(ev input.Event) input.Verdict {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		return input.Forward
	}
	return h(ev)
}

func (m *MockHook) counts() (live, installs, uninstalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live, m.installs, m.uninstalls
}

// MockSurface is a test double for platform.Surface
type MockSurface struct {
	mu         sync.Mutex
	shows      int
	hides      int
	closes     int
	appearance config.Appearance
}

func (s *MockSurface) Show(time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows++
	return nil
}

func (s *MockSurface) Hide(time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hides++
	return nil
}

func (s *MockSurface) Reassert() error { return nil }

func (s *MockSurface) Update(a config.Appearance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appearance = a
	return nil
}

func (s *MockSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// MockPlatform is a test double for platform.Platform
type MockPlatform struct {
	mu       sync.Mutex
	surface  *MockSurface
	restores int
	warnings []string
}

func (p *MockPlatform) NewSurface(platform.SurfaceOptions) (platform.Surface, error) {
	return p.surface, nil
}

func (p *MockPlatform) SuppressAffordances() error { return nil }

func (p *MockPlatform) RestoreAffordances() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restores++
	return nil
}

func (p *MockPlatform) ShowWarningNotification(title, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, message)
	return nil
}

func (p *MockPlatform) Warnings() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.warnings...)
}

// MockHotkeys is a test double for hotkey.Registrar
type MockHotkeys struct {
	mu           sync.Mutex
	registered   []chord.Chord
	unregistered int
	onPress      func()
}

func (h *MockHotkeys) Register(c chord.Chord, onPress func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = append(h.registered, c)
	h.onPress = onPress
	return nil
}

func (h *MockHotkeys) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregistered++
	h.onPress = nil
	return nil
}

func (h *MockHotkeys) Press() {
	h.mu.Lock()
	fn := h.onPress
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (h *MockHotkeys) Registered() []chord.Chord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]chord.Chord(nil), h.registered...)
}

type fixture struct {
	engine   *Engine
	hook     *MockHook
	platform *MockPlatform
	surface  *MockSurface
	hotkeys  *MockHotkeys
	clock    *clock.MockClock
}

func newFixture(t *testing.T, installErr error) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Hotkey = "ctrl+shift+grave"
	return newConfiguredFixture(t, installErr, cfg)
}

func newConfiguredFixture(t *testing.T, installErr error, cfg *config.Config) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	f := &fixture{
		hook:    &MockHook{InstallErr: installErr},
		surface: &MockSurface{},
		hotkeys: &MockHotkeys{},
		clock:   clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.platform = &MockPlatform{surface: f.surface}
	f.engine = New(Options{
		Config:   cfg,
		Hook:     f.hook,
		Platform: f.platform,
		Hotkeys:  f.hotkeys,
		Clock:    f.clock,
		Logger:   logger,
	})
	t.Cleanup(func() { f.engine.Close() })
	return f
}

func chordDown() input.Event {
	return input.Event{Kind: input.KindKeyDown, Key: chord.KeyGrave, Modifiers: chord.ModCtrl | chord.ModShift}
}

func TestStart_InstallsHook(t *testing.T) {
	f := newFixture(t, nil)

	assert.True(t, f.engine.Start())
	assert.False(t, f.engine.Degraded())
	assert.True(t, f.engine.HasRequiredPermission())
	assert.Empty(t, f.hotkeys.Registered())

	live, installs, _ := f.hook.counts()
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, installs)
}

func TestStart_PermissionDeniedFallsBack(t *testing.T) {
	f := newFixture(t, interceptor.ErrPermissionDenied)
	ctx := context.Background()

	assert.False(t, f.engine.HasRequiredPermission())
	assert.False(t, f.engine.Start())
	assert.True(t, f.engine.Degraded())
	require.Len(t, f.platform.Warnings(), 1)
	assert.Equal(t, []chord.Chord{chord.MustParse("ctrl+shift+grave")}, f.hotkeys.Registered())

	require.NoError(t, f.engine.Toggle(ctx, SourceMenu))
	assert.True(t, f.engine.IsLocked())

	// The global hotkey is a separate origin; step past the coalescing window
	f.clock.Set(f.clock.Now().Add(time.Second))
	f.hotkeys.Press()
	assert.Eventually(t, func() bool { return !f.engine.IsLocked() }, time.Second, 5*time.Millisecond)
}

func TestStart_RetryAfterGrantLeavesDegraded(t *testing.T) {
	f := newFixture(t, interceptor.ErrPermissionDenied)

	require.False(t, f.engine.Start())
	f.hook.setInstallErr(nil)

	assert.True(t, f.engine.Start())
	assert.False(t, f.engine.Degraded())
	assert.Equal(t, 1, f.hotkeys.unregistered)
}

func TestStopThenStart_Reinstalls(t *testing.T) {
	f := newFixture(t, nil)

	require.True(t, f.engine.Start())
	f.engine.Stop()
	f.engine.Stop()

	live, _, uninstalls := f.hook.counts()
	assert.Zero(t, live)
	assert.Equal(t, 1, uninstalls)

	require.True(t, f.engine.Start())
	live, installs, _ := f.hook.counts()
	assert.Equal(t, 1, live)
	assert.Equal(t, 2, installs)

	assert.Equal(t, input.Swallow, f.hook.Deliver(chordDown()))
	assert.Eventually(t, f.engine.IsLocked, time.Second, 5*time.Millisecond)
}

func TestHook_LockedSwallowsEverything(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.engine.Start())

	other := input.Event{Kind: input.KindKeyDown, Key: chord.KeyA}
	assert.Equal(t, input.Forward, f.hook.Deliver(other))

	require.NoError(t, f.engine.Lock(context.Background(), SourceMenu))

	assert.Equal(t, input.Swallow, f.hook.Deliver(other))
	assert.Equal(t, input.Swallow, f.hook.Deliver(input.Event{Kind: input.KindPointerDown}))
	assert.Equal(t, uint64(1), f.engine.Stats().Forwarded)
}

func TestApplyConfig_InvalidChordKeepsPrevious(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.engine.Start())
	ctx := context.Background()

	before := f.engine.Chord()

	cfg := config.Default()
	cfg.Hotkey = "shift+a"
	err := f.engine.ApplyConfig(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, chord.ErrInvalidChord)
	assert.Equal(t, before, f.engine.Chord())

	cfg.Hotkey = "ctrl+alt+l"
	require.NoError(t, f.engine.ApplyConfig(ctx, cfg))
	assert.Equal(t, chord.MustParse("ctrl+alt+l"), f.engine.Chord())

	// New chord is live without reinstalling
	_, installs, _ := f.hook.counts()
	assert.Equal(t, 1, installs)
	f.hook.Deliver(input.Event{Kind: input.KindKeyDown, Key: chord.KeyL, Modifiers: chord.ModCtrl | chord.ModAlt})
	assert.Eventually(t, f.engine.IsLocked, time.Second, 5*time.Millisecond)
}

func TestNew_InvalidHotkeyUsesDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Hotkey = "shift+a"
	cfg.Appearance.LockText = "AWAY"
	f := newConfiguredFixture(t, nil, cfg)
	require.True(t, f.engine.Start())

	assert.Equal(t, chord.Default(), f.engine.Chord())

	require.NoError(t, f.engine.Lock(context.Background(), "api"))
	f.surface.mu.Lock()
	defer f.surface.mu.Unlock()
	assert.Equal(t, "AWAY", f.surface.appearance.LockText)
}

func TestApplyConfig_ReregistersHotkeyWhenDegraded(t *testing.T) {
	f := newFixture(t, interceptor.ErrHookInstallFailed)
	require.False(t, f.engine.Start())

	cfg := config.Default()
	cfg.Hotkey = "ctrl+alt+l"
	require.NoError(t, f.engine.ApplyConfig(context.Background(), cfg))

	registered := f.hotkeys.Registered()
	require.Len(t, registered, 2)
	assert.Equal(t, chord.MustParse("ctrl+alt+l"), registered[1])
}

func TestClose_UnlocksBeforeRelease(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.engine.Start())

	var mu sync.Mutex
	var sources []string
	f.engine.OnTransition(func(tr lockstate.Transition) {
		mu.Lock()
		defer mu.Unlock()
		sources = append(sources, tr.Source)
	})

	require.NoError(t, f.engine.Lock(context.Background(), SourceAPI))
	require.NoError(t, f.engine.Close())
	require.NoError(t, f.engine.Close())

	assert.False(t, f.engine.IsLocked())
	live, _, _ := f.hook.counts()
	assert.Zero(t, live)

	f.surface.mu.Lock()
	assert.Equal(t, 1, f.surface.hides)
	assert.Equal(t, 1, f.surface.closes)
	f.surface.mu.Unlock()

	mu.Lock()
	assert.Equal(t, []string{SourceAPI, lockstate.SourceShutdown}, sources)
	mu.Unlock()

	assert.ErrorIs(t, f.engine.Toggle(context.Background(), SourceMenu), lockstate.ErrStopped)
	assert.False(t, f.engine.Start())
}

func TestStatus(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.engine.Start())

	st := f.engine.Status()
	assert.False(t, st.Locked)
	assert.True(t, st.Intercepting)
	assert.False(t, st.Degraded)
	assert.Equal(t, chord.MustParse("ctrl+shift+grave").String(), st.Chord)
}
