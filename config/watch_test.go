package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	configs []*Config
}

func (r *changeRecorder) record(c *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, c)
}

func (r *changeRecorder) last() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.configs) == 0 {
		return nil
	}
	return r.configs[len(r.configs)-1]
}

func (r *changeRecorder) all() []*Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Config(nil), r.configs...)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

func startWatcher(t *testing.T, path string, rec *changeRecorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	w, err := NewWatcher(path, 20*time.Millisecond, logger, rec.record)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_ReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	c := validConfig()
	require.NoError(t, Save(path, &c))

	rec := &changeRecorder{}
	startWatcher(t, path, rec)

	c.Hotkey = "ctrl+alt+l"
	require.NoError(t, Save(path, &c))

	assert.Eventually(t, func() bool {
		last := rec.last()
		return last != nil && last.Hotkey == "ctrl+alt+l"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_InvalidFileIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	c := validConfig()
	require.NoError(t, Save(path, &c))

	rec := &changeRecorder{}
	startWatcher(t, path, rec)

	c.Lock.FocusIntervalMS = 0
	c.Hotkey = "ctrl+f1"
	require.NoError(t, Save(path, &c))

	// A valid write afterwards still gets through
	time.Sleep(100 * time.Millisecond)
	c.Lock.FocusIntervalMS = 500
	c.Hotkey = "meta+grave"
	require.NoError(t, Save(path, &c))

	assert.Eventually(t, func() bool {
		last := rec.last()
		return last != nil && last.Hotkey == "meta+grave"
	}, 2*time.Second, 10*time.Millisecond)

	for _, cfg := range rec.all() {
		assert.NotEqual(t, "ctrl+f1", cfg.Hotkey)
	}
}

func TestWatcher_InvalidHotkeyStillDelivered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	c := validConfig()
	require.NoError(t, Save(path, &c))

	rec := &changeRecorder{}
	startWatcher(t, path, rec)

	c.Hotkey = "shift+grave"
	c.Appearance.LockText = "BACK SOON"
	require.NoError(t, Save(path, &c))

	assert.Eventually(t, func() bool {
		last := rec.last()
		return last != nil && last.Appearance.LockText == "BACK SOON"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	c := validConfig()
	require.NoError(t, Save(path, &c))

	rec := &changeRecorder{}
	startWatcher(t, path, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))
	time.Sleep(150 * time.Millisecond)

	assert.Zero(t, rec.count())
}
