//go:build windows || darwin

package hotkey

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/hotkey"

	"desklock/internal/chord"
)

// Global registers the chord through golang.design/x/hotkey. On macOS the
// process must run under mainthread.Init.
type Global struct {
	logger *slog.Logger

	mu   sync.Mutex
	hk   *hotkey.Hotkey
	done chan struct{}
}

// New creates an empty registrar.
func New(logger *slog.Logger) *Global {
	return &Global{logger: logger.With("component", "hotkey")}
}

// Register replaces the current registration with c.
func (g *Global) Register(c chord.Chord, onPress func()) error {
	mods, key, err := translate(c)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.unregisterLocked()

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRegisterFailed, c, err)
	}

	done := make(chan struct{})
	keydown := hk.Keydown()
	go func() {
		for {
			select {
			case _, ok := <-keydown:
				if !ok {
					return
				}
				select {
				case <-done:
					return
				default:
				}
				onPress()
			case <-done:
				return
			}
		}
	}()

	g.hk = hk
	g.done = done
	g.logger.Info("global hotkey registered", "chord", c.String())
	return nil
}

// Unregister releases the current registration.
func (g *Global) Unregister() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unregisterLocked()
}

func (g *Global) unregisterLocked() error {
	if g.hk == nil {
		return nil
	}
	close(g.done)
	err := g.hk.Unregister()
	g.hk = nil
	g.done = nil
	if err != nil {
		return fmt.Errorf("unregister hotkey: %w", err)
	}
	g.logger.Info("global hotkey unregistered")
	return nil
}

func translate(c chord.Chord) ([]hotkey.Modifier, hotkey.Key, error) {
	code, ok := chord.ToNative(c.Key)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnmappedKey, c.Key)
	}
	bits := splitModifiers(c.Modifiers)
	mods := make([]hotkey.Modifier, 0, len(bits))
	for _, bit := range bits {
		mods = append(mods, modMap[bit])
	}
	return mods, hotkey.Key(code), nil
}

var _ Registrar = (*Global)(nil)
