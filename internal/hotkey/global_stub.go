//go:build !windows && !darwin

package hotkey

import (
	"log/slog"

	"desklock/internal/chord"
)

// Global is a no-op registrar. X11 grabs need cgo and the X11 headers, which
// the headless builds this platform targets do not carry.
type Global struct {
	logger *slog.Logger
}

// New creates the no-op registrar.
func New(logger *slog.Logger) *Global {
	return &Global{logger: logger.With("component", "hotkey")}
}

func (g *Global) Register(c chord.Chord, _ func()) error {
	g.logger.Debug("global hotkey not available", "chord", c.String())
	return ErrUnsupported
}

func (g *Global) Unregister() error { return nil }

var _ Registrar = (*Global)(nil)
