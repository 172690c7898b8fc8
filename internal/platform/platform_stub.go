//go:build !windows && !darwin

package platform

import (
	"errors"
	"log/slog"
)

var ErrNoAffordanceControl = errors.New("OS affordance control is not supported on this platform")

// StubPlatform implements Platform where no native cover exists.
// The cover is headless; affordance calls report ErrNoAffordanceControl.
type StubPlatform struct {
	logger *slog.Logger
}

// NewStubPlatform creates a new stub platform implementation
func NewStubPlatform(logger *slog.Logger) *StubPlatform {
	return &StubPlatform{
		logger: logger.With("component", "platform-stub"),
	}
}

// NewSurface returns a headless cover
func (p *StubPlatform) NewSurface(opts SurfaceOptions) (Surface, error) {
	return newLogSurface(opts, p.logger), nil
}

// SuppressAffordances logs the attempt and returns ErrNoAffordanceControl
func (p *StubPlatform) SuppressAffordances() error {
	p.logger.Warn("SuppressAffordances called on unsupported platform")
	return ErrNoAffordanceControl
}

// RestoreAffordances is a no-op
func (p *StubPlatform) RestoreAffordances() error {
	return nil
}

// ShowWarningNotification logs the notification
func (p *StubPlatform) ShowWarningNotification(title, message string) error {
	p.logger.Warn("WARNING_NOTIFICATION",
		"title", title,
		"message", message,
	)
	return nil
}

// NewPlatform creates a new platform implementation for the current OS
func NewPlatform(logger *slog.Logger) Platform {
	return NewStubPlatform(logger)
}

// Ensure StubPlatform implements Platform
var _ Platform = (*StubPlatform)(nil)
