//go:build !windows && !darwin

package interceptor

import (
	"fmt"

	"desklock/internal/input"
)

// stubHook is used where no privileged hook adapter exists. The engine falls
// back to degraded mode on the Install error.
type stubHook struct{}

// NewHook returns the input hook for the current OS.
func NewHook() Hook {
	return stubHook{}
}

func (stubHook) Install(input.Handler) error {
	return fmt.Errorf("%w: %w", ErrHookInstallFailed, ErrUnsupported)
}

func (stubHook) Uninstall() error { return nil }

func (stubHook) Reenable() {}

func (stubHook) Permitted() bool { return false }
