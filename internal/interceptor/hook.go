package interceptor

import (
	"errors"

	"desklock/internal/input"
)

var (
	// ErrPermissionDenied means an OS privacy control blocked the hook.
	ErrPermissionDenied = errors.New("input hook permission denied")
	// ErrHookInstallFailed covers registration failures unrelated to permission.
	ErrHookInstallFailed = errors.New("input hook install failed")
	// ErrUnsupported is wrapped by ErrHookInstallFailed on platforms without an adapter.
	ErrUnsupported = errors.New("input hook not supported on this platform")
)

// Hook is the process-wide input interception point of one platform.
// Implementations own exactly one OS registration at a time; Install while
// installed is a no-op and every Uninstall releases what Install acquired.
type Hook interface {
	// Install registers the hook and routes every delivered event to h.
	// h runs on the OS callback thread.
	Install(h input.Handler) error

	// Uninstall releases the OS registration. It is a no-op when not installed.
	Uninstall() error

	// Reenable switches delivery back on after the host disabled the hook.
	// Called from inside the callback; must not block.
	Reenable()

	// Permitted reports whether the process currently holds the privilege
	// Install needs.
	Permitted() bool
}

// PermissionRequester is implemented by hooks whose platform can show a
// system prompt asking the user to grant the hook privilege.
type PermissionRequester interface {
	RequestPermission() bool
}
