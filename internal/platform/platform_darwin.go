//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreFoundation
#include <stdlib.h>
#include "cover_darwin.h"
*/
import "C"

import (
	"log/slog"
	"sync"
	"unsafe"
)

// DarwinPlatform implements Platform for macOS. AppKit calls are run on the
// main thread, so the process must be started through mainthread.Init.
type DarwinPlatform struct {
	logger *slog.Logger

	mu         sync.Mutex
	suppressed bool
}

// NewDarwinPlatform creates a new macOS platform implementation
func NewDarwinPlatform(logger *slog.Logger) *DarwinPlatform {
	return &DarwinPlatform{
		logger: logger.With("component", "platform"),
	}
}

// NewSurface creates the cover window, hidden
func (p *DarwinPlatform) NewSurface(opts SurfaceOptions) (Surface, error) {
	return newCoverSurface(opts, p.logger), nil
}

// SuppressAffordances hides the Dock and menu bar and disables app
// switching, Force Quit and logout while the app is active.
func (p *DarwinPlatform) SuppressAffordances() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.suppressed {
		return nil
	}
	C.desklockSetPresentation(1)
	p.suppressed = true
	p.logger.Debug("presentation options applied")
	return nil
}

// RestoreAffordances resets the presentation options
func (p *DarwinPlatform) RestoreAffordances() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.suppressed {
		return nil
	}
	C.desklockSetPresentation(0)
	p.suppressed = false
	p.logger.Debug("presentation options restored")
	return nil
}

// ShowWarningNotification shows a caution notice. It does not wait for the
// user to dismiss it.
func (p *DarwinPlatform) ShowWarningNotification(title, message string) error {
	t := C.CString(title)
	defer C.free(unsafe.Pointer(t))
	m := C.CString(message)
	defer C.free(unsafe.Pointer(m))

	p.logger.Warn("showing warning", "title", title, "message", message)
	C.desklockShowNotice(t, m)
	return nil
}

// NewPlatform creates a new platform implementation for the current OS
func NewPlatform(logger *slog.Logger) Platform {
	return NewDarwinPlatform(logger)
}

// Ensure DarwinPlatform implements Platform
var _ Platform = (*DarwinPlatform)(nil)
