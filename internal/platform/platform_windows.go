//go:build windows

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procFindWindowW = user32.NewProc("FindWindowW")
	procShowWindow  = user32.NewProc("ShowWindow")
	procMessageBoxW = user32.NewProc("MessageBoxW")
)

const (
	swHide = 0
	swShow = 5

	mbOK            = 0x00000000
	mbIconWarning   = 0x00000030
	mbSetForeground = 0x00010000
	mbTopmost       = 0x00040000
)

var ErrTaskbarNotFound = errors.New("taskbar window not found")

// trayClasses are the primary and secondary-monitor taskbar window classes.
var trayClasses = []string{"Shell_TrayWnd", "Shell_SecondaryTrayWnd"}

// WindowsPlatform implements Platform for Windows
type WindowsPlatform struct {
	logger *slog.Logger

	mu     sync.Mutex
	hidden []uintptr
}

// NewWindowsPlatform creates a new Windows platform implementation
func NewWindowsPlatform(logger *slog.Logger) *WindowsPlatform {
	return &WindowsPlatform{
		logger: logger.With("component", "platform"),
	}
}

// NewSurface creates the layered topmost cover window on its own UI thread
func (p *WindowsPlatform) NewSurface(opts SurfaceOptions) (Surface, error) {
	return newWinSurface(opts, p.logger)
}

// SuppressAffordances hides the taskbars. Key combinations such as Alt+Tab
// and the Windows key are already swallowed by the input hook.
func (p *WindowsPlatform) SuppressAffordances() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.hidden) > 0 {
		return nil
	}
	for _, class := range trayClasses {
		name, err := windows.UTF16PtrFromString(class)
		if err != nil {
			return err
		}
		hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(name)), 0)
		if hwnd == 0 {
			continue
		}
		procShowWindow.Call(hwnd, swHide)
		p.hidden = append(p.hidden, hwnd)
	}

	if len(p.hidden) == 0 {
		p.logger.Warn("failed to hide taskbar", "error", ErrTaskbarNotFound)
		return fmt.Errorf("suppress affordances: %w", ErrTaskbarNotFound)
	}
	p.logger.Debug("taskbar hidden", "windows", len(p.hidden))
	return nil
}

// RestoreAffordances shows every taskbar hidden by SuppressAffordances
func (p *WindowsPlatform) RestoreAffordances() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, hwnd := range p.hidden {
		procShowWindow.Call(hwnd, swShow)
	}
	if len(p.hidden) > 0 {
		p.logger.Debug("taskbar restored", "windows", len(p.hidden))
	}
	p.hidden = nil
	return nil
}

// ShowWarningNotification shows a topmost message box on a separate goroutine
// so the caller never waits for the user.
func (p *WindowsPlatform) ShowWarningNotification(title, message string) error {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}

	p.logger.Warn("showing warning", "title", title, "message", message)
	go func() {
		procMessageBoxW.Call(0, uintptr(unsafe.Pointer(m)), uintptr(unsafe.Pointer(t)),
			mbOK|mbIconWarning|mbSetForeground|mbTopmost)
	}()
	return nil
}

// NewPlatform creates a new platform implementation for the current OS
func NewPlatform(logger *slog.Logger) Platform {
	return NewWindowsPlatform(logger)
}

// Ensure WindowsPlatform implements Platform
var _ Platform = (*WindowsPlatform)(nil)
