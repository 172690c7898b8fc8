//go:build darwin

package interceptor

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include "tap_darwin.h"
*/
import "C"

import (
	"fmt"
	"runtime"
	"runtime/cgo"
	"sync"
	"sync/atomic"
	"time"

	"desklock/internal/chord"
	"desklock/internal/input"
)

// CGEventType values delivered to the tap.
const (
	cgEventLeftMouseDown     = 1
	cgEventLeftMouseUp       = 2
	cgEventRightMouseDown    = 3
	cgEventRightMouseUp      = 4
	cgEventMouseMoved        = 5
	cgEventLeftMouseDragged  = 6
	cgEventRightMouseDragged = 7
	cgEventKeyDown           = 10
	cgEventKeyUp             = 11
	cgEventFlagsChanged      = 12
	cgEventScrollWheel       = 22
	cgEventOtherMouseDown    = 25
	cgEventOtherMouseUp      = 26
	cgEventOtherMouseDragged = 27

	cgEventTapDisabledByTimeout   = 0xFFFFFFFE
	cgEventTapDisabledByUserInput = 0xFFFFFFFF
)

// CGEventFlags bits.
const (
	cgFlagAlphaShift  = 0x00010000
	cgFlagShift       = 0x00020000
	cgFlagControl     = 0x00040000
	cgFlagAlternate   = 0x00080000
	cgFlagCommand     = 0x00100000
	cgFlagSecondaryFn = 0x00800000
)

// tapHook is a session-level CGEventTap serviced by a run loop on a
// dedicated OS thread. Requires the Accessibility permission.
type tapHook struct {
	mu     sync.Mutex
	done   chan struct{}
	handle cgo.Handle

	handler atomic.Pointer[input.Handler]
	tap     atomic.Pointer[C.desklockTap]
}

// NewHook returns the CGEventTap adapter.
func NewHook() Hook {
	return &tapHook{}
}

func (h *tapHook) Install(handler input.Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done != nil {
		return nil
	}

	h.handler.Store(&handler)
	h.handle = cgo.NewHandle(h)
	ready := make(chan error, 1)
	done := make(chan struct{})
	go h.loop(ready, done)

	if err := <-ready; err != nil {
		<-done
		h.handle.Delete()
		h.handler.Store(nil)
		return err
	}
	h.done = done
	return nil
}

func (h *tapHook) loop(ready chan<- error, done chan struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var status C.int
	tap := C.desklockTapCreate(C.uintptr_t(h.handle), &status)
	if tap == nil {
		if status == C.DESKLOCK_TAP_DENIED {
			ready <- fmt.Errorf("%w: accessibility access not granted", ErrPermissionDenied)
		} else {
			ready <- fmt.Errorf("%w: CGEventTapCreate failed", ErrHookInstallFailed)
		}
		return
	}

	h.tap.Store(tap)
	ready <- nil

	C.desklockTapRun(tap)

	h.tap.Store(nil)
	C.desklockTapDestroy(tap)
}

func (h *tapHook) Uninstall() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done == nil {
		return nil
	}
	if tap := h.tap.Load(); tap != nil {
		C.desklockTapStop(tap)
	}
	<-h.done

	h.done = nil
	h.handle.Delete()
	h.handler.Store(nil)
	return nil
}

// Reenable switches the tap back on after the window server disabled it.
func (h *tapHook) Reenable() {
	if tap := h.tap.Load(); tap != nil {
		C.desklockTapEnable(tap)
	}
}

func (h *tapHook) Permitted() bool {
	return C.desklockAXTrusted(0) != 0
}

// RequestPermission shows the system Accessibility prompt when the process
// is not yet trusted.
func (h *tapHook) RequestPermission() bool {
	return C.desklockAXTrusted(1) != 0
}

func (h *tapHook) dispatch(ev input.Event) input.Verdict {
	handler := h.handler.Load()
	if handler == nil {
		return input.Forward
	}
	return (*handler)(ev)
}

//export desklockHandleEvent
func desklockHandleEvent(handle C.uintptr_t, typ C.uint32_t, keycode C.int64_t, flags C.uint64_t, repeat C.int) C.int {
	h, ok := cgo.Handle(handle).Value().(*tapHook)
	if !ok {
		return 0
	}
	ev, ok := tapEvent(uint32(typ), int64(keycode), uint64(flags), repeat != 0)
	if !ok {
		return 0
	}
	if h.dispatch(ev) == input.Swallow {
		return 1
	}
	return 0
}

// tapEvent converts the scalar fields of a CGEvent.
func tapEvent(typ uint32, keycode int64, flags uint64, repeat bool) (input.Event, bool) {
	ev := input.Event{Modifiers: tapModifiers(flags), Time: time.Now()}

	switch typ {
	case cgEventKeyDown:
		ev.Kind = input.KindKeyDown
		ev.Repeat = repeat
	case cgEventKeyUp:
		ev.Kind = input.KindKeyUp
	case cgEventFlagsChanged:
		ev.Kind = input.KindFlagsChanged
	case cgEventMouseMoved, cgEventLeftMouseDragged, cgEventRightMouseDragged, cgEventOtherMouseDragged:
		ev.Kind = input.KindPointerMove
	case cgEventLeftMouseDown, cgEventRightMouseDown, cgEventOtherMouseDown:
		ev.Kind = input.KindPointerDown
	case cgEventLeftMouseUp, cgEventRightMouseUp, cgEventOtherMouseUp:
		ev.Kind = input.KindPointerUp
	case cgEventScrollWheel:
		ev.Kind = input.KindScroll
	case cgEventTapDisabledByTimeout, cgEventTapDisabledByUserInput:
		return input.Event{Kind: input.KindHookDisabled, Time: ev.Time}, true
	default:
		return input.Event{}, false
	}

	if ev.Kind.IsKeyboard() && keycode >= 0 {
		ev.Key = chord.FromNative(uint32(keycode))
	}
	return ev, true
}

func tapModifiers(flags uint64) chord.Modifiers {
	var m chord.Modifiers
	if flags&cgFlagControl != 0 {
		m |= chord.ModCtrl
	}
	if flags&cgFlagShift != 0 {
		m |= chord.ModShift
	}
	if flags&cgFlagAlternate != 0 {
		m |= chord.ModAlt
	}
	if flags&cgFlagCommand != 0 {
		m |= chord.ModMeta
	}
	if flags&cgFlagAlphaShift != 0 {
		m |= chord.ModCapsLock
	}
	if flags&cgFlagSecondaryFn != 0 {
		m |= chord.ModFn
	}
	return m
}
