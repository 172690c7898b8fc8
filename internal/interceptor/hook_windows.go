//go:build windows

package interceptor

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"desklock/internal/chord"
	"desklock/internal/input"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	hcAction     = 0
	pmNoRemove   = 0

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E
)

// Side-specific virtual keys reported by the low-level keyboard hook.
const (
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
	vkLWin     = 0x5B
	vkRWin     = 0x5C
)

var modifierKeys = [...]uint32{vkLShift, vkRShift, vkLControl, vkRControl, vkLMenu, vkRMenu, vkLWin, vkRWin}

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

// The runtime has a fixed number of callback slots, so the two hook
// procedures are created once and shared by every install.
var (
	callbacksOnce    sync.Once
	keyboardCallback uintptr
	mouseCallback    uintptr

	activeHook atomic.Pointer[winHook]
)

// winHook installs WH_KEYBOARD_LL and WH_MOUSE_LL on a dedicated OS thread
// that pumps messages until WM_QUIT.
type winHook struct {
	mu       sync.Mutex
	done     chan struct{}
	threadID uint32

	handler atomic.Pointer[input.Handler]

	// Touched only on the hook thread. Swallowed keys never reach the async
	// key state, so modifiers are tracked from the hook's own events.
	down [256]bool
}

// NewHook returns the low-level Win32 hook adapter.
func NewHook() Hook {
	return &winHook{}
}

func (h *winHook) Install(handler input.Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done != nil {
		return nil
	}
	if !activeHook.CompareAndSwap(nil, h) {
		return fmt.Errorf("%w: another hook is installed in this process", ErrHookInstallFailed)
	}

	callbacksOnce.Do(func() {
		keyboardCallback = windows.NewCallback(keyboardProc)
		mouseCallback = windows.NewCallback(mouseProc)
	})

	h.handler.Store(&handler)
	ready := make(chan error, 1)
	done := make(chan struct{})
	go h.loop(ready, done)

	if err := <-ready; err != nil {
		<-done
		h.handler.Store(nil)
		activeHook.CompareAndSwap(h, nil)
		return err
	}
	h.done = done
	return nil
}

func (h *winHook) loop(ready chan<- error, done chan struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h.threadID = windows.GetCurrentThreadId()
	h.syncModifiers()

	// Force creation of the thread message queue so an early WM_QUIT is not lost.
	var m winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	module, _, _ := procGetModuleHandleW.Call(0)
	kb, _, err := procSetWindowsHookExW.Call(whKeyboardLL, keyboardCallback, module, 0)
	if kb == 0 {
		ready <- fmt.Errorf("%w: keyboard hook: %v", ErrHookInstallFailed, err)
		return
	}
	ms, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseCallback, module, 0)
	if ms == 0 {
		procUnhookWindowsHookEx.Call(kb)
		ready <- fmt.Errorf("%w: mouse hook: %v", ErrHookInstallFailed, err)
		return
	}
	ready <- nil

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(ms)
	procUnhookWindowsHookEx.Call(kb)
}

func (h *winHook) Uninstall() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done == nil {
		return nil
	}
	r, _, err := procPostThreadMessageW.Call(uintptr(h.threadID), wmQuit, 0, 0)
	if r == 0 {
		return fmt.Errorf("post WM_QUIT to hook thread %d: %v", h.threadID, err)
	}
	<-h.done

	h.done = nil
	h.handler.Store(nil)
	activeHook.CompareAndSwap(h, nil)
	return nil
}

// Reenable is a no-op: Windows drops a timed-out low-level hook event
// without disabling the hook.
func (h *winHook) Reenable() {}

// Permitted is always true; low-level hooks need no user grant.
func (h *winHook) Permitted() bool { return true }

func (h *winHook) syncModifiers() {
	h.down = [256]bool{}
	for _, vk := range modifierKeys {
		state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
		h.down[vk] = state&0x8000 != 0
	}
}

func (h *winHook) modifiers() chord.Modifiers {
	var m chord.Modifiers
	if h.down[vkLControl] || h.down[vkRControl] {
		m |= chord.ModCtrl
	}
	if h.down[vkLShift] || h.down[vkRShift] {
		m |= chord.ModShift
	}
	if h.down[vkLMenu] || h.down[vkRMenu] {
		m |= chord.ModAlt
	}
	if h.down[vkLWin] || h.down[vkRWin] {
		m |= chord.ModMeta
	}
	return m
}

func (h *winHook) dispatch(ev input.Event) input.Verdict {
	handler := h.handler.Load()
	if handler == nil {
		return input.Forward
	}
	return (*handler)(ev)
}

func (h *winHook) onKey(msg uintptr, kb *kbdLLHookStruct) input.Verdict {
	vk := kb.VkCode & 0xFF
	ev := input.Event{Key: chord.FromNative(vk), Time: time.Now()}

	switch msg {
	case wmKeyDown, wmSysKeyDown:
		ev.Kind = input.KindKeyDown
		ev.Repeat = h.down[vk]
		h.down[vk] = true
	case wmKeyUp, wmSysKeyUp:
		ev.Kind = input.KindKeyUp
		h.down[vk] = false
	default:
		return input.Forward
	}

	ev.Modifiers = h.modifiers()
	return h.dispatch(ev)
}

func (h *winHook) onMouse(msg uintptr) input.Verdict {
	ev := input.Event{Modifiers: h.modifiers(), Time: time.Now()}

	switch msg {
	case wmMouseMove:
		ev.Kind = input.KindPointerMove
	case wmLButtonDown, wmRButtonDown, wmMButtonDown, wmXButtonDown:
		ev.Kind = input.KindPointerDown
	case wmLButtonUp, wmRButtonUp, wmMButtonUp, wmXButtonUp:
		ev.Kind = input.KindPointerUp
	case wmMouseWheel, wmMouseHWheel:
		ev.Kind = input.KindScroll
	default:
		return input.Forward
	}
	return h.dispatch(ev)
}

func keyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		if h := activeHook.Load(); h != nil {
			kb := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
			if h.onKey(wParam, kb) == input.Swallow {
				return 1
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

func mouseProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		if h := activeHook.Load(); h != nil && h.onMouse(wParam) == input.Swallow {
			return 1
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}
