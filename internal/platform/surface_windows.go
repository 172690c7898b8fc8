//go:build windows

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"desklock/config"
	"desklock/internal/chord"
	"desklock/internal/input"
)

var (
	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")
	procDestroyWindow              = user32.NewProc("DestroyWindow")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procSetForegroundWindow        = user32.NewProc("SetForegroundWindow")
	procBringWindowToTop           = user32.NewProc("BringWindowToTop")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")
	procGetSystemMetrics           = user32.NewProc("GetSystemMetrics")
	procBeginPaint                 = user32.NewProc("BeginPaint")
	procEndPaint                   = user32.NewProc("EndPaint")
	procFillRect                   = user32.NewProc("FillRect")
	procDrawTextW                  = user32.NewProc("DrawTextW")
	procInvalidateRect             = user32.NewProc("InvalidateRect")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procGetKeyState                = user32.NewProc("GetKeyState")

	procCreateSolidBrush = gdi32.NewProc("CreateSolidBrush")
	procCreateFontW      = gdi32.NewProc("CreateFontW")
	procSelectObject     = gdi32.NewProc("SelectObject")
	procDeleteObject     = gdi32.NewProc("DeleteObject")
	procSetTextColor     = gdi32.NewProc("SetTextColor")
	procSetBkMode        = gdi32.NewProc("SetBkMode")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
)

const (
	wsPopup        = 0x80000000
	wsExTopmost    = 0x00000008
	wsExToolWindow = 0x00000080
	wsExLayered    = 0x00080000

	wmDestroy    = 0x0002
	wmClose      = 0x0010
	wmPaint      = 0x000F
	wmEraseBkgnd = 0x0014
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmSysCommand = 0x0112
	wmMouseFirst = 0x0200
	wmMouseLast  = 0x020E

	scClose = 0xF060

	smCXScreen = 0
	smCYScreen = 1

	lwaAlpha = 0x2

	swpNoSize = 0x0001
	swpNoMove = 0x0002

	dtCenter     = 0x0001
	dtVCenter    = 0x0004
	dtSingleLine = 0x0020

	fwBold           = 700
	fwNormal         = 400
	defaultCharset   = 1
	clearTypeQuality = 5
	bkTransparent    = 1

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C
	vkCapital = 0x14
	vkNumLock = 0x90
)

const coverClassName = "DeskLockCover"

// hwndTopmost is HWND_TOPMOST, (HWND)-1.
var hwndTopmost = ^uintptr(0)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type paintStruct struct {
	Hdc       uintptr
	Erase     int32
	RcPaint   rect
	Restore   int32
	IncUpdate int32
	Reserved  [32]byte
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

var (
	classOnce sync.Once
	classErr  error

	// surfaces maps a window handle to its cover for the shared window procedure.
	surfaces sync.Map
)

func registerCoverClass() error {
	classOnce.Do(func() {
		name, err := windows.UTF16PtrFromString(coverClassName)
		if err != nil {
			classErr = err
			return
		}
		instance, _, _ := procGetModuleHandleW.Call(0)
		wc := wndClassEx{
			WndProc:   windows.NewCallback(coverWndProc),
			Instance:  instance,
			ClassName: name,
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
			classErr = fmt.Errorf("register cover window class: %v", err)
		}
	})
	return classErr
}

// winSurface is a borderless layered topmost popup covering the primary
// display. All window messages are processed on its own locked OS thread.
type winSurface struct {
	logger *slog.Logger
	filter input.Handler

	hwnd    uintptr
	done    chan struct{}
	closing atomic.Bool

	mu         sync.Mutex
	appearance config.Appearance
}

func newWinSurface(opts SurfaceOptions, logger *slog.Logger) (*winSurface, error) {
	if err := registerCoverClass(); err != nil {
		return nil, err
	}

	s := &winSurface{
		logger:     logger.With("component", "cover"),
		filter:     opts.Filter,
		appearance: opts.Appearance,
		done:       make(chan struct{}),
	}

	ready := make(chan error, 1)
	go s.run(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *winSurface) run(ready chan<- error) {
	defer close(s.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	class, _ := windows.UTF16PtrFromString(coverClassName)
	title, _ := windows.UTF16PtrFromString("DeskLock")
	instance, _, _ := procGetModuleHandleW.Call(0)
	width, _, _ := procGetSystemMetrics.Call(smCXScreen)
	height, _, _ := procGetSystemMetrics.Call(smCYScreen)

	hwnd, _, err := procCreateWindowExW.Call(
		wsExTopmost|wsExLayered|wsExToolWindow,
		uintptr(unsafe.Pointer(class)),
		uintptr(unsafe.Pointer(title)),
		wsPopup,
		0, 0, width, height,
		0, 0, instance, 0,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("create cover window: %v", err)
		return
	}
	procSetLayeredWindowAttributes.Call(hwnd, 0, 0, lwaAlpha)

	s.hwnd = hwnd
	surfaces.Store(hwnd, s)
	defer surfaces.Delete(hwnd)

	s.logger.Debug("cover window created", "width", width, "height", height)
	ready <- nil

	var m winMsg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (s *winSurface) setAlpha(a uint8) {
	procSetLayeredWindowAttributes.Call(s.hwnd, 0, uintptr(a), lwaAlpha)
}

// Show makes the cover visible and fades it in.
func (s *winSurface) Show(fade time.Duration) error {
	if s.closing.Load() {
		return ErrSurfaceClosed
	}

	s.setAlpha(0)
	procShowWindow.Call(s.hwnd, swShow)
	s.Reassert()

	if n := fadeSteps(fade); n > 0 {
		step := fade / time.Duration(n)
		for i := 1; i <= n; i++ {
			s.setAlpha(uint8(255 * i / n))
			time.Sleep(step)
		}
	}
	s.setAlpha(255)
	return nil
}

// Hide fades the cover out and hides it. The window is kept for reuse.
func (s *winSurface) Hide(fade time.Duration) error {
	if s.closing.Load() {
		return ErrSurfaceClosed
	}

	if n := fadeSteps(fade); n > 0 {
		step := fade / time.Duration(n)
		for i := n - 1; i >= 0; i-- {
			s.setAlpha(uint8(255 * i / n))
			time.Sleep(step)
		}
	}
	procShowWindow.Call(s.hwnd, swHide)
	return nil
}

// Reassert puts the cover back on top of the z-order and asks for the
// foreground. SetForegroundWindow may be refused by the OS; the topmost
// position is what keeps other windows from covering it.
func (s *winSurface) Reassert() error {
	if s.closing.Load() {
		return ErrSurfaceClosed
	}
	r, _, err := procSetWindowPos.Call(s.hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize)
	if r == 0 {
		return fmt.Errorf("SetWindowPos: %v", err)
	}
	procBringWindowToTop.Call(s.hwnd)
	procSetForegroundWindow.Call(s.hwnd)
	return nil
}

// Update stores the appearance and repaints.
func (s *winSurface) Update(appearance config.Appearance) error {
	if s.closing.Load() {
		return ErrSurfaceClosed
	}
	s.mu.Lock()
	s.appearance = appearance
	s.mu.Unlock()
	procInvalidateRect.Call(s.hwnd, 0, 1)
	return nil
}

// Close destroys the window and waits for its thread to exit.
func (s *winSurface) Close() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	r, _, err := procPostMessageW.Call(s.hwnd, wmClose, 0, 0)
	if r == 0 {
		return fmt.Errorf("post WM_CLOSE to cover: %v", err)
	}
	<-s.done
	s.logger.Debug("cover window destroyed")
	return nil
}

func (s *winSurface) currentAppearance() config.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appearance
}

func (s *winSurface) paint(hwnd uintptr) {
	var ps paintStruct
	hdc, _, _ := procBeginPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
	defer procEndPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))

	a := s.currentAppearance()
	var rc rect
	procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc)))

	brush, _, _ := procCreateSolidBrush.Call(colorRef(ColorOr(a.BackgroundColor, defaultBackground)))
	procFillRect.Call(hdc, uintptr(unsafe.Pointer(&rc)), brush)
	procDeleteObject.Call(brush)

	procSetBkMode.Call(hdc, bkTransparent)
	procSetTextColor.Call(hdc, colorRef(ColorOr(a.TextColor, defaultText)))

	size := a.FontSize
	if size <= 0 {
		size = 72
	}
	drawText(hdc, a.LockText, size, fwBold, rc)

	if a.SubtitleText != "" {
		sub := rc
		sub.Top = rc.Top + (rc.Bottom-rc.Top)/2 + int32(size)
		sub.Bottom = sub.Top + int32(size)
		drawText(hdc, a.SubtitleText, size/3, fwNormal, sub)
	}
}

func drawText(hdc uintptr, text string, size, weight int, rc rect) {
	if text == "" {
		return
	}
	face, _ := windows.UTF16PtrFromString("Segoe UI")
	str, err := windows.UTF16FromString(text)
	if err != nil {
		return
	}

	font, _, _ := procCreateFontW.Call(
		uintptr(-int32(size)), 0, 0, 0, uintptr(weight),
		0, 0, 0, defaultCharset, 0, 0, clearTypeQuality, 0,
		uintptr(unsafe.Pointer(face)),
	)
	old, _, _ := procSelectObject.Call(hdc, font)
	procDrawTextW.Call(hdc, uintptr(unsafe.Pointer(&str[0])), uintptr(len(str)-1),
		uintptr(unsafe.Pointer(&rc)), dtCenter|dtVCenter|dtSingleLine)
	procSelectObject.Call(hdc, old)
	procDeleteObject.Call(font)
}

func colorRef(c RGB) uintptr {
	return uintptr(c.R) | uintptr(c.G)<<8 | uintptr(c.B)<<16
}

func keyDown(vk uintptr) bool {
	r, _, _ := procGetKeyState.Call(vk)
	return r&0x8000 != 0
}

func toggled(vk uintptr) bool {
	r, _, _ := procGetKeyState.Call(vk)
	return r&1 != 0
}

// localModifiers reads the modifier state seen by the cover's own thread.
func localModifiers() chord.Modifiers {
	var m chord.Modifiers
	if keyDown(vkControl) {
		m |= chord.ModCtrl
	}
	if keyDown(vkShift) {
		m |= chord.ModShift
	}
	if keyDown(vkMenu) {
		m |= chord.ModAlt
	}
	if keyDown(vkLWin) || keyDown(vkRWin) {
		m |= chord.ModMeta
	}
	if toggled(vkCapital) {
		m |= chord.ModCapsLock
	}
	if toggled(vkNumLock) {
		m |= chord.ModNumLock
	}
	return m
}

func (s *winSurface) filterKey(msg, wParam, lParam uintptr) input.Verdict {
	if s.filter == nil {
		return input.Forward
	}
	ev := input.Event{
		Key:       chord.FromNative(uint32(wParam) & 0xFF),
		Modifiers: localModifiers(),
		Time:      time.Now(),
	}
	switch msg {
	case wmKeyDown, wmSysKeyDown:
		ev.Kind = input.KindKeyDown
		ev.Repeat = lParam&(1<<30) != 0
	default:
		ev.Kind = input.KindKeyUp
	}
	return s.filter(ev)
}

func coverWndProc(hwnd, msg, wParam, lParam uintptr) uintptr {
	v, ok := surfaces.Load(hwnd)
	if !ok {
		r, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
		return r
	}
	s := v.(*winSurface)

	switch msg {
	case wmKeyDown, wmKeyUp, wmSysKeyDown, wmSysKeyUp:
		if s.filterKey(msg, wParam, lParam) == input.Swallow {
			return 0
		}
	case wmPaint:
		s.paint(hwnd)
		return 0
	case wmEraseBkgnd:
		return 1
	case wmSysCommand:
		if wParam&0xFFF0 == scClose && !s.closing.Load() {
			return 0
		}
	case wmClose:
		if s.closing.Load() {
			procDestroyWindow.Call(hwnd)
		}
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}

	if msg >= wmMouseFirst && msg <= wmMouseLast {
		return 0
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
	return r
}

// Ensure winSurface implements Surface
var _ Surface = (*winSurface)(nil)
