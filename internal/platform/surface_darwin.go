//go:build darwin

package platform

/*
#include <stdlib.h>
#include "cover_darwin.h"
*/
import "C"

import (
	"log/slog"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"desklock/config"
	"desklock/internal/input"
)

// coverSurface is a borderless NSWindow at the shielding window level.
// Every AppKit call is forwarded to the main thread.
type coverSurface struct {
	logger *slog.Logger
	filter input.Handler
	handle cgo.Handle

	mu         sync.Mutex
	cover      *C.desklockCover
	appearance config.Appearance
	visible    bool
}

func newCoverSurface(opts SurfaceOptions, logger *slog.Logger) *coverSurface {
	s := &coverSurface{
		logger:     logger.With("component", "cover"),
		filter:     opts.Filter,
		appearance: opts.Appearance,
	}
	s.handle = cgo.NewHandle(s)

	style, free := coverStyle(opts.Appearance)
	defer free()
	s.cover = C.desklockCoverCreate(C.uintptr_t(s.handle), style)
	return s
}

func (s *coverSurface) Show(fade time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cover == nil {
		return ErrSurfaceClosed
	}
	C.desklockCoverShow(s.cover, C.double(fade.Seconds()))
	s.visible = true
	return nil
}

func (s *coverSurface) Hide(fade time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cover == nil {
		return ErrSurfaceClosed
	}
	C.desklockCoverHide(s.cover, C.double(fade.Seconds()))
	s.visible = false
	return nil
}

// Reassert activates the app and orders the cover front again, undoing
// whatever another process did since the last tick.
func (s *coverSurface) Reassert() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cover == nil {
		return ErrSurfaceClosed
	}
	if s.visible {
		C.desklockCoverReassert(s.cover)
	}
	return nil
}

func (s *coverSurface) Update(appearance config.Appearance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cover == nil {
		return ErrSurfaceClosed
	}
	s.appearance = appearance
	style, free := coverStyle(appearance)
	defer free()
	C.desklockCoverUpdate(s.cover, style)
	return nil
}

func (s *coverSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cover == nil {
		return nil
	}
	C.desklockCoverDestroy(s.cover)
	s.cover = nil
	s.visible = false
	s.handle.Delete()
	s.logger.Debug("cover window destroyed")
	return nil
}

// coverStyle converts an appearance for the C side. The returned func frees
// the C strings and must run after the call that consumes the style.
func coverStyle(a config.Appearance) (C.desklockCoverStyle, func()) {
	bg := ColorOr(a.BackgroundColor, defaultBackground)
	fg := ColorOr(a.TextColor, defaultText)

	var style C.desklockCoverStyle
	style.bg = [3]C.double{unit(bg.R), unit(bg.G), unit(bg.B)}
	style.fg = [3]C.double{unit(fg.R), unit(fg.G), unit(fg.B)}
	style.fontSize = C.double(fontSizeOr(a.FontSize))
	style.text = C.CString(a.LockText)
	style.subtitle = C.CString(a.SubtitleText)

	return style, func() {
		C.free(unsafe.Pointer(style.text))
		C.free(unsafe.Pointer(style.subtitle))
	}
}

func unit(v uint8) C.double {
	return C.double(float64(v) / 255)
}

//export desklockCoverKey
func desklockCoverKey(handle C.uintptr_t, kind C.int, keycode C.int, flags C.uint64_t, repeat C.int) C.int {
	s, ok := cgo.Handle(handle).Value().(*coverSurface)
	if !ok || s.filter == nil {
		return 0
	}
	ev, ok := coverEvent(int(kind), uint16(keycode), uint64(flags), repeat != 0)
	if !ok {
		return 0
	}
	if s.filter(ev) == input.Swallow {
		return 1
	}
	return 0
}

// Ensure coverSurface implements Surface
var _ Surface = (*coverSurface)(nil)
