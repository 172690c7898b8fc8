//go:build darwin

package platform

import (
	"time"

	"desklock/internal/chord"
	"desklock/internal/input"
)

// Event kinds posted by the cover window, matching cover_darwin.h.
const (
	coverKeyDown      = 1
	coverKeyUp        = 2
	coverFlagsChanged = 3
)

// NSEventModifierFlags bits.
const (
	nsFlagCapsLock = 1 << 16
	nsFlagShift    = 1 << 17
	nsFlagControl  = 1 << 18
	nsFlagOption   = 1 << 19
	nsFlagCommand  = 1 << 20
	nsFlagFunction = 1 << 23
)

const defaultFontSize = 48

// coverEvent converts a key event the cover window received.
func coverEvent(kind int, keycode uint16, flags uint64, repeat bool) (input.Event, bool) {
	ev := input.Event{
		Key:       chord.FromNative(uint32(keycode)),
		Modifiers: cocoaModifiers(flags),
		Time:      time.Now(),
	}
	switch kind {
	case coverKeyDown:
		ev.Kind = input.KindKeyDown
		ev.Repeat = repeat
	case coverKeyUp:
		ev.Kind = input.KindKeyUp
	case coverFlagsChanged:
		ev.Kind = input.KindFlagsChanged
	default:
		return input.Event{}, false
	}
	return ev, true
}

func cocoaModifiers(flags uint64) chord.Modifiers {
	var m chord.Modifiers
	if flags&nsFlagControl != 0 {
		m |= chord.ModCtrl
	}
	if flags&nsFlagShift != 0 {
		m |= chord.ModShift
	}
	if flags&nsFlagOption != 0 {
		m |= chord.ModAlt
	}
	if flags&nsFlagCommand != 0 {
		m |= chord.ModMeta
	}
	if flags&nsFlagCapsLock != 0 {
		m |= chord.ModCapsLock
	}
	if flags&nsFlagFunction != 0 {
		m |= chord.ModFn
	}
	return m
}

func fontSizeOr(size int) int {
	if size <= 0 {
		return defaultFontSize
	}
	return size
}
