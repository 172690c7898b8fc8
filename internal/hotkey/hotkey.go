// Package hotkey registers the toggle chord as an ordinary global hotkey.
// It needs no special privilege and is only used when the input hook could
// not be installed, so the chord keeps working in degraded mode.
package hotkey

import (
	"errors"

	"desklock/internal/chord"
)

var (
	ErrUnsupported    = errors.New("global hotkeys not supported on this platform")
	ErrUnmappedKey    = errors.New("chord key has no native code")
	ErrRegisterFailed = errors.New("global hotkey registration failed")
)

// Registrar holds at most one registered chord.
type Registrar interface {
	// Register replaces any previous registration with c. onPress runs on a
	// library goroutine for every key-down of the chord.
	Register(c chord.Chord, onPress func()) error

	// Unregister releases the current registration. No-op when none is held.
	Unregister() error
}

// modifierOrder is the order modifiers are handed to the OS registration.
var modifierOrder = []chord.Modifiers{chord.ModCtrl, chord.ModShift, chord.ModAlt, chord.ModMeta}

// splitModifiers breaks a modifier set into its single recognized bits.
func splitModifiers(m chord.Modifiers) []chord.Modifiers {
	m = m.Normalize()
	out := make([]chord.Modifiers, 0, len(modifierOrder))
	for _, bit := range modifierOrder {
		if m.Has(bit) {
			out = append(out, bit)
		}
	}
	return out
}
