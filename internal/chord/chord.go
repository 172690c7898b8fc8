// Package chord defines the lock toggle key chord, how observed key events are
// compared against it, and an atomically replaceable holder for the active chord.
package chord

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	ErrInvalidChord     = errors.New("invalid chord")
	ErrEmptyChord       = errors.New("empty chord")
	ErrUnknownKey       = errors.New("unknown key")
	ErrUnknownModifier  = errors.New("unknown modifier")
	ErrMissingModifiers = errors.New("chord requires ctrl or meta")
)

// Modifiers is a bit set of modifier state observed on an input event.
// Only the bits in Recognized take part in matching.
type Modifiers uint16

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
	ModMeta

	// Bits below are reported by some hooks but are never part of a chord.
	ModCapsLock
	ModNumLock
	ModFn
)

// Recognized is the set of modifiers a chord may contain.
const Recognized = ModCtrl | ModShift | ModAlt | ModMeta

// Required lists the modifiers of which a chord must hold at least one.
const Required = ModCtrl | ModMeta

// Normalize drops every bit outside Recognized.
func (m Modifiers) Normalize() Modifiers {
	return m & Recognized
}

// Has reports whether all bits of o are set in m.
func (m Modifiers) Has(o Modifiers) bool {
	return m&o == o
}

// String renders the recognized modifiers in display order.
func (m Modifiers) String() string {
	parts := make([]string, 0, 4)
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, metaLabel())
	}
	return strings.Join(parts, "+")
}

func metaLabel() string {
	switch runtime.GOOS {
	case "darwin":
		return "Cmd"
	case "windows":
		return "Win"
	default:
		return "Super"
	}
}

// Chord is a key plus the exact set of recognized modifiers that must be held.
type Chord struct {
	Key       Key
	Modifiers Modifiers
}

// New builds a chord, normalizing the modifier set.
func New(key Key, mods Modifiers) Chord {
	return Chord{Key: key, Modifiers: mods.Normalize()}
}

// Validate checks the minimum-modifier invariant and the key.
func (c Chord) Validate() error {
	if !c.Key.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidChord, ErrUnknownKey)
	}
	if c.Modifiers&^Recognized != 0 {
		return fmt.Errorf("%w: unrecognized modifier bits %#x", ErrInvalidChord, uint16(c.Modifiers&^Recognized))
	}
	if c.Modifiers&Required == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChord, ErrMissingModifiers)
	}
	return nil
}

// Matches reports whether an observed key and modifier state trigger c.
// Observed modifiers are intersected with Recognized before an exact comparison,
// so caps lock and similar latches never break a match while an extra held
// ctrl/shift/alt/meta always does.
func Matches(key Key, mods Modifiers, c Chord) bool {
	if key == KeyUnknown || key != c.Key {
		return false
	}
	return mods.Normalize() == c.Modifiers
}

// String returns a display label such as "Ctrl+Shift+`".
func (c Chord) String() string {
	mods := c.Modifiers.String()
	if mods == "" {
		return c.Key.String()
	}
	return mods + "+" + c.Key.String()
}

// Spec returns the canonical parseable form, e.g. "ctrl+shift+grave".
func (c Chord) Spec() string {
	parts := make([]string, 0, 5)
	if c.Modifiers.Has(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if c.Modifiers.Has(ModAlt) {
		parts = append(parts, "alt")
	}
	if c.Modifiers.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if c.Modifiers.Has(ModMeta) {
		parts = append(parts, "meta")
	}
	parts = append(parts, c.Key.Token())
	return strings.Join(parts, "+")
}

// Parse reads a chord from a "+"-separated string. The last token is the key,
// the rest are modifiers. Parsing does not enforce the modifier invariant;
// callers that install a chord must call Validate.
func Parse(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, ErrEmptyChord
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(strings.ToLower(parts[i]))
	}

	var mods Modifiers
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "ctrl", "control", "ctl":
			mods |= ModCtrl
		case "shift":
			mods |= ModShift
		case "alt", "option", "opt", "menu":
			mods |= ModAlt
		case "meta", "cmd", "command", "win", "super":
			mods |= ModMeta
		default:
			return Chord{}, fmt.Errorf("%w: %q", ErrUnknownModifier, p)
		}
	}

	keyToken := parts[len(parts)-1]
	key, ok := lookupKey(keyToken)
	if !ok {
		return Chord{}, fmt.Errorf("%w: %q", ErrUnknownKey, keyToken)
	}
	return New(key, mods), nil
}

// MustParse is Parse for package-level defaults; it panics on error.
func MustParse(s string) Chord {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultSpec is the out-of-the-box chord for the running OS.
// macOS uses Cmd, everything else Ctrl, both with Shift and the key left of 1.
func DefaultSpec() string {
	if runtime.GOOS == "darwin" {
		return "meta+shift+grave"
	}
	return "ctrl+shift+grave"
}

// Default returns the chord described by DefaultSpec.
func Default() Chord {
	return MustParse(DefaultSpec())
}
