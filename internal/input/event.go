// Package input describes a single observed input event and the verdict a
// filter returns for it.
package input

import (
	"time"

	"desklock/internal/chord"
)

// Kind classifies an observed event.
type Kind uint8

const (
	KindKeyDown Kind = iota + 1
	KindKeyUp
	KindFlagsChanged
	KindPointerMove
	KindPointerDown
	KindPointerUp
	KindScroll

	// KindHookDisabled is delivered by hosts that switch a hook off after a
	// slow callback. It carries no key data.
	KindHookDisabled
)

func (k Kind) String() string {
	switch k {
	case KindKeyDown:
		return "key_down"
	case KindKeyUp:
		return "key_up"
	case KindFlagsChanged:
		return "flags_changed"
	case KindPointerMove:
		return "pointer_move"
	case KindPointerDown:
		return "pointer_down"
	case KindPointerUp:
		return "pointer_up"
	case KindScroll:
		return "scroll"
	case KindHookDisabled:
		return "hook_disabled"
	default:
		return "unknown"
	}
}

// IsKeyboard reports whether the kind carries key data.
func (k Kind) IsKeyboard() bool {
	return k == KindKeyDown || k == KindKeyUp || k == KindFlagsChanged
}

// Event is one observed input event. It lives only for the duration of the
// callback that produced it and is passed by value.
type Event struct {
	Kind      Kind
	Key       chord.Key
	Modifiers chord.Modifiers
	Repeat    bool
	Time      time.Time
}

// Verdict is the decision for a single event.
type Verdict uint8

const (
	Forward Verdict = iota
	Swallow
)

func (v Verdict) String() string {
	if v == Swallow {
		return "swallow"
	}
	return "forward"
}

// Handler decides the fate of one event. Implementations run inside OS hook
// callbacks and must not block.
type Handler func(Event) Verdict
