// Package platform provides the cover surface and the OS affordance controls
// the lock state machine drives.
package platform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"desklock/config"
	"desklock/internal/input"
)

var (
	ErrSurfaceClosed = errors.New("cover surface closed")
	ErrInvalidColor  = errors.New("invalid color")
)

// Platform abstracts OS-specific operations for the lock.
// This allows testing the state machine with mock implementations.
type Platform interface {
	// NewSurface creates the full-screen cover, hidden.
	NewSurface(opts SurfaceOptions) (Surface, error)

	// SuppressAffordances hides or disables app switching, task bars and
	// similar OS UI to the extent the platform allows.
	SuppressAffordances() error

	// RestoreAffordances undoes SuppressAffordances.
	RestoreAffordances() error

	// ShowWarningNotification displays a visible warning without blocking.
	ShowWarningNotification(title, message string) error
}

// Surface is the full-screen cover shown while locked. It is hidden, not
// destroyed, between lock cycles.
type Surface interface {
	Show(fade time.Duration) error
	Hide(fade time.Duration) error

	// Reassert re-claims topmost and key-input status.
	Reassert() error

	// Update replaces the appearance used on the next paint.
	Update(appearance config.Appearance) error

	Close() error
}

// SurfaceOptions configures a new cover.
type SurfaceOptions struct {
	Appearance config.Appearance

	// Filter receives key events delivered to the cover itself. A Swallow
	// verdict stops default window handling.
	Filter input.Handler
}

var (
	defaultBackground = RGB{R: 0x0D, G: 0x0D, B: 0x1F}
	defaultText       = RGB{R: 0xFF, G: 0xFF, B: 0xFF}
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// ParseColor reads "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ColorOr parses s and falls back to def when it is not a valid color.
func ColorOr(s string, def RGB) RGB {
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return c
}

// fadeSteps splits a fade into frames of roughly 15ms.
func fadeSteps(d time.Duration) int {
	const frame = 15 * time.Millisecond
	if d <= 0 {
		return 0
	}
	n := int(d / frame)
	if n < 1 {
		n = 1
	}
	return n
}
