//go:build !windows && !darwin

package platform

import (
	"log/slog"
	"sync"
	"time"

	"desklock/config"
)

// logSurface is a headless cover used where no native window exists.
// It tracks visibility and logs every call.
type logSurface struct {
	mu         sync.Mutex
	logger     *slog.Logger
	appearance config.Appearance
	visible    bool
	closed     bool
}

func newLogSurface(opts SurfaceOptions, logger *slog.Logger) *logSurface {
	return &logSurface{
		logger:     logger.With("component", "cover"),
		appearance: opts.Appearance,
	}
}

func (s *logSurface) Show(fade time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.visible = true
	s.logger.Warn("COVER_SHOW",
		"lock_text", s.appearance.LockText,
		"fade", fade,
		"frames", fadeSteps(fade),
		"note", "headless cover, nothing is drawn",
	)
	return nil
}

func (s *logSurface) Hide(fade time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.visible = false
	s.logger.Warn("COVER_HIDE", "fade", fade, "frames", fadeSteps(fade))
	return nil
}

func (s *logSurface) Reassert() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.logger.Debug("COVER_REASSERT", "visible", s.visible)
	return nil
}

func (s *logSurface) Update(appearance config.Appearance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.appearance = appearance
	return nil
}

func (s *logSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.visible = false
	return nil
}

// Ensure logSurface implements Surface
var _ Surface = (*logSurface)(nil)
