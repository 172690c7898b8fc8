package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"desklock/internal/engine"
	"desklock/internal/lockstate"
)

// ControllerLogger wraps an engine.Controller and logs all method calls
type ControllerLogger struct {
	controller engine.Controller
	logger     *slog.Logger
}

// NewControllerLogger creates a new logging decorator for a Controller
func NewControllerLogger(controller engine.Controller, logger *slog.Logger) engine.Controller {
	return &ControllerLogger{
		controller: controller,
		logger:     logger.With("interface", "Controller"),
	}
}

func (l *ControllerLogger) Toggle(ctx context.Context, source string) error {
	return l.call(ctx, "Toggle", source, l.controller.Toggle)
}

func (l *ControllerLogger) Lock(ctx context.Context, source string) error {
	return l.call(ctx, "Lock", source, l.controller.Lock)
}

func (l *ControllerLogger) Unlock(ctx context.Context, source string) error {
	return l.call(ctx, "Unlock", source, l.controller.Unlock)
}

func (l *ControllerLogger) call(ctx context.Context, method, source string, fn func(context.Context, string) error) error {
	start := time.Now()
	l.logger.Info(method+" called",
		"source", source,
		"locked", l.controller.IsLocked())

	err := fn(ctx, source)
	duration := time.Since(start)

	if errors.Is(err, lockstate.ErrCoalesced) {
		l.logger.Info(method+" coalesced",
			"source", source,
			"locked", l.controller.IsLocked(),
			"duration", duration)
		return err
	}
	if err != nil {
		l.logger.Error(method+" failed",
			"source", source,
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info(method+" completed",
		"source", source,
		"locked", l.controller.IsLocked(),
		"duration", duration)

	return nil
}

func (l *ControllerLogger) IsLocked() bool {
	return l.controller.IsLocked()
}

func (l *ControllerLogger) Status() engine.Status {
	start := time.Now()
	l.logger.Debug("Status called")

	status := l.controller.Status()

	l.logger.Debug("Status completed",
		"locked", status.Locked,
		"degraded", status.Degraded,
		"duration", time.Since(start))

	return status
}
