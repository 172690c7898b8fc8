package storage

import (
	"context"
	"log/slog"
	"time"

	"desklock/internal/idgen"
	"desklock/internal/lockstate"
)

const (
	recorderBuffer = 32
	writeTimeout   = 5 * time.Second
)

// Recorder writes lock transitions to the journal off the command loop.
type Recorder struct {
	store  Storage
	logger *slog.Logger
	events chan lockstate.Transition

	// Owned by Run.
	current string
}

// NewRecorder creates a recorder. Pass Record to the engine's OnTransition
// and run Run in its own goroutine.
func NewRecorder(store Storage, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With("component", "journal"),
		events: make(chan lockstate.Transition, recorderBuffer),
	}
}

// Record queues t without blocking. Transitions are dropped when the
// journal falls behind.
func (r *Recorder) Record(t lockstate.Transition) {
	select {
	case r.events <- t:
	default:
		r.logger.Warn("journal queue full, transition dropped",
			"to", t.To.String(),
			"source", t.Source)
	}
}

// Run closes sessions left open by a previous process, then writes queued
// transitions until ctx is cancelled. Transitions queued before cancellation
// are still written.
func (r *Recorder) Run(ctx context.Context) error {
	n, err := r.store.CloseOpenLockSessions(ctx, time.Now(), SourceRecovered)
	if err != nil {
		r.logger.Error("failed to close open lock sessions", "error", err)
	} else if n > 0 {
		r.logger.Warn("closed lock sessions left open by previous run", "count", n)
	}

	for {
		select {
		case t := <-r.events:
			r.write(t)
		case <-ctx.Done():
			for {
				select {
				case t := <-r.events:
					r.write(t)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) write(t lockstate.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	switch t.To {
	case lockstate.Locked:
		session := &LockSession{
			ID:         idgen.NewLockSession(),
			LockedAt:   t.At,
			LockSource: t.Source,
		}
		if err := r.store.CreateLockSession(ctx, session); err != nil {
			r.logger.Error("failed to record lock", "source", t.Source, "error", err)
			return
		}
		r.current = session.ID
		r.logger.Debug("lock session started", "session_id", session.ID, "source", t.Source)

	case lockstate.Unlocked:
		if r.current == "" {
			return
		}
		if err := r.store.EndLockSession(ctx, r.current, t.At, t.Source); err != nil {
			r.logger.Error("failed to record unlock", "session_id", r.current, "error", err)
		} else {
			r.logger.Debug("lock session ended", "session_id", r.current, "source", t.Source)
		}
		r.current = ""
	}
}
