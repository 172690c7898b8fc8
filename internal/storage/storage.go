package storage

import (
	"context"
	"errors"
	"time"
)

var ErrLockSessionNotFound = errors.New("lock session not found")

// SourceRecovered marks sessions closed at startup because the previous
// process exited while locked.
const SourceRecovered = "recovered"

// LockSession is one Locked window
type LockSession struct {
	ID           string     `json:"id"`
	LockedAt     time.Time  `json:"locked_at"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`
	LockSource   string     `json:"lock_source"`
	UnlockSource string     `json:"unlock_source,omitempty"`
}

// Active reports whether the session has not ended yet
func (s *LockSession) Active() bool {
	return s.UnlockedAt == nil
}

// Duration returns how long the session lasted, or has lasted so far at now
func (s *LockSession) Duration(now time.Time) time.Duration {
	if s.UnlockedAt != nil {
		return s.UnlockedAt.Sub(s.LockedAt)
	}
	return now.Sub(s.LockedAt)
}

// Storage defines the interface for the lock-session journal
type Storage interface {
	CreateLockSession(ctx context.Context, session *LockSession) error
	EndLockSession(ctx context.Context, id string, at time.Time, source string) error
	GetLockSession(ctx context.Context, id string) (*LockSession, error)
	ListLockSessions(ctx context.Context, limit int) ([]*LockSession, error)

	// CloseOpenLockSessions ends every session still open and returns how many it ended.
	CloseOpenLockSessions(ctx context.Context, at time.Time, source string) (int64, error)

	// Lifecycle
	Close() error
}
