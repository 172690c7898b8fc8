package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"desklock/internal/storage"
)

// defaultListLimit applies when ListLockSessions is called without a limit
const defaultListLimit = 50

// SQLiteStorage implements storage.Storage using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Times are stored as UTC and converted in the app layer
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema
func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS lock_sessions (
			id TEXT PRIMARY KEY,
			locked_at DATETIME NOT NULL,
			unlocked_at DATETIME,
			lock_source TEXT NOT NULL,
			unlock_source TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_lock_sessions_locked_at ON lock_sessions(locked_at);
		CREATE INDEX IF NOT EXISTS idx_lock_sessions_open ON lock_sessions(unlocked_at) WHERE unlocked_at IS NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateLockSession inserts a new open session
func (s *SQLiteStorage) CreateLockSession(ctx context.Context, session *storage.LockSession) error {
	if session.ID == "" {
		return errors.New("lock session id is required")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lock_sessions (id, locked_at, lock_source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.LockedAt.UTC(), session.LockSource, now, now)

	return err
}

// EndLockSession stamps the unlock time and source. Ending a session that
// already ended is a no-op.
func (s *SQLiteStorage) EndLockSession(ctx context.Context, id string, at time.Time, source string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE lock_sessions
		SET unlocked_at = ?, unlock_source = ?, updated_at = ?
		WHERE id = ? AND unlocked_at IS NULL
	`, at.UTC(), source, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either missing or already ended
		if _, err := s.GetLockSession(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// GetLockSession retrieves a session by ID
func (s *SQLiteStorage) GetLockSession(ctx context.Context, id string) (*storage.LockSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, locked_at, unlocked_at, lock_source, unlock_source
		FROM lock_sessions WHERE id = ?
	`, id)

	session, err := scanLockSession(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrLockSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListLockSessions returns the most recent sessions first
func (s *SQLiteStorage) ListLockSessions(ctx context.Context, limit int) ([]*storage.LockSession, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, locked_at, unlocked_at, lock_source, unlock_source
		FROM lock_sessions ORDER BY locked_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*storage.LockSession
	for rows.Next() {
		session, err := scanLockSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// CloseOpenLockSessions ends every session that has no unlock time
func (s *SQLiteStorage) CloseOpenLockSessions(ctx context.Context, at time.Time, source string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE lock_sessions
		SET unlocked_at = ?, unlock_source = ?, updated_at = ?
		WHERE unlocked_at IS NULL
	`, at.UTC(), source, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLockSession(row scanner) (*storage.LockSession, error) {
	var session storage.LockSession
	var unlockedAt sql.NullTime
	var unlockSource sql.NullString

	if err := row.Scan(&session.ID, &session.LockedAt, &unlockedAt, &session.LockSource, &unlockSource); err != nil {
		return nil, err
	}

	if unlockedAt.Valid {
		session.UnlockedAt = &unlockedAt.Time
	}
	if unlockSource.Valid {
		session.UnlockSource = unlockSource.String
	}
	return &session, nil
}

// Ensure SQLiteStorage implements storage.Storage
var _ storage.Storage = (*SQLiteStorage)(nil)
