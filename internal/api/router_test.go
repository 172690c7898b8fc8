package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"desklock/internal/api/middleware"
	"desklock/internal/engine"
	"desklock/internal/lockstate"
	"desklock/internal/storage"
)

const testKey = "test-key"

// MockController is a test double for engine.Controller
type MockController struct {
	mu       sync.Mutex
	locked   bool
	sources  []string
	Err      error
	Panic    bool
	Degraded bool
}

func (m *MockController) apply(source string, locked func(bool) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sources = append(m.sources, source)
	m.locked = locked(m.locked)
	return nil
}

func (m *MockController) Toggle(ctx context.Context, source string) error {
	return m.apply(source, func(l bool) bool { return !l })
}

func (m *MockController) Lock(ctx context.Context, source string) error {
	return m.apply(source, func(bool) bool { return true })
}

func (m *MockController) Unlock(ctx context.Context, source string) error {
	return m.apply(source, func(bool) bool { return false })
}

func (m *MockController) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

func (m *MockController) Status() engine.Status {
	if m.Panic {
		panic("status exploded")
	}
	return engine.Status{Locked: m.IsLocked(), Intercepting: !m.Degraded, Degraded: m.Degraded, Chord: "Ctrl+Shift+`"}
}

func (m *MockController) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sources...)
}

// MockStorage is a fixed in-memory journal
type MockStorage struct {
	sessions []*storage.LockSession
}

func (m *MockStorage) CreateLockSession(context.Context, *storage.LockSession) error { return nil }

func (m *MockStorage) EndLockSession(context.Context, string, time.Time, string) error { return nil }

func (m *MockStorage) GetLockSession(ctx context.Context, id string) (*storage.LockSession, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, storage.ErrLockSessionNotFound
}

func (m *MockStorage) ListLockSessions(ctx context.Context, limit int) ([]*storage.LockSession, error) {
	if limit > 0 && limit < len(m.sessions) {
		return m.sessions[:limit], nil
	}
	return m.sessions, nil
}

func (m *MockStorage) CloseOpenLockSessions(context.Context, time.Time, string) (int64, error) {
	return 0, nil
}

func (m *MockStorage) Close() error { return nil }

func newTestRouter(ctrl *MockController, store storage.Storage) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRouter(RouterConfig{
		Controller: ctrl,
		Storage:    store,
		APIKey:     testKey,
		Logger:     logger,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set(middleware.APIKeyHeader, testKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth_NoAuth(t *testing.T) {
	h := newTestRouter(&MockController{}, nil)

	w := do(t, h, http.MethodGet, "/health", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDKey))
}

func TestHealth_Degraded(t *testing.T) {
	h := newTestRouter(&MockController{Degraded: true}, nil)

	w := do(t, h, http.MethodGet, "/health", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "DEGRADED", body["status"])
	assert.NotContains(t, body, "locked")
}

func TestRequestID(t *testing.T) {
	h := newTestRouter(&MockController{}, nil)

	tests := []struct {
		name string
		in   string
		keep bool
	}{
		{name: "token kept", in: "build-42_a", keep: true},
		{name: "missing generated", in: ""},
		{name: "header injection replaced", in: "abc def"},
		{name: "too long replaced", in: strings.Repeat("a", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.in != "" {
				req.Header.Set(middleware.RequestIDKey, tt.in)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			got := w.Header().Get(middleware.RequestIDKey)
			if tt.keep {
				assert.Equal(t, tt.in, got)
			} else {
				assert.True(t, strings.HasPrefix(got, "req_"), got)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	h := newTestRouter(&MockController{}, nil)

	w := do(t, h, http.MethodGet, "/v1/status", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set(middleware.APIKeyHeader, "wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/v1/status", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_EmptyKeyRejectsAll(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	h := NewRouter(RouterConfig{Controller: &MockController{}, Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set(middleware.APIKeyHeader, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLockUnlockToggle(t *testing.T) {
	ctrl := &MockController{}
	h := newTestRouter(ctrl, nil)

	w := do(t, h, http.MethodPost, "/v1/lock", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["locked"])

	w = do(t, h, http.MethodPost, "/v1/unlock", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["locked"])

	w = do(t, h, http.MethodPost, "/v1/toggle", `{"source":"shortcuts"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["locked"])

	assert.Equal(t, []string{"api", "api", "api:shortcuts"}, ctrl.Sources())
}

func TestMutation_InvalidBody(t *testing.T) {
	h := newTestRouter(&MockController{}, nil)

	w := do(t, h, http.MethodPost, "/v1/lock", `{"source":`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/lock", strings.NewReader("lock"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(middleware.APIKeyHeader, testKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestMutation_JSONWithCharset(t *testing.T) {
	ctrl := &MockController{}
	h := newTestRouter(ctrl, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/lock", strings.NewReader(`{"source":"cli"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set(middleware.APIKeyHeader, testKey)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"api:cli"}, ctrl.Sources())
}

func TestMutation_EngineStopped(t *testing.T) {
	h := newTestRouter(&MockController{Err: lockstate.ErrStopped}, nil)

	w := do(t, h, http.MethodPost, "/v1/toggle", "", true)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ENGINE_STOPPED", decode(t, w)["code"])
}

func TestMutation_ToggleCoalesced(t *testing.T) {
	h := newTestRouter(&MockController{Err: lockstate.ErrCoalesced}, nil)

	w := do(t, h, http.MethodPost, "/v1/toggle", "", true)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "TOGGLE_COALESCED", body["code"])
	assert.Equal(t, false, body["locked"])
}

func TestRecovery(t *testing.T) {
	h := newTestRouter(&MockController{Panic: true}, nil)

	w := do(t, h, http.MethodGet, "/v1/status", "", true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["code"])
}

func TestSessions_JournalDisabled(t *testing.T) {
	h := newTestRouter(&MockController{}, nil)

	w := do(t, h, http.MethodGet, "/v1/sessions", "", true)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "JOURNAL_DISABLED", decode(t, w)["code"])
}

func TestSessions_ListAndGet(t *testing.T) {
	lockedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	unlockedAt := lockedAt.Add(10 * time.Minute)
	store := &MockStorage{sessions: []*storage.LockSession{
		{ID: "lock_2", LockedAt: lockedAt.Add(time.Hour), LockSource: "hook"},
		{ID: "lock_1", LockedAt: lockedAt, UnlockedAt: &unlockedAt, LockSource: "api", UnlockSource: "hook"},
	}}
	h := newTestRouter(&MockController{}, store)

	w := do(t, h, http.MethodGet, "/v1/sessions", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "lock_2", list[0]["id"])
	assert.Equal(t, true, list[0]["active"])
	assert.NotContains(t, list[0], "unlocked_at")

	w = do(t, h, http.MethodGet, "/v1/sessions?limit=1", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(t, h, http.MethodGet, "/v1/sessions?limit=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/v1/sessions/lock_1", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "hook", got["unlock_source"])
	assert.Equal(t, float64(600), got["duration_seconds"])
	assert.Equal(t, false, got["active"])

	w = do(t, h, http.MethodGet, "/v1/sessions/missing", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckLoopback(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"127.0.0.1:7345", false},
		{"[::1]:7345", false},
		{"localhost:7345", false},
		{"0.0.0.0:7345", true},
		{"192.168.1.10:7345", true},
		{":7345", true},
		{"nonsense", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := checkLoopback(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
