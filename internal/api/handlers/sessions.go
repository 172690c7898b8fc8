package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"desklock/internal/storage"
)

const maxSessionsLimit = 500

// SessionsHandler serves the lock-session journal
type SessionsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewSessionsHandler creates a new sessions handler. A nil storage means the
// journal is disabled.
func NewSessionsHandler(storage storage.Storage, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListSessions returns the most recent lock sessions
// GET /v1/sessions?limit=
func (h *SessionsHandler) ListSessions(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxSessionsLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be between 1 and 500",
				"code":  "INVALID_LIMIT",
			})
			return
		}
		limit = n
	}

	sessions, err := h.storage.ListLockSessions(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list lock sessions",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve sessions",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	now := time.Now()
	response := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, formatSessionResponse(session, now))
	}

	c.JSON(http.StatusOK, response)
}

// GetSession returns a single lock session
// GET /v1/sessions/:id
func (h *SessionsHandler) GetSession(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	session, err := h.storage.GetLockSession(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrLockSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Session not found",
			"code":  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get lock session",
			"component", "api",
			"session_id", c.Param("id"),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve session",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, formatSessionResponse(session, time.Now()))
}

func (h *SessionsHandler) enabled(c *gin.Context) bool {
	if h.storage != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "Lock journal is disabled",
		"code":  "JOURNAL_DISABLED",
	})
	return false
}

func formatSessionResponse(s *storage.LockSession, now time.Time) gin.H {
	resp := gin.H{
		"id":               s.ID,
		"locked_at":        s.LockedAt,
		"lock_source":      s.LockSource,
		"active":           s.Active(),
		"duration_seconds": int64(s.Duration(now).Seconds()),
	}
	if s.UnlockedAt != nil {
		resp["unlocked_at"] = *s.UnlockedAt
		resp["unlock_source"] = s.UnlockSource
	}
	return resp
}
