package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"desklock/internal/engine"
	"desklock/internal/lockstate"
)

// LockHandler handles lock state requests
type LockHandler struct {
	controller engine.Controller
	logger     *slog.Logger
}

// NewLockHandler creates a new lock handler
func NewLockHandler(controller engine.Controller, logger *slog.Logger) *LockHandler {
	return &LockHandler{
		controller: controller,
		logger:     logger,
	}
}

// LockRequest is the optional body of the lock mutation endpoints
type LockRequest struct {
	// Source names the caller, e.g. "shortcuts". It is recorded as api:<source>.
	Source string `json:"source"`
}

// GetStatus returns the engine status
// GET /v1/status
func (h *LockHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Status())
}

// Lock locks the desk
// POST /v1/lock
func (h *LockHandler) Lock(c *gin.Context) {
	h.mutate(c, "lock", h.controller.Lock)
}

// Unlock unlocks the desk
// POST /v1/unlock
func (h *LockHandler) Unlock(c *gin.Context) {
	h.mutate(c, "unlock", h.controller.Unlock)
}

// Toggle flips the lock state
// POST /v1/toggle
func (h *LockHandler) Toggle(c *gin.Context) {
	h.mutate(c, "toggle", h.controller.Toggle)
}

func (h *LockHandler) mutate(c *gin.Context, op string, fn func(context.Context, string) error) {
	var req LockRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
				"code":  "INVALID_REQUEST",
			})
			return
		}
	}

	source := engine.SourceAPI
	if s := strings.TrimSpace(req.Source); s != "" {
		source = engine.SourceAPI + ":" + s
	}

	err := fn(c.Request.Context(), source)
	if errors.Is(err, lockstate.ErrCoalesced) {
		h.logger.Info("Lock request coalesced",
			"component", "api",
			"op", op,
			"source", source,
		)
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Toggle ignored, another toggle was just applied",
			"code":   "TOGGLE_COALESCED",
			"locked": h.controller.IsLocked(),
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to apply lock request",
			"component", "api",
			"op", op,
			"source", source,
			"error", err,
		)
		if errors.Is(err, lockstate.ErrStopped) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Lock engine is shutting down",
				"code":  "ENGINE_STOPPED",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to apply lock request",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, h.controller.Status())
}
