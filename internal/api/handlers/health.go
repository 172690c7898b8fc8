package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"desklock/internal/engine"
)

// HealthHandler reports whether the lock engine can intercept input
type HealthHandler struct {
	controller engine.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller engine.Controller) *HealthHandler {
	return &HealthHandler{controller: controller}
}

// GetHealth answers UP while the hook is installed and DEGRADED while only
// the fallback hotkey and the cover protect the desk. Lock state is not
// reported here since /health needs no key.
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	status := "UP"
	if h.controller.Status().Degraded {
		status = "DEGRADED"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "desklock",
	})
}
