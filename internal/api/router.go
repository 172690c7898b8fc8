package api

import (
	"log/slog"

	"desklock/internal/api/handlers"
	"desklock/internal/api/middleware"
	"desklock/internal/engine"
	"desklock/internal/storage"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Controller engine.Controller
	Storage    storage.Storage // Optional: nil when the journal is disabled
	APIKey     string
	Logger     *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler(config.Controller)
	router.GET("/health", healthHandler.GetHealth)

	// API v1 routes (with authentication)
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKey(config.APIKey))
	{
		lockHandler := handlers.NewLockHandler(config.Controller, config.Logger)
		v1.GET("/status", lockHandler.GetStatus)
		v1.POST("/lock", lockHandler.Lock)
		v1.POST("/unlock", lockHandler.Unlock)
		v1.POST("/toggle", lockHandler.Toggle)

		sessionsHandler := handlers.NewSessionsHandler(config.Storage, config.Logger)
		v1.GET("/sessions", sessionsHandler.ListSessions)
		v1.GET("/sessions/:id", sessionsHandler.GetSession)
	}

	return router
}
