package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/karlis-benefelds/forum-transcriber/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg         *config.Config
	jobHandler  *Job
	chatHandler *Chat
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jobHandler *Job, chatHandler *Chat) *Router {
	return &Router{
		cfg:         cfg,
		jobHandler:  jobHandler,
		chatHandler: chatHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupJobRoutes(v1)
}

// setupJobRoutes configures transcription job routes
func (rt *Router) setupJobRoutes(g *echo.Group) {
	jobGroup := g.Group("/jobs")

	jobGroup.POST("", rt.jobHandler.CreateJob)
	jobGroup.GET("", rt.jobHandler.ListJobs)
	jobGroup.GET("/:id", rt.jobHandler.GetJob)
	jobGroup.GET("/:id/transcript", rt.jobHandler.GetTranscript)
	jobGroup.GET("/:id/report.csv", rt.jobHandler.GetReport)

	if rt.chatHandler != nil {
		jobGroup.POST("/:id/chat", rt.chatHandler.Ask)
	} else {
		jobGroup.POST("/:id/chat", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
