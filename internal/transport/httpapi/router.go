package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterOptions configures the middleware chain and the optional metrics endpoint.
type RouterOptions struct {
	Logger            *slog.Logger
	MetricsPath       string
	Metrics           http.Handler
	RequestsPerSecond float64
	Burst             int
}

// NewRouter mounts the API under /api/v1.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(log))
	router.Use(RequestLogger(log))

	router.GET("/health", h.Health)
	if opts.Metrics != nil && opts.MetricsPath != "" {
		router.GET(opts.MetricsPath, gin.WrapH(opts.Metrics))
	}

	api := router.Group("/api/v1")
	api.Use(RateLimit(opts.RequestsPerSecond, opts.Burst))
	{
		api.GET("/packs", h.ListPacks)

		api.POST("/workspaces", h.CreateWorkspace)
		api.GET("/workspaces", h.ListWorkspaces)

		api.POST("/sources", h.RegisterSource)
		api.GET("/sources/:id", h.GetSource)
		api.PATCH("/sources/:id/flags", h.UpdateSourceFlags)
		api.POST("/sources/:id/purge", h.PurgeSourceText)

		api.POST("/analyses", h.CreateAnalysis)
		api.GET("/analyses/:id", h.GetAnalysis)
		api.POST("/analyses/:id/sources", h.AttachSource)
		api.DELETE("/analyses/:id/sources/:sourceId", h.DetachSource)
		api.POST("/analyses/:id/score", h.Score)
		api.GET("/analyses/:id/history", h.History)
		api.POST("/analyses/:id/readiness", h.EvaluateReadiness)
		api.GET("/analyses/:id/readiness", h.ReadinessStatus)
	}
	return router
}
