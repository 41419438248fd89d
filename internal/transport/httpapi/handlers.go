package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"RigorScore/internal/domain"
	"RigorScore/internal/transport"
	"RigorScore/pkg/logger"
)

// Handler serves the REST API over the engine and ingestion services.
type Handler struct {
	svc    transport.Services
	logger *slog.Logger
}

// NewHandler builds the API handler.
func NewHandler(svc transport.Services, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, logger: log.With("component", "httpapi")}
}

type validatable interface {
	Validate() error
}

func (h *Handler) bind(c *gin.Context, dst validatable) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	if err := dst.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), h.logger).Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
}

func statusFor(err error) int {
	switch {
	case transport.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAnalysisNotFound),
		errors.Is(err, domain.ErrSourceNotFound),
		errors.Is(err, domain.ErrWorkspaceNotFound),
		errors.Is(err, domain.ErrPromptPackNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidWeight), errors.Is(err, domain.ErrInvalidTrigger):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrRetentionDisabled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOracleTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrOracleUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListPacks returns every registered prompt pack.
func (h *Handler) ListPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": transport.NewPackViews(h.svc.Packs.List())})
}

// CreateWorkspace handles POST /workspaces.
func (h *Handler) CreateWorkspace(c *gin.Context) {
	var req transport.CreateWorkspaceRequest
	if !h.bind(c, &req) {
		return
	}
	ws, err := h.svc.Catalog.CreateWorkspace(c.Request.Context(), req.Input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, transport.NewWorkspaceView(ws))
}

// ListWorkspaces handles GET /workspaces.
func (h *Handler) ListWorkspaces(c *gin.Context) {
	items, err := h.svc.Catalog.ListWorkspaces(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	views := make([]transport.WorkspaceView, 0, len(items))
	for _, ws := range items {
		views = append(views, transport.NewWorkspaceView(ws))
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": views})
}

// CreateAnalysis handles POST /analyses.
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var req transport.CreateAnalysisRequest
	if !h.bind(c, &req) {
		return
	}
	analysis, err := h.svc.Catalog.CreateAnalysis(c.Request.Context(), req.Input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, transport.NewAnalysisView(analysis))
}

// GetAnalysis handles GET /analyses/:id.
func (h *Handler) GetAnalysis(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	analysis, err := h.svc.Catalog.GetAnalysis(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	sources, err := h.svc.Catalog.AnalysisSources(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis": transport.NewAnalysisView(analysis),
		"sources":  transport.NewBoundSourceViews(sources),
	})
}

// RegisterSource handles POST /sources.
func (h *Handler) RegisterSource(c *gin.Context) {
	var req transport.RegisterSourceRequest
	if !h.bind(c, &req) {
		return
	}
	src, err := h.svc.Catalog.RegisterSource(c.Request.Context(), req.Input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, transport.NewSourceView(src))
}

// GetSource handles GET /sources/:id.
func (h *Handler) GetSource(c *gin.Context) {
	src, err := h.svc.Catalog.GetSource(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.NewSourceView(src))
}

// UpdateSourceFlags handles PATCH /sources/:id/flags and rescores every referencing analysis.
func (h *Handler) UpdateSourceFlags(c *gin.Context) {
	var req transport.UpdateFlagsRequest
	if !h.bind(c, &req) {
		return
	}
	src, results, err := h.svc.Catalog.UpdateSourceFlags(c.Request.Context(), c.Param("id"), req.Flags())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": transport.NewSourceView(src), "rescored": results})
}

// PurgeSourceText handles POST /sources/:id/purge.
func (h *Handler) PurgeSourceText(c *gin.Context) {
	src, err := h.svc.Catalog.PurgeSourceText(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.NewSourceView(src))
}

// AttachSource handles POST /analyses/:id/sources.
func (h *Handler) AttachSource(c *gin.Context) {
	var req transport.AttachSourceRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.Catalog.AttachSource(c.Request.Context(), c.Param("id"), req.SourceID, req.Weight, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DetachSource handles DELETE /analyses/:id/sources/:sourceId.
func (h *Handler) DetachSource(c *gin.Context) {
	res, err := h.svc.Catalog.DetachSource(c.Request.Context(), c.Param("id"), c.Param("sourceId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Score handles POST /analyses/:id/score. The body is optional.
func (h *Handler) Score(c *gin.Context) {
	var req transport.ScoreRequest
	if c.Request.ContentLength != 0 {
		if !h.bind(c, &req) {
			return
		}
	}
	res, err := h.svc.Scoring.ScoreWithNote(c.Request.Context(), c.Param("id"), req.TriggerValue(), req.Note)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// History handles GET /analyses/:id/history, newest first.
func (h *Handler) History(c *gin.Context) {
	entries, err := h.svc.Scoring.ReadinessHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": transport.NewLogEntryViews(entries)})
}

// EvaluateReadiness handles POST /analyses/:id/readiness.
func (h *Handler) EvaluateReadiness(c *gin.Context) {
	res, err := h.svc.Scoring.EvaluateReadiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ReadinessStatus handles GET /analyses/:id/readiness.
func (h *Handler) ReadinessStatus(c *gin.Context) {
	res, err := h.svc.Scoring.ReadinessStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
