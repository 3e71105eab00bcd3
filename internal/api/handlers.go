package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/service"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// Handler exposes the correlation service over HTTP.
type Handler struct {
	svc    *service.CorrelationService
	logger *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(svc *service.CorrelationService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register attaches all routes to the router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/alerts", h.IngestAlert)
		v1.POST("/alerts/:id/status", h.UpdateAlertStatus)
		v1.POST("/correlate", h.Correlate)
		v1.GET("/clusters", h.ListClusters)
		v1.GET("/clusters/:id", h.GetCluster)
		v1.POST("/clusters/:id/resolve", h.ResolveCluster)
		v1.GET("/incidents/:cluster_id", h.GetIncident)
		v1.GET("/patterns", h.GetPatterns)
		v1.GET("/predictions/:service", h.GetPrediction)
		v1.GET("/stats", h.GetStats)
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ingestAlertRequest struct {
	ID          string            `json:"id"`
	Title       string            `json:"title" binding:"required"`
	Service     string            `json:"service" binding:"required"`
	Host        string            `json:"host"`
	Severity    string            `json:"severity" binding:"required"`
	Status      string            `json:"status"`
	Timestamp   *time.Time        `json:"timestamp"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
}

// IngestAlert accepts one alert into the engine.
func (h *Handler) IngestAlert(c *gin.Context) {
	var req ingestAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert := &models.Alert{
		ID:          req.ID,
		Title:       req.Title,
		Service:     req.Service,
		Host:        req.Host,
		Severity:    models.Severity(req.Severity),
		Status:      models.Status(req.Status),
		Description: req.Description,
		Labels:      req.Labels,
	}
	if alert.ID == "" {
		alert.ID = models.NewAlertID()
	}
	if alert.Status == "" {
		alert.Status = models.StatusFiring
	}
	if req.Timestamp != nil {
		alert.Timestamp = *req.Timestamp
	}

	if err := h.svc.IngestAlert(alert); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"alert_id":   alert.ID,
		"status":     string(alert.Status),
		"suppressed": alert.Status == models.StatusSuppressed,
	})
}

type updateStatusRequest struct {
	Status         string     `json:"status" binding:"required"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	AcknowledgedBy string     `json:"acknowledged_by"`
}

// UpdateAlertStatus transitions an alert's lifecycle status.
func (h *Handler) UpdateAlertStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if !h.svc.UpdateAlertStatus(id, status, req.ResolvedAt, req.AcknowledgedBy) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert_id": id, "status": string(status)})
}

type correlateRequest struct {
	WindowSeconds int `json:"window_seconds"`
}

// Correlate triggers a batch correlation pass.
func (h *Handler) Correlate(c *gin.Context) {
	var req correlateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	window := time.Duration(req.WindowSeconds) * time.Second
	clusters, err := h.svc.Correlate(c.Request.Context(), window)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters, "count": len(clusters)})
}

// ListClusters returns stored clusters, optionally only unresolved ones.
func (h *Handler) ListClusters(c *gin.Context) {
	clusters := h.svc.Clusters()
	if c.Query("active") == "true" {
		active := clusters[:0]
		for _, cluster := range clusters {
			if cluster.ResolvedAt == nil {
				active = append(active, cluster)
			}
		}
		clusters = active
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters, "count": len(clusters)})
}

// GetCluster returns one cluster by id.
func (h *Handler) GetCluster(c *gin.Context) {
	cluster, ok := h.svc.Cluster(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
		return
	}
	c.JSON(http.StatusOK, cluster)
}

// ResolveCluster closes a cluster.
func (h *Handler) ResolveCluster(c *gin.Context) {
	id := c.Param("id")
	if !h.svc.ResolveCluster(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cluster_id": id, "resolved": true})
}

// GetIncident returns the incident analysis for a cluster.
func (h *Handler) GetIncident(c *gin.Context) {
	incident, err := h.svc.Incident(c.Param("cluster_id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

// GetPatterns re-runs pattern detection and returns the report.
func (h *Handler) GetPatterns(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.DetectPatterns())
}

// GetPrediction estimates alert likelihood for a service over the next
// hour, or over ?horizon_hours when given.
func (h *Handler) GetPrediction(c *gin.Context) {
	horizon := time.Hour
	if v := c.Query("horizon_hours"); v != "" {
		parsed, err := time.ParseDuration(v + "h")
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon_hours"})
			return
		}
		horizon = parsed
	}
	c.JSON(http.StatusOK, h.svc.Predict(c.Param("service"), horizon))
}

// GetStats returns engine activity counters.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
