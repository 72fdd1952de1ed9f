package handlers

import (
	"context"
	"net/http"
	"time"

	"warehouse-ledger/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitoringHandler serves health and listener progress
type MonitoringHandler struct {
	service string
	checks  map[string]Pinger
	events  *database.SingleWriterDB
	logger  *zap.Logger
}

// NewMonitoringHandler reports on checks. events is nil in the API binary.
func NewMonitoringHandler(service string, checks map[string]Pinger, events *database.SingleWriterDB, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{service: service, checks: checks, events: events, logger: logger}
}

func (h *MonitoringHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	if h.events != nil {
		rg.GET("/monitoring/stats", h.GetStats)
	}
}

// Health handles GET /health. Any failing dependency answers 503.
// @Summary      Health check
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}  "A dependency is down"
// @Router       /health [get]
func (h *MonitoringHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dependencies := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			dependencies[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		dependencies[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      h.service,
		"dependencies": dependencies,
	})
}

// GetStats handles GET /monitoring/stats
// @Summary      Listener processing stats
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  database.Stats
// @Router       /monitoring/stats [get]
func (h *MonitoringHandler) GetStats(c *gin.Context) {
	stats, err := h.events.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read listener statistics", zap.Error(err))
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
