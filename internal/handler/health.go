package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rootMessage   = "URL Shortener API. Use /shorten to create a short URL."
	healthTimeout = 2 * time.Second
)

type RootResponse struct {
	Message     string `json:"message"`
	StoreStatus string `json:"store_status"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Root godoc
// @Summary Service info
// @Description Static message and store connectivity status
// @Produce json
// @Success 200 {object} RootResponse
// @Router / [get]
func (h *MappingHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Message:     rootMessage,
		StoreStatus: h.service.StoreState().String(),
	})
}

// Health godoc
// @Summary Liveness probe
// @Description Pings the mapping store
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /_health [get]
func (h *MappingHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Detail: "Storage unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}
