package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/packsmith-hq/magic-cards-backend/internal/records"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Cache     string    `json:"cache,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	cache       *redis.Client
}

func NewHealthHandler(serviceName, version string, cache *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		cache:       cache,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	cacheStatus := "disabled"
	if h.cache != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.cache.Ping(pingCtx).Err(); err != nil {
			cacheStatus = "down"
		} else {
			cacheStatus = "up"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Cache:     cacheStatus,
	})
}

// Metrics reports record-store call counters since process start.
func (h *HealthHandler) Metrics(c *gin.Context) {
	m := records.GetMetrics()

	c.JSON(http.StatusOK, gin.H{
		"store_calls":          m.StoreCalls(),
		"store_error_rate_pct": m.StoreErrorRate(),
		"avg_store_latency_ms": m.AverageStoreLatency(),
		"cache_hit_rate_pct":   m.CacheHitRate(),
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
	r.GET("/metrics", h.Metrics)
}
