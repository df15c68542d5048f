package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const healthProbeTimeout = 2 * time.Second

// HealthHandler reports the liveness of the service's backing stores.
type HealthHandler struct {
	db    *sqlx.DB
	redis *redis.Client
}

// NewHealthHandler builds a HealthHandler.
func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Check probes Postgres and Redis and reports per-store status. Any failing
// probe turns the overall response into a 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	status := http.StatusOK
	postgres := "up"
	redisStatus := "up"

	if h.db == nil {
		postgres = "unconfigured"
		status = http.StatusServiceUnavailable
	} else if err := h.db.PingContext(ctx); err != nil {
		postgres = "down"
		status = http.StatusServiceUnavailable
	}

	if h.redis == nil {
		redisStatus = "unconfigured"
		status = http.StatusServiceUnavailable
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "down"
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"postgres": postgres,
		"redis":    redisStatus,
	})
}
