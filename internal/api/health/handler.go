// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const probeTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db    Pinger
	redis redis.Cmdable
	log   *zap.SugaredLogger
}

// NewHandler builds the probes. rdb may be nil when Redis is not configured.
func NewHandler(db Pinger, rdb redis.Cmdable, log *zap.SugaredLogger) *Handler {
	return &Handler{db: db, redis: rdb, log: log}
}

func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready fails when the database is unreachable. A Redis outage only
// degrades the report since rate limiting fails open.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := "ok"

	if err := h.db.Ping(ctx); err != nil {
		h.log.Errorw("Database readiness check failed", "error", err)
		checks["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "checks": checks})
		return
	}

	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.log.Warnw("Redis readiness check failed", "error", err)
			checks["redis"] = "down"
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "checks": checks})
}
