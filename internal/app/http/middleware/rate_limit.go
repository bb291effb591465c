package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateWindow = time.Minute

// RateLimiter counts requests per client IP in fixed one minute windows.
// A nil client disables limiting.
type RateLimiter struct {
	rdb   redis.Cmdable
	limit int
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewRateLimiter(rdb redis.Cmdable, perMinute int, log *zap.SugaredLogger) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: perMinute, log: log, now: time.Now}
}

func (rl *RateLimiter) key(scope, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, ip, rl.now().Unix()/int64(rateWindow.Seconds()))
}

// Limit returns middleware for one route scope. Redis errors let the request through.
func (rl *RateLimiter) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.rdb == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := rl.key(scope, c.ClientIP())

		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rateWindow)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.log.Warnw("Rate limit check failed, allowing request", "scope", scope, "error", err)
			c.Next()
			return
		}

		count := incr.Val()
		remaining := max(rl.limit-int(count), 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(rl.limit) {
			c.Header("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
			rl.log.Warnw("Rate limit exceeded", "scope", scope, "ip", c.ClientIP(), "count", count)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
