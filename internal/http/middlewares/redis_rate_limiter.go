package middlewares

import (
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces a fixed window with Redis counters, so the
// limit holds across replicas. Same contract as the in-process limiter.
func RedisRateLimiter(rdb *redis.Client, name string, limit int64, window time.Duration, prom *observability.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("taskhub:rl:%s:%s", name, clientIP(c))

		rctx := c.Request.Context()

		count, err := rdb.Incr(rctx, key).Result()
		if err != nil {
			// a broken limiter must not take login down with it
			c.Next()
			return
		}
		if count == 1 {
			_ = rdb.Expire(rctx, key, window).Err()
		}
		if count > limit {
			if prom != nil {
				prom.RateLimitHits.WithLabelValues(name).Inc()
			}

			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))

			abortRateLimited(c)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limit-count, 10))
		c.Next()
	}
}
