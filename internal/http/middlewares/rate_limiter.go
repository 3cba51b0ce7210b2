package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// RateLimiter is the in-process fallback limiter, used when no Redis is
// configured. Fixed window per derived key.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	name    string
	prom    *observability.Prom
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(name string, limit int, window time.Duration, prom *observability.Prom) *RateLimiter {
	return &RateLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		prom:    prom,
		clients: make(map[string]*clientBucket),
	}
}

// Middleware enforces the limit for a derived key

func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived

			key = clientIP(c)
		}

		now := time.Now()

		rl.mu.Lock()

		b, ok := rl.clients[key]

		if !ok || now.After(b.windowEnd) {
			rl.clients[key] = &clientBucket{
				count:     1,
				windowEnd: now.Add(rl.window),
			}

			rl.mu.Unlock()
			c.Next()
			return
		}

		if b.count >= rl.limit {
			retryAfter := int(time.Until(b.windowEnd).Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.mu.Unlock()

			if rl.prom != nil {
				rl.prom.RateLimitHits.WithLabelValues(rl.name).Inc()
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			abortRateLimited(c)
			return
		}

		b.count++
		rl.mu.Unlock()
		c.Next()
	}
}

func abortRateLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": gin.H{
			"code":    "rate_limited",
			"message": "Too many requests. Please try again shortly.",
		},
	})
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	// Normalize an ipv6 host:port form if one slips through

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
