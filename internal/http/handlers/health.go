package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

// Healthz is a liveness probe: the process is up and serving.
func Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports readiness by pinging each named dependency. A nil
// pinger is treated as "not configured" and skipped.
func Readyz(pingers map[string]Pinger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		for name, ping := range pingers {
			if ping == nil {
				continue
			}

			if err := ping(checkCtx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = "unavailable"
				continue
			}
			checks[name] = "ok"
		}

		ctx.JSON(status, gin.H{
			"status": http.StatusText(status),
			"checks": checks,
		})
	}
}
