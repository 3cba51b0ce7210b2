package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/taskhub/internal/http/middlewares"
)

func newLimitedRouter(limit int, window time.Duration) *gin.Engine {
	router := gin.New()

	limiter := middlewares.NewRateLimiter("test", limit, window, nil)

	router.POST("/login", limiter.Middleware(middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":12345"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	router := newLimitedRouter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if rec := hit(router, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rec.Code)
		}
	}

	rec := hit(router, "10.0.0.1")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rec.Code)
	}

	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("no Retry-After header on 429")
	}
}

func TestRateLimiterIsPerKey(t *testing.T) {
	router := newLimitedRouter(1, time.Hour)

	if rec := hit(router, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first ip: got %d", rec.Code)
	}

	if rec := hit(router, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("second ip should have its own window: got %d", rec.Code)
	}

	if rec := hit(router, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first ip over limit: got %d, want 429", rec.Code)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	router := newLimitedRouter(1, 30*time.Millisecond)

	if rec := hit(router, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}

	if rec := hit(router, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rec.Code)
	}

	time.Sleep(50 * time.Millisecond)

	if rec := hit(router, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("window did not reset: got %d", rec.Code)
	}
}
