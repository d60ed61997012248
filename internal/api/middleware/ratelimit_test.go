package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"foundrybay/core/internal/api/middleware"
	"foundrybay/core/internal/config"
)

func setupRateLimitedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	rm := middleware.NewRateLimiterMiddleware(cfg)
	router.GET("/race", rm.Limit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimiter_AllowsWithinBudget(t *testing.T) {
	cfg := &config.Config{
		RateLimitSoftBucketSize: 5, RateLimitSoftRefillRate: 5,
		RateLimitHardBucketSize: 10, RateLimitHardRefillRate: 10,
	}
	router := setupRateLimitedRouter(cfg)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/race", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_BlocksOverBudget(t *testing.T) {
	cfg := &config.Config{
		RateLimitSoftBucketSize: 2, RateLimitSoftRefillRate: 1,
		RateLimitHardBucketSize: 8, RateLimitHardRefillRate: 4,
	}
	router := setupRateLimitedRouter(cfg)

	blocked := false
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/race", nil)
		router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			blocked = true
		}
	}
	assert.True(t, blocked, "expected the soft limit to reject burst traffic")
}
