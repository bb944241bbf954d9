package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"piiscan/pkg/ratelimiter"
)

// TraceMiddleware attaches a fresh trace ID to every request.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := uuid.New().String()
		c.Set("traceID", traceID)
		c.Header("X-Trace-ID", traceID)
		c.Next()
	}
}

// RateLimitMiddleware rejects requests when the limiter is exhausted.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RegisterRoutes wires the handlers onto the router. limiter may be nil to
// disable rate limiting.
func RegisterRoutes(router *gin.Engine, a *API, limiter ratelimiter.RateLimiter) {
	router.GET("/healthz", a.HealthHandler)

	v1 := router.Group("/api/v1")
	v1.Use(TraceMiddleware())
	if limiter != nil {
		v1.Use(RateLimitMiddleware(limiter))
	}
	{
		v1.POST("/extract", a.ExtractHandler)
		v1.POST("/scan", a.ScanHandler)
	}
}
