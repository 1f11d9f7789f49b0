package middleware

import "github.com/gin-gonic/gin"

// NoStoreMiddleware keeps health checks and mutable reads out of caches.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
