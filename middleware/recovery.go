package middleware

import (
	"runtime/debug"

	"notesapi/log"
	"notesapi/metrics"
	"notesapi/utils"

	"github.com/gin-gonic/gin"
)

// EnhancedRecoveryMiddleware turns a panic into the internal_error envelope.
func EnhancedRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				metrics.TrackError("panic")
				log.Logger().Criticalf(log.Labels{"trace_id": utils.RequestID(c), "path": c.Request.URL.Path},
					"panic: %v\n%s", err, debug.Stack())
				utils.InternalError(c)
			}
		}()
		c.Next()
	}
}
