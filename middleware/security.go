package middleware

import (
	"net/http"

	"notesapi/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimiter caps request bodies. Reads past the cap fail in the
// JSON decoder and surface as bad_request.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.Abort(c, http.StatusRequestEntityTooLarge, utils.CodeBadRequest, "request body too large")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
