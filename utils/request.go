package utils

import (
	"github.com/gin-gonic/gin"
)

const (
	RequestIDKey = "request_id"
	IdentityKey  = "identity"
)

func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
