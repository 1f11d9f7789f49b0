package middleware

import (
	"strconv"
	"time"

	"notesapi/log"
	"notesapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
)

// describeClient condenses a User-Agent header to "<browser>/<os>/<device>".
func describeClient(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.Parse(userAgent)

	device := "desktop"
	switch {
	case ua.Bot:
		device = "bot"
	case ua.Tablet:
		device = "tablet"
	case ua.Mobile:
		device = "mobile"
	}

	name := ua.Name
	if name == "" {
		name = "unknown"
	}
	os := ua.OS
	if os == "" {
		os = "unknown"
	}
	return name + "/" + os + "/" + device
}

// AccessLogMiddleware writes one line per request.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		labels := log.Labels{
			"trace_id": utils.RequestID(c),
			"status":   strconv.Itoa(status),
			"client":   describeClient(c.Request.UserAgent()),
		}
		msg := "%s %s %s"
		args := []any{c.Request.Method, c.Request.URL.Path, time.Since(start).Round(time.Microsecond)}

		logger := log.Logger()
		switch {
		case status >= 500:
			logger.Errorf(labels, msg, args...)
		case status >= 400:
			logger.Noticef(labels, msg, args...)
		default:
			logger.Infof(labels, msg, args...)
		}
	}
}
