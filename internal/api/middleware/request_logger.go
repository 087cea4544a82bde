package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// quietPrefixes are polled by scrapers and probes; they are logged at debug.
var quietPrefixes = []string{"/metrics", "/api/v1/health"}

// RequestLogger logs one line per request with the request_id. Query
// strings are logged with the preview secret redacted.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := GetRequestLogger(c).WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if q := SanitizeQuery(c.Request.URL.Query()); q != "" {
			entry = entry.WithField("query", q)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		if isQuiet(c.Request.URL.Path) {
			entry.Debug("handled request")
			return
		}
		entry.Info("handled request")
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
