package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery logs panics and answers 500. When verbose is true the log line
// carries the stacktrace and sanitized request metadata. JSON routes get a
// JSON body; the preview pages get plain text.
func Recovery(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			entry := GetRequestLogger(c)
			if verbose {
				entry.WithFields(logrus.Fields{
					"method":  c.Request.Method,
					"path":    SanitizePath(c.Request.URL.Path),
					"query":   SanitizeQuery(c.Request.URL.Query()),
					"headers": SanitizeHeaders(c.Request.Header),
				}).Errorf("PANIC: %v\nStacktrace:\n%s", r, debug.Stack())
			} else {
				entry.Errorf("PANIC: %v", r)
			}

			if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "kind": "internal"})
				return
			}
			c.Abort()
			c.String(http.StatusInternalServerError, "Internal server error")
		}()
		c.Next()
	}
}
