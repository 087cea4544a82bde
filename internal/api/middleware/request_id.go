package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcarbon/emailpreview/internal/logger"
)

const RequestIDKey = "requestID"
const RequestIDHeader = "X-Request-ID"

const loggerKey = "logger"

// inbound ids from a fronting proxy are accepted only in this shape.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// RequestID assigns a request id (reusing a well-formed inbound X-Request-ID),
// echoes it in the response header and attaches a request-scoped logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if !validRequestID.MatchString(rid) {
			rid = uuid.New().String()
		}
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Set(loggerKey, logger.WithFields(logrus.Fields{"request_id": rid}))
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// GetRequestLogger retrieves the request-scoped logger from context or the global logger
func GetRequestLogger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logger.Log()
}
