package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured entry per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"correlation_id": GetCorrelationID(c),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         status,
			"latency":        time.Since(start).String(),
			"client_ip":      c.ClientIP(),
			"response_size":  c.Writer.Size(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery turns a panic in a handler into a logged 500.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"correlation_id": GetCorrelationID(c),
			"path":           c.Request.URL.Path,
			"panic":          recovered,
		}).Error("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "internal server error",
		})
	})
}

// BodyLimit caps the request body at maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
