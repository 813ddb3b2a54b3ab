package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/utils"
)

// RequestLogger logs one structured line per request. Mutating requests
// also carry the client device summary for later correlation with the
// audit trail.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		client := utils.ParseUserAgent(c.Request.UserAgent())
		c.Request = c.Request.WithContext(utils.WithClientInfo(c.Request.Context(), client))

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       utils.GetRealIP(c),
		}

		if c.Request.Method != "GET" {
			fields["device"] = client.DeviceType
			fields["browser"] = client.Browser
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}
