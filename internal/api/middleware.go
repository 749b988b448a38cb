package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const headerTenant = "X-Tenant-ID"

// tenantID извлекает тенанта из заголовка. Пустой заголовок — запрос вне
// скоупа (nil), сервис тогда не фильтрует по tenantId.
func tenantID(c *gin.Context) *string {
	v := strings.TrimSpace(c.GetHeader(headerTenant))
	if v == "" {
		return nil
	}
	return &v
}

// RequestLogger — структурные access-логи с request id.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Set("requestId", reqID)
		c.Header("X-Request-ID", reqID)

		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"requestId": reqID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
		})
		if tid := tenantID(c); tid != nil {
			entry = entry.WithField("tenant", *tid)
		}
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}
