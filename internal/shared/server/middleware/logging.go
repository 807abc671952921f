package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/telemetry"
)

// Logging emits one structured line per completed request. Handlers may set
// "documentId" and "extractionId" on the context to enrich the line.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"client_ip":   c.ClientIP(),
		}
		if id := c.GetString("documentId"); id != "" {
			fields["document_id"] = id
		}
		if id := c.GetString("extractionId"); id != "" {
			fields["extraction_id"] = id
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		telemetry.Info("request.complete", fields)
	}
}
