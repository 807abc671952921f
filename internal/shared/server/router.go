package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "bill-assistant/internal/auth"
	"bill-assistant/internal/chat"
	"bill-assistant/internal/documents"
	"bill-assistant/internal/extraction"
	"bill-assistant/internal/services/health"
	"bill-assistant/internal/shared/config"
	"bill-assistant/internal/shared/metrics"
	"bill-assistant/internal/shared/server/middleware"
	"bill-assistant/internal/shared/server/respond"
	"bill-assistant/internal/users"
)

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config            config.Config
	DocumentHandler   *documents.Handler
	ExtractionHandler *extraction.Handler
	ChatHandler       *chat.Handler
	UserHandler       *users.Handler
	GoogleAuth        *googleauth.GoogleService
	Health            *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Metrics(),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ExtractionHandler != nil {
		deps.ExtractionHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
