package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/auth"
	"bill-assistant/internal/shared/config"
	"bill-assistant/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	isGuestKey     = "isGuest"
)

var publicPrefixes = []string{
	"/api/v1/health",
	"/api/v1/auth/google/",
	"/metrics",
}

// Auth resolves the caller identity from a bearer token or, in dev-like
// environments, from the X-Guest-Id header.
func Auth(env string) gin.HandlerFunc {
	allowGuests := config.IsDevLike(env)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Sub)
			setIfPresent(c, userEmailKey, claims.Email)
			setIfPresent(c, userNameKey, claims.Name)
			setIfPresent(c, userPictureKey, claims.Picture)
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" || !allowGuests {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Set(userIDKey, "guest:"+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func setIfPresent(c *gin.Context, key, val string) {
	if val != "" {
		c.Set(key, val)
	}
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	s, _ := val.(string)
	return s
}

// UserIDFromContext returns the identity set by Auth.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

func UserPictureFromContext(c *gin.Context) string {
	return stringFromContext(c, userPictureKey)
}

// IsGuest reports whether the caller authenticated with a guest header.
func IsGuest(c *gin.Context) bool {
	val, _ := c.Get(isGuestKey)
	guest, _ := val.(bool)
	return guest
}
