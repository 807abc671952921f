package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/server/middleware"
	"bill-assistant/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me answers from the stored profile, or from the token claims when the
// user has no row yet.
func (h *Handler) me(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	switch {
	case errors.Is(err, ErrNotFound):
		user = User{
			ID:         userID,
			Email:      middleware.UserEmailFromContext(c),
			Name:       middleware.UserNameFromContext(c),
			PictureURL: middleware.UserPictureFromContext(c),
		}
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.OK(c, gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"name":        user.Name,
		"picture_url": user.PictureURL,
	})
}
