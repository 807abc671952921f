package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/server/middleware"
	"bill-assistant/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat/:id/message", h.send)
	rg.GET("/chat/:id/history", h.history)
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	Response  string `json:"response"`
	MessageID string `json:"message_id"`
}

type historyResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

func (h *Handler) send(c *gin.Context) {
	documentID := documentParam(c)
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	msg, err := h.Svc.Send(c.Request.Context(), middleware.UserIDFromContext(c), documentID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, sendResponse{Response: msg.Response, MessageID: msg.ID})
}

func (h *Handler) history(c *gin.Context) {
	documentID := documentParam(c)
	msgs, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, historyResponse{Messages: msgs, Total: len(msgs)})
}

func documentParam(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", id)
	return id
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "chat request failed", nil)
	}
}
