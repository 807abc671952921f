package extraction

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/extract"
	"bill-assistant/internal/shared/server/middleware"
	"bill-assistant/internal/shared/server/respond"
)

const maxUpdateBody = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/document/extract/:id", h.trigger)
	rg.GET("/document/extract/:id", h.get)
	rg.PUT("/document/extract/:id", h.update)
	rg.GET("/document/extract/:id/export", h.export)
}

func (h *Handler) trigger(c *gin.Context) {
	documentID := documentParam(c)
	rec, err := h.Svc.Trigger(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("extractionId", rec.ID)
	respond.OK(c, rec)
}

func (h *Handler) get(c *gin.Context) {
	documentID := documentParam(c)
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("extractionId", rec.ID)
	respond.OK(c, rec)
}

func (h *Handler) update(c *gin.Context) {
	documentID := documentParam(c)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUpdateBody))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read request body", nil)
		return
	}
	patch, err := ParsePatch(body)
	if err != nil {
		writeError(c, err)
		return
	}
	rec, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), documentID, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("extractionId", rec.ID)
	respond.OK(c, rec)
}

func (h *Handler) export(c *gin.Context) {
	documentID := documentParam(c)
	data, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="extraction-%s.xlsx"`, documentID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func documentParam(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", id)
	return id
}

func writeError(c *gin.Context, err error) {
	var malformed *MalformedResponseError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "extraction not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, extract.ErrUnsupportedFileType):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", "unsupported file type for extraction", nil)
	case errors.As(err, &malformed):
		respond.Error(c, http.StatusInternalServerError, "malformed_llm_response", "model did not return valid JSON", gin.H{"raw_excerpt": malformed.Excerpt})
	case errors.Is(err, ErrLLMFailed):
		respond.Error(c, http.StatusBadGateway, "llm_failed", "model call failed", nil)
	case errors.Is(err, ErrExtractionFailed):
		respond.Error(c, http.StatusInternalServerError, "extraction_failed", "text extraction failed", nil)
	case errors.Is(err, ErrPersistenceFailed):
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", "failed to store extraction", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "extraction request failed", nil)
	}
}
