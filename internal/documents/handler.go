package documents

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/server/middleware"
	"bill-assistant/internal/shared/server/respond"
)

// multipartSlack covers form boundaries and headers around the file part.
const multipartSlack = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents/list", h.list)
	rg.GET("/documents/:id", h.download)
	rg.DELETE("/documents/:id", h.delete)
	rg.POST("/documents/archive/:id", h.archive)
	rg.POST("/documents/unarchive/:id", h.unarchive)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := h.Svc.maxUpload()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, ErrTooLarge)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), userID, UploadInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.Created(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilter{
		Query:    strings.TrimSpace(c.Query("q")),
		FileType: strings.TrimSpace(c.Query("file_type")),
		Status:   strings.TrimSpace(c.Query("status")),
		Limit:    DefaultListLimit,
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
			return
		}
		f.Limit = parsed
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be an integer", nil)
			return
		}
		f.Offset = parsed
	}

	page, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), f)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ListResponse{
		Documents: make([]DocumentResponse, 0, len(page.Documents)),
		Total:     page.Total,
		Offset:    page.Offset,
		Limit:     page.Limit,
	}
	for _, doc := range page.Documents {
		resp.Documents = append(resp.Documents, toResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) download(c *gin.Context) {
	documentID := documentParam(c)
	doc, rc, err := h.Svc.Download(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.OriginalFilename})
	if disposition == "" {
		disposition = fmt.Sprintf(`attachment; filename="%s"`, doc.FileName)
	}
	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *Handler) delete(c *gin.Context) {
	documentID := documentParam(c)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), documentID); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Deleted"})
}

func (h *Handler) archive(c *gin.Context) {
	documentID := documentParam(c)
	doc, err := h.Svc.Archive(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) unarchive(c *gin.Context) {
	documentID := documentParam(c)
	doc, err := h.Svc.Unarchive(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(doc))
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
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "file_too_large", "file size exceeds the upload limit", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "document request failed", nil)
	}
}
