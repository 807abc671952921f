package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bill-assistant/internal/shared/storage/object"
	"bill-assistant/internal/shared/telemetry"
	"bill-assistant/internal/shared/util"
)

const (
	DefaultListLimit      = 20
	MaxListLimit          = 100
	DefaultMaxUploadBytes = 50 << 20
)

var allowedExtensions = map[string]string{
	".pdf":  FileTypePDF,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".png":  FileTypeImage,
}

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// UploadInput describes one multipart file part.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service contains business logic for documents.
type Service struct {
	Store          object.ObjectStore
	Repo           Repo
	MaxUploadBytes int64
	Now            func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) maxUpload() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}

// Upload validates the file, stores it under a unique name and records the
// document. The stored blob is removed again when the insert fails.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	original, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	fileType, ok := allowedExtensions[strings.ToLower(filepath.Ext(original))]
	if !ok {
		return Document{}, fmt.Errorf("%w: invalid file type", ErrUnsupportedType)
	}
	mimeType, _, _ := mime.ParseMediaType(in.ContentType)
	if !allowedMimeTypes[mimeType] {
		return Document{}, fmt.Errorf("%w: invalid MIME type", ErrUnsupportedType)
	}
	limit := s.maxUpload()
	if in.Size > limit {
		return Document{}, ErrTooLarge
	}

	saved, err := s.Store.Save(ctx, userID, util.UniqueFileName(original), io.LimitReader(in.Body, limit+1))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}
	if saved.Size > limit {
		s.removeBlob(ctx, saved.Key)
		return Document{}, ErrTooLarge
	}

	doc := Document{
		ID:               uuid.NewString(),
		UserID:           userID,
		FileName:         filepath.Base(saved.Key),
		OriginalFilename: original,
		StorageProvider:  s.Store.Provider(),
		StorageKey:       saved.Key,
		MimeType:         mimeType,
		FileType:         fileType,
		SizeBytes:        saved.Size,
		Status:           StatusActive,
		UploadedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		s.removeBlob(ctx, saved.Key)
		return Document{}, fmt.Errorf("record upload: %w", err)
	}

	telemetry.Info("document.uploaded", map[string]any{
		"user_id":     userID,
		"document_id": doc.ID,
		"file_type":   doc.FileType,
		"size_bytes":  doc.SizeBytes,
	})
	return doc, nil
}

// GetByID returns a document owned by userID.
func (s *Service) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns one page of the user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) (Page, error) {
	if f.FileType != "" && f.FileType != FileTypePDF && f.FileType != FileTypeImage {
		return Page{}, fmt.Errorf("%w: file_type must be pdf or image", ErrInvalidInput)
	}
	if f.Status != "" && f.Status != StatusActive && f.Status != StatusArchived {
		return Page{}, fmt.Errorf("%w: status must be active or archived", ErrInvalidInput)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	docs, total, err := s.Repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Documents: docs, Total: total, Offset: f.Offset, Limit: f.Limit}, nil
}

// Download opens the stored file of a document. The caller closes the reader.
func (s *Service) Download(ctx context.Context, userID, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Document{}, nil, fmt.Errorf("%w: stored file is missing", ErrNotFound)
	}
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

func (s *Service) Archive(ctx context.Context, userID, documentID string) (Document, error) {
	return s.setStatus(ctx, userID, documentID, StatusArchived)
}

func (s *Service) Unarchive(ctx context.Context, userID, documentID string) (Document, error) {
	return s.setStatus(ctx, userID, documentID, StatusActive)
}

func (s *Service) setStatus(ctx context.Context, userID, documentID, status string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrNotFound
	}
	return s.Repo.SetStatus(ctx, userID, documentID, status)
}

// Delete removes the document with its extraction and chat history, then the
// stored file.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.GetByID(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		return err
	}
	s.removeBlob(ctx, doc.StorageKey)
	telemetry.Info("document.deleted", map[string]any{
		"user_id":     userID,
		"document_id": documentID,
	})
	return nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("document.blob_delete_failed", map[string]any{
			"storage_key": key,
			"err":         err,
		})
	}
}
