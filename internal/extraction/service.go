package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bill-assistant/internal/documents"
	"bill-assistant/internal/llm"
	"bill-assistant/internal/shared/metrics"
	"bill-assistant/internal/shared/storage/object"
	"bill-assistant/internal/shared/telemetry"
)

// DocumentLookup resolves a document for its owner.
type DocumentLookup interface {
	GetByID(ctx context.Context, userID, documentID string) (documents.Document, error)
}

// TextAcquirer produces a transcript for a local file.
type TextAcquirer interface {
	ExtractText(ctx context.Context, path, fileType string) (string, error)
}

// Service runs extractions and serves stored records.
type Service struct {
	Docs        DocumentLookup
	Store       object.ObjectStore
	Text        TextAcquirer
	LLM         llm.Client
	Repo        Repo
	Temperature float32
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Trigger runs the extraction for a document owned by userID.
func (s *Service) Trigger(ctx context.Context, userID, documentID string) (ExtractedData, error) {
	doc, err := s.document(ctx, userID, documentID)
	if err != nil {
		return ExtractedData{}, err
	}
	return s.Process(ctx, doc)
}

// Process returns the stored record for doc, or runs the pipeline once and
// stores its result. Nothing is written when any step fails.
func (s *Service) Process(ctx context.Context, doc documents.Document) (ExtractedData, error) {
	existing, err := s.Repo.GetByDocument(ctx, doc.ID)
	if err == nil {
		telemetry.Info("extraction.cached", map[string]any{
			"document_id":   doc.ID,
			"extraction_id": existing.ID,
		})
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ExtractedData{}, fmt.Errorf("%w: lookup: %w", ErrPersistenceFailed, err)
	}

	start := time.Now()
	metrics.IncExtractionStarted()
	telemetry.Info("extraction.started", map[string]any{
		"document_id": doc.ID,
		"user_id":     doc.UserID,
		"file_type":   doc.FileType,
	})

	rec, err := s.run(ctx, doc)
	metrics.ObserveExtractionDuration(time.Since(start))
	if err != nil {
		reason := failureReason(err)
		metrics.IncExtractionFailed(reason)
		telemetry.Error("extraction.failed", map[string]any{
			"document_id": doc.ID,
			"user_id":     doc.UserID,
			"reason":      reason,
			"err":         err,
		})
		return ExtractedData{}, err
	}

	metrics.IncExtractionCompleted()
	telemetry.Info("extraction.completed", map[string]any{
		"document_id":   doc.ID,
		"extraction_id": rec.ID,
		"items":         len(rec.Items),
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return rec, nil
}

func (s *Service) run(ctx context.Context, doc documents.Document) (ExtractedData, error) {
	path, release, err := s.Store.Materialize(ctx, doc.StorageKey)
	if err != nil {
		return ExtractedData{}, fmt.Errorf("%w: open %s: %w", ErrExtractionFailed, doc.ID, err)
	}
	defer release()

	fields, err := s.ExtractFields(ctx, path, doc.FileType)
	if err != nil {
		return ExtractedData{}, err
	}

	now := s.now()
	rec := ExtractedData{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Fields:     fields,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a race with a concurrent extraction of the same document.
			stored, getErr := s.Repo.GetByDocument(ctx, doc.ID)
			if getErr == nil {
				return stored, nil
			}
			err = getErr
		}
		return ExtractedData{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return rec, nil
}

// ExtractFields runs text acquisition, the model call and coercion for a
// local file without persisting anything.
func (s *Service) ExtractFields(ctx context.Context, path, fileType string) (Fields, error) {
	transcript, err := s.Text.ExtractText(ctx, path, fileType)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return s.FieldsFromTranscript(ctx, transcript, fileType)
}

// FieldsFromTranscript asks the model for the record behind transcript and
// coerces its reply. Exactly one model call is made.
func (s *Service) FieldsFromTranscript(ctx context.Context, transcript, fileType string) (Fields, error) {
	if s.LLM == nil {
		return Fields{}, fmt.Errorf("%w: %w", ErrLLMFailed, llm.ErrNotConfigured)
	}
	reply, err := s.LLM.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: BuildPrompt(transcript)}},
		Temperature: llm.Temperature(s.Temperature),
	})
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	raw, err := DecodeResponse(reply)
	if err != nil {
		return Fields{}, err
	}
	return Coerce(raw, fileType, s.now()), nil
}

// Get returns the stored record for a document owned by userID.
func (s *Service) Get(ctx context.Context, userID, documentID string) (ExtractedData, error) {
	if _, err := s.document(ctx, userID, documentID); err != nil {
		return ExtractedData{}, err
	}
	return s.Repo.GetByDocument(ctx, documentID)
}

// Update applies a partial update to the stored record.
func (s *Service) Update(ctx context.Context, userID, documentID string, p Patch) (ExtractedData, error) {
	if _, err := s.document(ctx, userID, documentID); err != nil {
		return ExtractedData{}, err
	}
	rec, err := s.Repo.Update(ctx, documentID, p, s.now())
	if err != nil {
		return ExtractedData{}, err
	}
	telemetry.Info("extraction.updated", map[string]any{
		"document_id":   documentID,
		"extraction_id": rec.ID,
		"scalars":       len(p.Scalars),
	})
	return rec, nil
}

func (s *Service) document(ctx context.Context, userID, documentID string) (documents.Document, error) {
	if userID == "" || documentID == "" {
		return documents.Document{}, ErrNotFound
	}
	doc, err := s.Docs.GetByID(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return documents.Document{}, ErrNotFound
		}
		return documents.Document{}, err
	}
	return doc, nil
}
