package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bill-assistant/internal/documents"
	"bill-assistant/internal/extraction"
	"bill-assistant/internal/llm"
	"bill-assistant/internal/shared/metrics"
	"bill-assistant/internal/shared/telemetry"
)

const systemPrompt = "You are a helpful assistant that answers questions about utility bills and receipts. " +
	"You have access to extracted data from a document. Answer questions accurately based on this data. " +
	"You also have access to previous conversation history, so you can understand references to earlier " +
	"questions and answers (e.g., 'them', 'that', 'the vendor I asked about'). " +
	"If the information is not available in the data or conversation history, say so clearly. " +
	"Be concise and friendly in your responses."

const contextInstruction = "Use this document information and the conversation history above to answer the following question."

// ApologyPrefix starts every reply produced when the model call fails.
const ApologyPrefix = "I apologize, but I encountered an error while processing your question"

// DefaultHistoryLimit caps how many earlier exchanges are replayed.
const DefaultHistoryLimit = 20

const maxQuestionLen = 4000

// DocumentLookup resolves a document for its owner.
type DocumentLookup interface {
	GetByID(ctx context.Context, userID, documentID string) (documents.Document, error)
}

// RecordSource returns the extracted record of a document.
type RecordSource interface {
	GetByDocument(ctx context.Context, documentID string) (extraction.ExtractedData, error)
}

// Service answers questions about a document.
type Service struct {
	Docs         DocumentLookup
	Records      RecordSource
	Repo         Repo
	LLM          llm.Client
	Temperature  float32
	HistoryLimit int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return DefaultHistoryLimit
}

// Send answers question using the document's record and the caller's recent
// exchanges, then stores the new exchange. Model failures become an apology
// answer rather than an error.
func (s *Service) Send(ctx context.Context, userID, documentID, question string) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(question) > maxQuestionLen {
		return Message{}, fmt.Errorf("%w: message is too long", ErrInvalidInput)
	}
	if err := s.ensureDocument(ctx, userID, documentID); err != nil {
		return Message{}, err
	}

	rec, err := s.record(ctx, documentID)
	if err != nil {
		return Message{}, err
	}
	history, err := s.Repo.Recent(ctx, documentID, userID, s.historyLimit())
	if err != nil {
		return Message{}, fmt.Errorf("load history: %w", err)
	}

	answer := s.Respond(ctx, question, rec, history)

	msg := Message{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Message:    question,
		Response:   answer,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Create(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

// Respond makes one model call over the assembled conversation. It never
// fails: an error from the model is returned as an apology text.
func (s *Service) Respond(ctx context.Context, question string, rec *extraction.ExtractedData, history []Message) string {
	var reply string
	err := llm.ErrNotConfigured
	if s.LLM != nil {
		reply, err = s.LLM.Generate(ctx, llm.Request{
			Messages:    BuildMessages(question, rec, history),
			Temperature: llm.Temperature(s.Temperature),
		})
	}
	if err != nil {
		metrics.IncChatReply("apology")
		telemetry.Warn("chat.reply_failed", map[string]any{"err": err})
		return Apology(err)
	}
	metrics.IncChatReply("answered")
	return strings.TrimSpace(reply)
}

// Apology is the answer given when the model call fails.
func Apology(err error) string {
	return fmt.Sprintf("%s: %v. Please try again.", ApologyPrefix, err)
}

// BuildMessages lays out the conversation: system instruction, each earlier
// exchange as question then answer, the document context, then question.
func BuildMessages(question string, rec *extraction.ExtractedData, history []Message) []llm.Message {
	msgs := make([]llm.Message, 0, 3+2*len(history))
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, h := range history {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: h.Message},
			llm.Message{Role: llm.RoleAssistant, Content: h.Response},
		)
	}
	msgs = append(msgs,
		llm.Message{Role: llm.RoleUser, Content: "Document Information:\n" + Narrative(rec) + "\n\n" + contextInstruction},
		llm.Message{Role: llm.RoleUser, Content: question},
	)
	return msgs
}

// History returns all of the caller's exchanges for a document, newest first.
func (s *Service) History(ctx context.Context, userID, documentID string) ([]Message, error) {
	if err := s.ensureDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.Repo.History(ctx, documentID, userID)
}

func (s *Service) record(ctx context.Context, documentID string) (*extraction.ExtractedData, error) {
	if s.Records == nil {
		return nil, nil
	}
	rec, err := s.Records.GetByDocument(ctx, documentID)
	if errors.Is(err, extraction.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load extraction: %w", err)
	}
	return &rec, nil
}

func (s *Service) ensureDocument(ctx context.Context, userID, documentID string) error {
	if userID == "" || documentID == "" {
		return ErrNotFound
	}
	if _, err := s.Docs.GetByID(ctx, userID, documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
