package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bill-assistant/internal/llm"
)

func TestSendStoresExchange(t *testing.T) {
	svc, model, _, repo := newTestService()
	ctx := context.Background()

	msg, err := svc.Send(ctx, "user-1", "doc-1", "  What is the total?  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID == "" || msg.Message != "What is the total?" || msg.Response != "The grand total is ₹920.40." {
		t.Fatalf("message = %+v", msg)
	}

	req := model.last()
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Fatalf("temperature = %v", req.Temperature)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem || !strings.Contains(req.Messages[0].Content, "utility bills and receipts") {
		t.Fatalf("first message = %+v", req.Messages[0])
	}
	ctxMsg := req.Messages[1].Content
	if !strings.HasPrefix(ctxMsg, "Document Information:\nBill ID: EB-2291") || !strings.Contains(ctxMsg, "Grand Total: ₹920.40") {
		t.Fatalf("context message = %q", ctxMsg)
	}
	if req.Messages[2].Role != llm.RoleUser || req.Messages[2].Content != "What is the total?" {
		t.Fatalf("question message = %+v", req.Messages[2])
	}

	stored, _ := repo.History(ctx, "doc-1", "user-1")
	if len(stored) != 1 || stored[0].ID != msg.ID {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestSendReplaysHistoryInOrder(t *testing.T) {
	svc, model, _, _ := newTestService()
	ctx := context.Background()

	model.reply = "It is ₹920.40."
	if _, err := svc.Send(ctx, "user-1", "doc-1", "What is the total?"); err != nil {
		t.Fatalf("first: %v", err)
	}
	model.reply = "Yes."
	if _, err := svc.Send(ctx, "user-1", "doc-1", "Is that with tax?"); err != nil {
		t.Fatalf("second: %v", err)
	}

	msgs := model.last().Messages
	var got []string
	for _, m := range msgs {
		got = append(got, string(m.Role)+":"+strings.SplitN(m.Content, "\n", 2)[0])
	}
	want := []string{
		"system:" + strings.SplitN(systemPrompt, "\n", 2)[0],
		"user:What is the total?",
		"assistant:It is ₹920.40.",
		"user:Document Information:",
		"user:Is that with tax?",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("conversation =\n%v\nwant\n%v", got, want)
	}
}

func TestSendCapsHistory(t *testing.T) {
	svc, model, _, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := svc.Send(ctx, "user-1", "doc-1", fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if _, err := svc.Send(ctx, "user-1", "doc-1", "last"); err != nil {
		t.Fatalf("last: %v", err)
	}

	msgs := model.last().Messages
	if len(msgs) != 3+2*DefaultHistoryLimit {
		t.Fatalf("messages = %d, want %d", len(msgs), 3+2*DefaultHistoryLimit)
	}
	if msgs[1].Content != "q5" || msgs[len(msgs)-4].Content != "q24" {
		t.Fatalf("history window = %q .. %q", msgs[1].Content, msgs[len(msgs)-4].Content)
	}
}

func TestSendWithoutExtractionUsesPlaceholder(t *testing.T) {
	svc, model, _, _ := newTestService()
	if _, err := svc.Send(context.Background(), "user-1", "doc-3", "Who is the seller?"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ctxMsg := model.last().Messages[1].Content
	if !strings.Contains(ctxMsg, NoDataNarrative) {
		t.Fatalf("context message = %q", ctxMsg)
	}
}

func TestSendModelFailureIsApology(t *testing.T) {
	svc, model, _, repo := newTestService()
	model.err = errors.New("upstream 503")

	msg, err := svc.Send(context.Background(), "user-1", "doc-1", "What is due?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(msg.Response, ApologyPrefix) || !strings.Contains(msg.Response, "upstream 503") {
		t.Fatalf("response = %q", msg.Response)
	}
	stored, _ := repo.History(context.Background(), "doc-1", "user-1")
	if len(stored) != 1 || stored[0].Response != msg.Response {
		t.Fatalf("apology not stored: %+v", stored)
	}
}

func TestSendWithoutModelIsApology(t *testing.T) {
	svc, _, _, _ := newTestService()
	svc.LLM = nil
	msg, err := svc.Send(context.Background(), "user-1", "doc-1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(msg.Response, llm.ErrNotConfigured.Error()) {
		t.Fatalf("response = %q", msg.Response)
	}
}

func TestSendRejectsBadInput(t *testing.T) {
	svc, model, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Send(ctx, "user-1", "doc-1", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank question err = %v", err)
	}
	if _, err := svc.Send(ctx, "user-1", "doc-2", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign document err = %v", err)
	}
	if _, err := svc.Send(ctx, "user-1", "missing", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing document err = %v", err)
	}
	if len(model.requests) != 0 {
		t.Fatalf("model called %d times", len(model.requests))
	}
}

func TestSendRecordLookupFailure(t *testing.T) {
	svc, _, records, _ := newTestService()
	records.err = errors.New("connection reset")
	if _, err := svc.Send(context.Background(), "user-1", "doc-1", "hi"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestHistoryIsPerUserNewestFirst(t *testing.T) {
	svc, _, _, repo := newTestService()
	ctx := context.Background()
	for _, q := range []string{"first", "second", "third"} {
		if _, err := svc.Send(ctx, "user-1", "doc-1", q); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	_ = repo.Create(ctx, Message{ID: "other", DocumentID: "doc-1", UserID: "user-9", Message: "spy"})

	msgs, err := svc.History(ctx, "user-1", "doc-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Message != "third" || msgs[2].Message != "first" {
		t.Fatalf("history = %+v", msgs)
	}
	if _, err := svc.History(ctx, "user-2", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign history err = %v", err)
	}
}
