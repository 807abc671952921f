package chat

import (
	"context"
	"sync"
	"time"

	"bill-assistant/internal/documents"
	"bill-assistant/internal/extraction"
	"bill-assistant/internal/llm"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeDocs struct {
	docs map[string]documents.Document
}

func (f *fakeDocs) GetByID(_ context.Context, userID, documentID string) (documents.Document, error) {
	doc, ok := f.docs[documentID]
	if !ok || doc.UserID != userID {
		return documents.Document{}, documents.ErrNotFound
	}
	return doc, nil
}

type fakeRecords struct {
	recs map[string]extraction.ExtractedData
	err  error
}

func (f *fakeRecords) GetByDocument(_ context.Context, documentID string) (extraction.ExtractedData, error) {
	if f.err != nil {
		return extraction.ExtractedData{}, f.err
	}
	rec, ok := f.recs[documentID]
	if !ok {
		return extraction.ExtractedData{}, extraction.ErrNotFound
	}
	return rec, nil
}

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeLLM) last() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// tick returns a clock advancing one second per call.
func tick() func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return baseTime.Add(time.Duration(n) * time.Second)
	}
}

func newTestService() (*Service, *fakeLLM, *fakeRecords, *MemoryRepo) {
	model := &fakeLLM{reply: "  The grand total is ₹920.40.  "}
	records := &fakeRecords{recs: map[string]extraction.ExtractedData{
		"doc-1": {ID: "ext-1", DocumentID: "doc-1", Fields: extraction.Fields{
			BillID:  extraction.NewText("EB-2291"),
			Summary: &extraction.Summary{GrandTotal: extraction.NewAmount(920.4)},
		}},
	}}
	repo := NewMemoryRepo()
	svc := &Service{
		Docs: &fakeDocs{docs: map[string]documents.Document{
			"doc-1": {ID: "doc-1", UserID: "user-1"},
			"doc-2": {ID: "doc-2", UserID: "user-2"},
			"doc-3": {ID: "doc-3", UserID: "user-1"},
		}},
		Records:     records,
		Repo:        repo,
		LLM:         model,
		Temperature: 0.7,
		Now:         tick(),
	}
	return svc, model, records, repo
}
