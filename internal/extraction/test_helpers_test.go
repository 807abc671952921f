package extraction

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"bill-assistant/internal/documents"
	"bill-assistant/internal/llm"
	"bill-assistant/internal/shared/storage/object"
)

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

type fakeStore struct {
	mu             sync.Mutex
	materializeErr error
	released       int
}

func (f *fakeStore) Provider() string { return "fake" }

func (f *fakeStore) Save(context.Context, string, string, io.Reader) (object.Saved, error) {
	return object.Saved{}, errors.New("not implemented")
}

func (f *fakeStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, object.ErrNotFound
}

func (f *fakeStore) Delete(context.Context, string) error { return nil }

func (f *fakeStore) Materialize(_ context.Context, key string) (string, func(), error) {
	if f.materializeErr != nil {
		return "", nil, f.materializeErr
	}
	return "/stored/" + key, func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

type fakeText struct {
	mu    sync.Mutex
	text  string
	err   error
	paths []string
}

func (f *fakeText) ExtractText(_ context.Context, path, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.text, f.err
}

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	requests []llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

const sampleReply = "```json\n" + `{
  "bill_id": "EB-2291",
  "bill_type": "electricity",
  "due_date": "2025-04-01",
  "customer": {"name": "Meera Iyer", "address": "12 MG Road"},
  "seller": {"name": "City Power", "gstin": "29ABCDE1234F1Z5"},
  "items": [{"description": "Energy charges", "quantity": 120, "unit": "kWh", "unit_price": 6.5, "total": 780}],
  "summary": {"sub_total": 780, "cgst": 70.2, "sgst": 70.2, "grand_total": "₹920.40", "currency": "INR"}
}` + "\n```"

func newTestService() (*Service, *fakeLLM, *fakeText, *MemoryRepo) {
	model := &fakeLLM{reply: sampleReply}
	text := &fakeText{text: "CITY POWER\nBill EB-2291\nTotal 920.40"}
	repo := NewMemoryRepo()
	svc := &Service{
		Docs: &fakeDocs{docs: map[string]documents.Document{
			"doc-1": {ID: "doc-1", UserID: "user-1", StorageKey: "u1/bill.pdf", FileType: documents.FileTypePDF},
			"doc-2": {ID: "doc-2", UserID: "user-2", StorageKey: "u2/scan.png", FileType: documents.FileTypeImage},
		}},
		Store: &fakeStore{},
		Text:  text,
		LLM:   model,
		Repo:  repo,
		Now:   func() time.Time { return fixedNow },
	}
	return svc, model, text, repo
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
