package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/chat"
	"bill-assistant/internal/shared/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := Build(config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "none",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func call(t *testing.T, app *App, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Guest-Id", "integration")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func upload(t *testing.T, app *App) string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="power.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 power bill"))
	_ = w.Close()

	resp := call(t, app, http.MethodPost, "/api/v1/documents/upload", buf.Bytes(), w.FormDataContentType())
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", resp.Code, resp.Body.String())
	}
	var doc struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &doc)
	return doc.ID
}

func TestBuildUsesMemoryReposWithoutDatabase(t *testing.T) {
	app := newTestApp(t)
	if app.DB != nil || app.Cache != nil {
		t.Fatalf("expected no database or cache")
	}
	if app.DocumentsService == nil || app.ExtractionService == nil || app.ChatService == nil || app.Health == nil {
		t.Fatalf("services not wired")
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(config.Config{Env: "production", LocalStoreDir: t.TempDir(), LLMProvider: "none"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestChatWithoutModelApologisesAndDeleteRemovesHistory(t *testing.T) {
	app := newTestApp(t)
	docID := upload(t, app)

	resp := call(t, app, http.MethodPost, "/api/v1/chat/"+docID+"/message", []byte(`{"message":"What is the total?"}`), "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", resp.Code, resp.Body.String())
	}
	var reply struct {
		Response  string `json:"response"`
		MessageID string `json:"message_id"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &reply)
	if !strings.HasPrefix(reply.Response, chat.ApologyPrefix) || reply.MessageID == "" {
		t.Fatalf("reply = %+v", reply)
	}

	history, err := app.ChatService.History(context.Background(), "guest:integration", docID)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %v, %v", history, err)
	}

	resp = call(t, app, http.MethodDelete, "/api/v1/documents/"+docID, nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", resp.Code, resp.Body.String())
	}
	msgs, err := app.ChatRepo.History(context.Background(), docID, "guest:integration")
	if err != nil {
		t.Fatalf("repo history: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("chat messages survived delete: %d", len(msgs))
	}
	resp = call(t, app, http.MethodGet, "/api/v1/chat/"+docID+"/history", nil, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("history after delete: %d", resp.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)
	for _, target := range []string{"/api/v1/health", "/api/v1/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: %d", target, resp.Code)
		}
	}
}
