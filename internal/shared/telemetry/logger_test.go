package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	Error("extraction failed", map[string]any{"document_id": "doc-1", "err": errors.New("boom")})
	_ = w.Close()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if entry["level"] != "error" || entry["msg"] != "extraction failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["document_id"] != "doc-1" || entry["err"] != "boom" {
		t.Fatalf("missing fields: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts: %v", entry)
	}
}
