package s3

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/bill.pdf", want: "owner/bill.pdf"},
		{name: "simple prefix", prefix: "uploads", key: "owner/bill.pdf", want: "uploads/owner/bill.pdf"},
		{name: "slashes trimmed", prefix: "/uploads/", key: "/owner/bill.pdf", want: "uploads/owner/bill.pdf"},
		{name: "empty key", prefix: "uploads", key: "", want: "uploads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestSpoolKeepsExtensionAndReleases(t *testing.T) {
	p, release, err := spool(strings.NewReader("receipt bytes"), ".png")
	if err != nil {
		t.Fatalf("spool: %v", err)
	}
	if filepath.Ext(p) != ".png" {
		t.Fatalf("expected .png temp file, got %q", p)
	}
	data, err := os.ReadFile(p)
	if err != nil || string(data) != "receipt bytes" {
		t.Fatalf("unexpected content %q err=%v", data, err)
	}
	release()
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err=%v", err)
	}
}
