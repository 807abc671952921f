package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePDF builds a minimal PDF with one page per entry in pages. An empty
// entry produces a page with an empty content stream.
func writePDF(t *testing.T, pages []string) string {
	t.Helper()

	var objects []string
	kids := make([]string, len(pages))
	// 1: catalog, 2: pages, 3: font, then page/content pairs.
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		contentID := 5 + 2*i
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID))
		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "bill.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPDFTextJoinsPagesInOrder(t *testing.T) {
	path := writePDF(t, []string{"Electricity Bill 42", "", "Grand Total 1180.00"})

	got, err := (&Acquirer{}).ExtractText(context.Background(), path, "pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != strings.TrimSpace(got) {
		t.Fatalf("result not trimmed: %q", got)
	}
	first := strings.Index(got, "Electricity Bill 42")
	last := strings.Index(got, "Grand Total 1180.00")
	if first < 0 || last < 0 || first > last {
		t.Fatalf("unexpected page text order: %q", got)
	}
	if !strings.Contains(got[first:last], "\n") {
		t.Fatalf("expected pages separated by newline: %q", got)
	}
}

func TestPDFTextWithoutTextIsEmpty(t *testing.T) {
	path := writePDF(t, []string{"", ""})
	got, err := (&Acquirer{}).ExtractText(context.Background(), path, "PDF")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestPDFTextRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf at all, just some text that is long enough to read a tail from it.............."), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (&Acquirer{}).ExtractText(context.Background(), path, "pdf"); err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
