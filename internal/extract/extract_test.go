package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeEngine struct {
	blocks []string
	err    error
	calls  atomic.Int32
}

func (f *fakeEngine) ReadParagraphs(context.Context, string) ([]string, error) {
	f.calls.Add(1)
	return f.blocks, f.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapCache) Get(_ context.Context, k string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[k]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, k, v string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[k] = v
	return nil
}

func writeImage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.png")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalizeFileType(t *testing.T) {
	cases := map[string]Kind{"pdf": KindPDF, "PDF": KindPDF, ".pdf": KindPDF, "image": KindImage, "JPG": KindImage, "jpeg": KindImage, ".png": KindImage}
	for in, want := range cases {
		got, err := NormalizeFileType(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v", in, got, err)
		}
	}
	for _, bad := range []string{"docx", "", "gif", "tiff"} {
		if _, err := NormalizeFileType(bad); !errors.Is(err, ErrUnsupportedFileType) {
			t.Fatalf("%q: expected ErrUnsupportedFileType, got %v", bad, err)
		}
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	a := &Acquirer{}
	if _, err := a.ExtractText(context.Background(), "/does/not/matter.docx", "docx"); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestImageTextJoinsNonEmptyBlocks(t *testing.T) {
	engine := &fakeEngine{blocks: []string{" ACME Stores ", "", "  ", "Total 250.00"}}
	a := &Acquirer{OCR: StaticOCR(engine)}
	got, err := a.ExtractText(context.Background(), writeImage(t, "png-bytes"), "image")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "ACME Stores\nTotal 250.00" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestImageTextNoBlocksIsEmpty(t *testing.T) {
	a := &Acquirer{OCR: StaticOCR(&fakeEngine{})}
	got, err := a.ExtractText(context.Background(), writeImage(t, "blank"), "jpg")
	if err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestImageTextEngineFailure(t *testing.T) {
	a := &Acquirer{OCR: StaticOCR(&fakeEngine{err: errors.New("engine crashed")})}
	if _, err := a.ExtractText(context.Background(), writeImage(t, "x"), "png"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOCRHandleInitialisesOnce(t *testing.T) {
	var inits atomic.Int32
	engine := &fakeEngine{blocks: []string{"ok"}}
	handle := NewOCRHandle(func(context.Context) (OCREngine, error) {
		inits.Add(1)
		return engine, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := handle.Engine(context.Background()); err != nil {
				t.Errorf("Engine: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := inits.Load(); got != 1 {
		t.Fatalf("expected one initialisation, got %d", got)
	}
}

func TestOCRHandleRetriesFailedInit(t *testing.T) {
	var attempts atomic.Int32
	handle := NewOCRHandle(func(context.Context) (OCREngine, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("not yet")
		}
		return &fakeEngine{}, nil
	})
	if _, err := handle.Engine(context.Background()); err == nil {
		t.Fatalf("expected first init to fail")
	}
	if _, err := handle.Engine(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestTranscriptCacheSkipsEngineOnHit(t *testing.T) {
	engine := &fakeEngine{blocks: []string{"Invoice 7"}}
	a := &Acquirer{OCR: StaticOCR(engine), Cache: &mapCache{}}
	path := writeImage(t, "same-bytes")

	for i := 0; i < 2; i++ {
		got, err := a.ExtractText(context.Background(), path, "image")
		if err != nil || got != "Invoice 7" {
			t.Fatalf("call %d: got %q err=%v", i, got, err)
		}
	}
	if calls := engine.calls.Load(); calls != 1 {
		t.Fatalf("expected engine called once, got %d", calls)
	}
}
