package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bill-assistant/internal/shared/metrics"
	"bill-assistant/internal/shared/telemetry"
)

// ErrUnsupportedFileType is returned for declared types other than pdf or an image format.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Kind is the acquisition strategy chosen for a declared file type.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// NormalizeFileType maps a declared type (pdf, image, jpg, jpeg, png; any
// case, optional leading dot) onto a Kind.
func NormalizeFileType(fileType string) (Kind, error) {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(fileType)), ".")
	switch t {
	case "pdf":
		return KindPDF, nil
	case "image", "jpg", "jpeg", "png":
		return KindImage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
	}
}

// TranscriptCache remembers acquired text by content digest.
type TranscriptCache interface {
	Get(ctx context.Context, digest string) (string, bool, error)
	Set(ctx context.Context, digest, text string) error
}

// Acquirer turns a stored file into plain text.
type Acquirer struct {
	OCR        *OCRHandle
	Cache      TranscriptCache
	OCRTimeout time.Duration
}

// ExtractText returns the text of the file at path. PDFs are read page by
// page; images go through the OCR engine. An empty string is a valid result.
func (a *Acquirer) ExtractText(ctx context.Context, path, fileType string) (string, error) {
	kind, err := NormalizeFileType(fileType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var digest string
	if a.Cache != nil {
		digest, err = fileDigest(kind, path)
		if err != nil {
			return "", err
		}
		if text, ok := a.cached(ctx, digest); ok {
			return text, nil
		}
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = pdfText(path)
	case KindImage:
		text, err = a.imageText(ctx, path)
	}
	if err != nil {
		return "", err
	}

	if a.Cache != nil {
		if err := a.Cache.Set(ctx, digest, text); err != nil {
			telemetry.Warn("transcript.cache_set_failed", map[string]any{"err": err})
		}
	}
	return text, nil
}

func (a *Acquirer) cached(ctx context.Context, digest string) (string, bool) {
	start := time.Now()
	text, ok, err := a.Cache.Get(ctx, digest)
	metrics.CaptureDependency("transcript_cache", time.Since(start))
	if err != nil {
		telemetry.Warn("transcript.cache_get_failed", map[string]any{"err": err})
		return "", false
	}
	return text, ok
}

func (a *Acquirer) imageText(ctx context.Context, path string) (string, error) {
	if a.OCR == nil {
		return "", errors.New("ocr engine not configured")
	}
	engine, err := a.OCR.Engine(ctx)
	if err != nil {
		return "", err
	}
	if a.OCRTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.OCRTimeout)
		defer cancel()
	}

	start := time.Now()
	blocks, err := engine.ReadParagraphs(ctx, path)
	metrics.CaptureDependency("ocr", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return joinBlocks(blocks), nil
}

func joinBlocks(blocks []string) string {
	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if t := strings.TrimSpace(b); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}

func fileDigest(kind Kind, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	h.Write([]byte(kind + ":"))
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
