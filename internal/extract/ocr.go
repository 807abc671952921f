package extract

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// OCREngine recognises text in an image file, one entry per paragraph.
type OCREngine interface {
	ReadParagraphs(ctx context.Context, path string) ([]string, error)
}

// OCRFactory performs the expensive one-time engine setup.
type OCRFactory func(ctx context.Context) (OCREngine, error)

type loadedEngine struct{ OCREngine }

// OCRHandle initialises its engine on first use and shares it afterwards.
// A failed initialisation is not remembered, so a later call retries.
type OCRHandle struct {
	factory OCRFactory
	mu      sync.Mutex
	engine  atomic.Pointer[loadedEngine]
}

func NewOCRHandle(factory OCRFactory) *OCRHandle {
	return &OCRHandle{factory: factory}
}

// StaticOCR wraps an already constructed engine.
func StaticOCR(engine OCREngine) *OCRHandle {
	h := &OCRHandle{}
	h.engine.Store(&loadedEngine{engine})
	return h
}

func (h *OCRHandle) Engine(ctx context.Context) (OCREngine, error) {
	if e := h.engine.Load(); e != nil {
		return e.OCREngine, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if e := h.engine.Load(); e != nil {
		return e.OCREngine, nil
	}
	if h.factory == nil {
		return nil, fmt.Errorf("ocr engine not configured")
	}
	engine, err := h.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("init ocr engine: %w", err)
	}
	h.engine.Store(&loadedEngine{engine})
	return engine, nil
}
