package llm

import (
	"context"
	"errors"
	"time"

	"bill-assistant/internal/shared/metrics"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is one completion call. A nil Temperature leaves the provider default.
type Request struct {
	Messages    []Message
	Temperature *float32
}

// Client generates a single text completion for a conversation.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderClient stands in when no provider credentials are present.
type PlaceholderClient struct{}

func (PlaceholderClient) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// Temperature returns a pointer suitable for Request.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// Instrumented bounds every call by timeout (when positive) and records its
// latency under operation.
type Instrumented struct {
	Next      Client
	Operation string
	Timeout   time.Duration
}

func (c Instrumented) Generate(ctx context.Context, req Request) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() { metrics.CaptureDependency(c.Operation, time.Since(start)) }()
	return c.Next.Generate(ctx, req)
}
