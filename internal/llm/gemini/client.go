package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"bill-assistant/internal/llm"
)

// Client implements llm.Client on the Gemini API.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient builds a Gemini API client. baseURL is optional and only
// overrides the endpoint.
func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("LLM_MODEL is required for Gemini")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{genai: c, model: model}, nil
}

// Generate folds system messages into the system instruction and maps the
// remaining turns onto user/model contents.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	contents, system := toContents(req.Messages)
	if len(contents) == 0 {
		return "", errors.New("gemini: no user content")
	}
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	result, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if result == nil {
		return "", errors.New("gemini generate: empty result")
	}
	return result.Text(), nil
}

func toContents(messages []llm.Message) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: string(genai.RoleModel), Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return contents, strings.Join(system, "\n\n")
}

var _ llm.Client = (*Client)(nil)
