package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const fence = "```"

// unwrapFence strips one surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func unwrapFence(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[\"") {
				s = s[nl+1:]
			}
		} else {
			s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// DecodeResponse unwraps and decodes a model reply. The reply must hold a
// single JSON object; anything else yields a *MalformedResponseError.
func DecodeResponse(raw string) (map[string]any, error) {
	body := unwrapFence(raw)

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, newMalformed(raw, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newMalformed(raw, errors.New("unexpected data after top-level value"))
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, newMalformed(raw, fmt.Errorf("top-level value is %s, not an object", jsonKind(v)))
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
