package extraction

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrLLMFailed            = errors.New("llm call failed")
	ErrMalformedLLMResponse = errors.New("malformed llm response")
	ErrPersistenceFailed    = errors.New("persistence failed")
	ErrAlreadyExists        = errors.New("extraction already exists")
)

const excerptLimit = 500

// MalformedResponseError carries the start of a model reply that could not
// be decoded into a JSON object.
type MalformedResponseError struct {
	Excerpt string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("LLM did not return valid JSON: %s ... Error: %v", e.Excerpt, e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedLLMResponse, e.Err}
}

func newMalformed(raw string, err error) *MalformedResponseError {
	return &MalformedResponseError{Excerpt: excerpt(raw, excerptLimit), Err: err}
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// failureReason labels an orchestration error for metrics and logs.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedLLMResponse):
		return "malformed_response"
	case errors.Is(err, ErrLLMFailed):
		return "llm"
	case errors.Is(err, ErrPersistenceFailed):
		return "persistence"
	case errors.Is(err, ErrExtractionFailed):
		return "text_acquisition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
