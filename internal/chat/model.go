package chat

import (
	"errors"
	"time"
)

// Message is one stored question and answer exchange.
type Message struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
