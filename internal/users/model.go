package users

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// User is a signed-in account. Guests never get a row.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PictureURL  string    `json:"picture_url"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}
