package users

import "context"

type Repo interface {
	// Upsert records a sign-in, creating the user on first login.
	Upsert(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
