package users

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (id, email, name, picture_url, created_at, last_login_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture_url = EXCLUDED.picture_url,
  last_login_at = now()
RETURNING id, email, name, picture_url, created_at, last_login_at`
	var out User
	err := r.DB.QueryRowContext(ctx, query, user.ID, user.Email, user.Name, user.PictureURL).Scan(
		&out.ID,
		&out.Email,
		&out.Name,
		&out.PictureURL,
		&out.CreatedAt,
		&out.LastLoginAt,
	)
	return out, err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, name, picture_url, created_at, last_login_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PictureURL,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

var _ Repo = (*PGRepo)(nil)
