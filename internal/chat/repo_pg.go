package chat

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, msg Message) error {
	const query = `
INSERT INTO chat_messages (id, document_id, user_id, message, response, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, msg.DocumentID, msg.UserID, msg.Message, msg.Response, msg.CreatedAt)
	return err
}

// Recent reads the newest rows first so the limit bounds the scan, then
// reverses them into chronological order.
func (r *PGRepo) Recent(ctx context.Context, documentID, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	const query = `
SELECT id, document_id, user_id, message, response, created_at
FROM chat_messages
WHERE document_id = $1 AND user_id = $2
ORDER BY created_at DESC
LIMIT $3`
	msgs, err := r.query(ctx, query, documentID, userID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *PGRepo) History(ctx context.Context, documentID, userID string) ([]Message, error) {
	const query = `
SELECT id, document_id, user_id, message, response, created_at
FROM chat_messages
WHERE document_id = $1 AND user_id = $2
ORDER BY created_at DESC`
	return r.query(ctx, query, documentID, userID)
}

func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM chat_messages WHERE document_id = $1`
	_, err := r.DB.ExecContext(ctx, query, documentID)
	return err
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.UserID, &m.Message, &m.Response, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
