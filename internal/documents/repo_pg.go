package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bill-assistant/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, file_name, original_filename, storage_provider, storage_key, mime_type, file_type, size_bytes, status, uploaded_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    original_filename,
    storage_provider,
    storage_key,
    mime_type,
    file_type,
    size_bytes,
    status,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	originalName := doc.OriginalFilename
	if originalName == "" {
		originalName = doc.FileName
	}
	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	status := doc.Status
	if status == "" {
		status = StatusActive
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		originalName,
		storageProvider,
		doc.StorageKey,
		doc.MimeType,
		doc.FileType,
		doc.SizeBytes,
		status,
		doc.UploadedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if !validID(documentID) {
		return Document{}, ErrNotFound
	}
	query := `
SELECT ` + selectColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// List counts the matches, then reads one page ordered newest first.
func (r *PGRepo) List(ctx context.Context, userID string, f ListFilter) ([]Document, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		where = append(where, fmt.Sprintf("original_filename ILIKE $%d", len(args)))
	}
	if f.FileType != "" {
		args = append(args, f.FileType)
		where = append(where, fmt.Sprintf("file_type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)
	query := fmt.Sprintf(`
SELECT %s
FROM documents
WHERE %s
ORDER BY uploaded_at DESC, id DESC
LIMIT $%d OFFSET $%d`, selectColumns, cond, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, doc)
	}
	return out, total, rows.Err()
}

// SetStatus changes the lifecycle state and returns the updated row.
func (r *PGRepo) SetStatus(ctx context.Context, userID, documentID, status string) (Document, error) {
	if !validID(documentID) {
		return Document{}, ErrNotFound
	}
	query := `
UPDATE documents
SET status = $1
WHERE user_id = $2 AND id = $3
RETURNING ` + selectColumns
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, status, userID, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// Delete removes chat messages, the extraction and the document in one
// transaction.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	if !validID(documentID) {
		return ErrNotFound
	}
	return db.InTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE document_id = $1`, documentID); err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_data WHERE document_id = $1`, documentID); err != nil {
			return fmt.Errorf("delete extracted data: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE user_id = $1 AND id = $2`, userID, documentID)
		if err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.OriginalFilename,
		&doc.StorageProvider,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.FileType,
		&doc.SizeBytes,
		&doc.Status,
		&doc.UploadedAt,
	)
	return doc, err
}

// validID rejects ids the uuid column could not hold.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ Repo = (*PGRepo)(nil)
