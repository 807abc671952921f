package extraction

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bill-assistant/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, document_id, bill_id, bill_type, invoice_number, order_id, order_date, invoice_date, due_date, payment_status, customer, seller, items, summary, extraction_metadata, created_at, updated_at`

// Create inserts a record inside a transaction.
func (r *PGRepo) Create(ctx context.Context, rec ExtractedData) error {
	const query = `
INSERT INTO extracted_data (
    id,
    document_id,
    bill_id,
    bill_type,
    invoice_number,
    order_id,
    order_date,
    invoice_date,
    due_date,
    payment_status,
    customer,
    seller,
    items,
    summary,
    extraction_metadata,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	blobs, err := encodeBlobs(rec.Fields)
	if err != nil {
		return err
	}
	args := []any{rec.ID, rec.DocumentID}
	for _, key := range scalarKeys {
		args = append(args, nullText(*rec.Fields.scalar(key)))
	}
	args = append(args, blobs...)
	args = append(args, rec.CreatedAt, rec.UpdatedAt)

	err = db.InTx(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	if db.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

// GetByDocument returns the record for a document.
func (r *PGRepo) GetByDocument(ctx context.Context, documentID string) (ExtractedData, error) {
	query := `
SELECT ` + selectColumns + `
FROM extracted_data
WHERE document_id = $1
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return ExtractedData{}, ErrNotFound
	}
	return rec, err
}

// Update writes the fields present in p in one transaction.
func (r *PGRepo) Update(ctx context.Context, documentID string, p Patch, now time.Time) (ExtractedData, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	keys := make([]string, 0, len(p.Scalars))
	for key := range p.Scalars {
		if (&Fields{}).scalar(key) != nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		add(key, nullText(p.Scalars[key]))
	}

	nested := []struct {
		column string
		value  any
		set    bool
	}{
		{"customer", p.Customer, p.Customer != nil},
		{"seller", p.Seller, p.Seller != nil},
		{"items", p.Items, p.SetItems},
		{"summary", p.Summary, p.Summary != nil},
		{"extraction_metadata", p.Metadata, p.Metadata != nil},
	}
	for _, n := range nested {
		if !n.set {
			continue
		}
		blob, err := encodeBlob(n.value)
		if err != nil {
			return ExtractedData{}, err
		}
		add(n.column, blob)
	}
	add("updated_at", now)

	args = append(args, documentID)
	query := fmt.Sprintf(`
UPDATE extracted_data
SET %s
WHERE document_id = $%d
RETURNING %s`, strings.Join(sets, ", "), len(args), selectColumns)

	var rec ExtractedData
	err := db.InTx(ctx, r.DB, func(tx *sql.Tx) error {
		var scanErr error
		rec, scanErr = scanRecord(tx.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ExtractedData{}, ErrNotFound
	}
	return rec, err
}

// DeleteByDocument removes the record for a document, if any.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM extracted_data WHERE document_id = $1`
	_, err := r.DB.ExecContext(ctx, query, documentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ExtractedData, error) {
	var rec ExtractedData
	var scalars [8]sql.NullString
	var customer, seller, items, summary, metadata []byte
	dest := []any{&rec.ID, &rec.DocumentID}
	for i := range scalars {
		dest = append(dest, &scalars[i])
	}
	dest = append(dest, &customer, &seller, &items, &summary, &metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return ExtractedData{}, err
	}
	for i, key := range scalarKeys {
		if scalars[i].Valid {
			*rec.Fields.scalar(key) = NewText(scalars[i].String)
		}
	}
	rec.Customer = decodeObject[Customer](customer)
	rec.Seller = decodeObject[Seller](seller)
	rec.Items = decodeItems(items)
	rec.Summary = decodeObject[Summary](summary)
	rec.Metadata = decodeObject[Metadata](metadata)
	return rec, nil
}

func nullText(t Text) sql.NullString {
	return sql.NullString{String: t.Value, Valid: t.Valid}
}

func encodeBlobs(f Fields) ([]any, error) {
	values := []any{f.Customer, f.Seller, f.Items, f.Summary, f.Metadata}
	out := make([]any, 0, len(values))
	for _, v := range values {
		blob, err := encodeBlob(v)
		if err != nil {
			return nil, err
		}
		out = append(out, blob)
	}
	return out, nil
}

func encodeBlob(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(payload), nil
}

// unwrapBlob returns the JSON held in a stored column. Columns written as
// JSON text inside a JSON string are unwrapped once.
func unwrapBlob(blob []byte) []byte {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 || bytes.Equal(blob, []byte("null")) {
		return nil
	}
	if blob[0] == '"' {
		var inner string
		if err := json.Unmarshal(blob, &inner); err != nil {
			return nil
		}
		return bytes.TrimSpace([]byte(inner))
	}
	return blob
}

// decodeObject yields nil for anything that is not a JSON object.
func decodeObject[T any](blob []byte) *T {
	data := unwrapBlob(blob)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}

// decodeItems yields nil for anything that is not a JSON array. Entries that
// are not objects are skipped.
func decodeItems(blob []byte) []LineItem {
	data := unwrapBlob(blob)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	items := make([]LineItem, 0, len(entries))
	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || entry[0] != '{' {
			continue
		}
		var item LineItem
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

var _ Repo = (*PGRepo)(nil)
