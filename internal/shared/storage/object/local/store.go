package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bill-assistant/internal/shared/storage/object"
	"bill-assistant/internal/shared/util"
)

// Store keeps objects on the local filesystem under baseDir/<owner hash>/.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Provider() string { return "local" }

// Save writes r to a new file; it never overwrites an existing object.
func (s *Store) Save(ctx context.Context, ownerID, fileName string, r io.Reader) (object.Saved, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return object.Saved{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.Saved{}, err
	}

	ownerDir := util.OwnerPrefix(ownerID)
	dirPath := filepath.Join(s.baseDir, ownerDir)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return object.Saved{}, fmt.Errorf("mkdir: %w", err)
	}

	mimeType, body, err := object.SniffReader(r)
	if err != nil {
		return object.Saved{}, fmt.Errorf("read sniff: %w", err)
	}

	fullPath := filepath.Join(dirPath, name)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return object.Saved{}, fmt.Errorf("create file: %w", err)
	}
	size, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		return object.Saved{}, fmt.Errorf("write body: %w", errors.Join(copyErr, closeErr))
	}

	return object.Saved{
		Key:      filepath.ToSlash(filepath.Join(ownerDir, name)),
		Size:     size,
		MimeType: mimeType,
	}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, object.ErrNotFound
	}
	return f, err
}

// Delete removes the object; a missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Materialize returns the on-disk path; there is nothing to release.
func (s *Store) Materialize(ctx context.Context, key string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, object.ErrNotFound
		}
		return "", nil, err
	}
	return fullPath, func() {}, nil
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", object.ErrInvalidKey
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
