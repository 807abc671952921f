package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Saved describes an object after it has been written.
type Saved struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore holds uploaded files namespaced by owner.
type ObjectStore interface {
	// Provider names the backend ("local" or "s3") for persistence alongside the key.
	Provider() string
	Save(ctx context.Context, ownerID, fileName string, r io.Reader) (Saved, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// Materialize exposes the object as a local file path. release must be
	// called once the caller is done with the path.
	Materialize(ctx context.Context, key string) (path string, release func(), err error)
}

// SniffReader reads up to 512 bytes from r for content detection and returns
// the detected MIME type with a reader that replays the sniffed prefix.
func SniffReader(r io.Reader) (string, io.Reader, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head := append([]byte(nil), sniff[:n]...)
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}
