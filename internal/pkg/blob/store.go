package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyBlob    = errors.New("blob is empty")
	ErrBlobTooLarge = errors.New("blob exceeds maximum size")
)

// Store is the durable-storage collaborator for voice attachments. The core
// hands it raw bytes and gets back a servable URL; where the bytes actually
// live is the store's concern.
type Store interface {
	// Save persists the blob under the given name and returns the public URL
	// and the filesystem path (or storage key) it was written to.
	Save(ctx context.Context, name string, data []byte) (url string, path string, err error)

	// Remove deletes a stored blob. No-op if it does not exist.
	Remove(ctx context.Context, path string) error
}

// FSStore stores blobs on the local filesystem and serves them under a
// configured base URL. Max size is enforced here rather than trusted from
// the client-side recording cap.
type FSStore struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewFSStore(dir, baseURL string, maxSize int64) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory %s: %w", dir, err)
	}
	return &FSStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

func (s *FSStore) Save(ctx context.Context, name string, data []byte) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if len(data) == 0 {
		return "", "", ErrEmptyBlob
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", "", ErrBlobTooLarge
	}

	// Strip any path components from the caller-supplied name.
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write blob %s: %w", name, err)
	}

	return s.baseURL + "/" + name, path, nil
}

func (s *FSStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob %s: %w", path, err)
	}
	return nil
}

// Dir returns the directory blobs are written to, for serving via HTTP.
func (s *FSStore) Dir() string {
	return s.dir
}
