// Package blobstore abstracts binary file storage for uploaded images.
// The feed core only ever holds the stable reference a store returns;
// raw bytes never reach the entity layer.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store saves uploaded bytes and returns a stable retrievable reference.
type Store interface {
	Save(ctx context.Context, filename string, src io.Reader) (string, error)
}

// DiskStore writes uploads to a local directory and returns references
// under the public /uploads path.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory uploads are written to, for static serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save streams src to a uniquely named file. The original filename only
// contributes its extension.
func (s *DiskStore) Save(ctx context.Context, filename string, src io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return "/uploads/" + name, nil
}
