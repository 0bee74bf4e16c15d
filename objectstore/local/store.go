// Package local provides a filesystem object store for local development.
// It supports atomic writes using temp files and HMAC-signed URLs in place
// of presigned ones, served back through the local HTTP server.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"catphotos"
)

// Store writes photo objects under a sandboxed root directory.
type Store struct {
	root   *os.Root
	signer *Signer
}

// NewStore creates a Store. The root provides sandboxed file operations
// preventing path traversal; the signer issues the store's signed URLs.
func NewStore(root *os.Root, signer *Signer) *Store {
	return &Store{root: root, signer: signer}
}

// Put atomically writes an object using a temp file and rename, creating
// intermediate directories as needed.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile := "." + uuid.NewString() + ".tmp"
	t, err := s.root.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("put %s: create temp file: %w", key, err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := t.Write(data); err != nil {
		return fmt.Errorf("put %s: write: %w", key, err)
	}
	if err := t.Sync(); err != nil {
		return fmt.Errorf("put %s: sync: %w", key, err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("put %s: create directories: %w", key, err)
		}
	}
	if err := s.root.Rename(tmpFile, key); err != nil {
		return fmt.Errorf("put %s: rename: %w", key, err)
	}

	success = true
	return nil
}

// Get opens an object for reading. Returns ErrNotFound when it does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("get %s: %w", key, catphotos.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return f, nil
}

func (s *Store) PresignPut(_ context.Context, key, _ string, expires time.Duration) (string, error) {
	return s.signer.SignedURL(http.MethodPut, key, expires), nil
}

func (s *Store) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	return s.signer.SignedURL(http.MethodGet, key, expires), nil
}
