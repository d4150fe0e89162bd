// Package storage is the long-term file store for confirmed documents. Upload
// happens only on the confirmed-or-plausible match path; review-only documents
// are never uploaded, which keeps garbage out of storage.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore uploads document bytes under a key and returns a stable URL.
type FileStore interface {
	Upload(ctx context.Context, key, filename string, data []byte) (string, error)
}

// DiskStore is a local-filesystem FileStore, laid out as <root>/<key>/<filename>.
// The key is the document's content hash, so re-uploads are naturally idempotent.
type DiskStore struct {
	root   string
	logger *slog.Logger
}

func NewDiskStore(root string, logger *slog.Logger) *DiskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiskStore{root: root, logger: logger}
}

func (s *DiskStore) Upload(_ context.Context, key, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	s.logger.Info("storage.upload.ok", "key", key, "path", path, "bytes", len(data))
	return "file://" + path, nil
}
