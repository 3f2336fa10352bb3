package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetStore stages media at a publicly reachable URL so the messaging
// gateway can fetch it. Assets are temporary; removal is best effort.
type AssetStore interface {
	Put(ctx context.Context, filename string, data []byte) (url, name string, err error)
	Remove(ctx context.Context, name string) error
}

// LocalStore writes assets under a directory served by the HTTP router at
// /assets/tmp and builds absolute URLs from the public base URL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore constructs a LocalStore rooted at dir.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	tmpDir := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("notify: create asset dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put persists the asset and returns its public URL and storage name.
func (s *LocalStore) Put(ctx context.Context, filename string, data []byte) (string, string, error) {
	name := uuid.NewString() + sanitizeExt(filename)
	path := filepath.Join(s.dir, "tmp", name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("notify: write asset: %w", err)
	}
	return fmt.Sprintf("%s/assets/tmp/%s", s.baseURL, name), name, nil
}

// Remove deletes a staged asset.
func (s *LocalStore) Remove(ctx context.Context, name string) error {
	if name == "" || strings.Contains(name, string(os.PathSeparator)) || strings.Contains(name, "..") {
		return fmt.Errorf("notify: invalid asset name %q", name)
	}
	return os.Remove(filepath.Join(s.dir, "tmp", name))
}

// Sweep removes staged assets older than ttl. Called periodically from the
// worker scheduler.
func (s *LocalStore) Sweep(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "tmp"))
	if err != nil {
		return 0, fmt.Errorf("notify: read asset dir: %w", err)
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, "tmp", entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".svg", ".pdf", ".jpg", ".jpeg":
		return ext
	default:
		return ""
	}
}
