package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists objects to the local filesystem.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a LocalStorage instance. The directory is created if
// it does not exist.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "datas/mail-archive"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Put writes data under baseDir and returns the slash-separated relative key.
func (s *LocalStorage) Put(ctx context.Context, data []byte, opts PutOptions) (string, error) {
	if err := checkPayload(ctx, data); err != nil {
		return "", err
	}

	key := ObjectKey(opts)
	absPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	// 归档内容包含邮箱地址，仅属主可读
	if err := os.WriteFile(absPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return key, nil
}

var _ Storage = (*LocalStorage)(nil)
