package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore 基于本地文件系统的 ObjectStore 实现
type FSStore struct {
	basePath      string
	publicBaseURL string
}

func NewFSStore(basePath, publicBaseURL string) *FSStore {
	return &FSStore{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *FSStore) Put(_ context.Context, path string, _ string, data []byte) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	// 先写临时文件再改名，避免读到半截的对象
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", fmt.Errorf("commit object: %w", err)
	}
	return s.PublicURL(path), nil
}

func (s *FSStore) PublicURL(path string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(path, "/")
}
