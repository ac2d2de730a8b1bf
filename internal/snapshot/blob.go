// Package snapshot stores a JSON copy of the vocabulary in blob storage.
//
// The snapshot is the fallback read path when the cache is empty or
// unreachable, and the seed for a fresh cache. Blob drivers: fs (atomic file
// writes), s3 (any S3-compatible endpoint) and memory.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// Driver names a blob backend.
type Driver string

const (
	DriverNone       Driver = "none"
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Blob is a minimal key/value byte store.
type Blob interface {
	// Get returns the object body; ok is false when the key does not exist.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Put creates or replaces the object.
	Put(ctx context.Context, key string, data []byte) error
}

// FSBlob stores objects as files under a root directory.
type FSBlob struct {
	root string
}

// NewFilesystem returns a filesystem blob rooted at root, creating it if needed.
func NewFilesystem(root string) (*FSBlob, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FSBlob{root: root}, nil
}

func (b *FSBlob) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(b.root, clean), nil
}

// Get reads the file for key.
func (b *FSBlob) Get(_ context.Context, key string) ([]byte, bool, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, true, nil
}

// Put writes the file for key atomically. Readers never observe a torn file.
func (b *FSBlob) Put(_ context.Context, key string, data []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := atomic.WriteFile(p, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

// MemoryBlob keeps objects in a map.
type MemoryBlob struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty in-memory blob.
func NewMemory() *MemoryBlob {
	return &MemoryBlob{objects: make(map[string][]byte)}
}

// Get returns a copy of the object.
func (b *MemoryBlob) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Put stores a copy of data.
func (b *MemoryBlob) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = append([]byte(nil), data...)
	return nil
}
