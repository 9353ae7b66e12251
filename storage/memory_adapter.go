package storage

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// MemoryAdapter holds documents in memory. It is safe for concurrent use and
// backs tests as well as ad-hoc corpora assembled programmatically.
type MemoryAdapter struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{objects: make(map[string][]byte)}
}

// Write stores content at objectPath, replacing any previous content.
func (a *MemoryAdapter) Write(objectPath string, content []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[normalizeObjectKey(objectPath)] = content
}

// Delete removes the object at objectPath if present.
func (a *MemoryAdapter) Delete(objectPath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, normalizeObjectKey(objectPath))
}

// Read returns the stored content, or ErrNotFound when nothing was written at
// objectPath.
func (a *MemoryAdapter) Read(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	content, ok := a.objects[normalizeObjectKey(objectPath)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", objectPath, ErrNotFound)
	}
	return content, nil
}

func normalizeObjectKey(objectPath string) string {
	if objectPath == "" {
		return "/"
	}
	if objectPath[0] != '/' {
		objectPath = "/" + objectPath
	}
	return path.Clean(objectPath)
}
