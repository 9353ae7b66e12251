package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalAdapter serves documents from a directory on the local filesystem.
// Object paths map onto files below the configured root; reads outside the
// root are rejected.
type LocalAdapter struct {
	root string
}

// NewLocalAdapter creates an adapter rooted at the given directory.
func NewLocalAdapter(root string) (*LocalAdapter, error) {
	if root == "" {
		return nil, fmt.Errorf("adapter root cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve adapter root %q: %w", root, err)
	}

	return &LocalAdapter{root: filepath.Clean(absRoot)}, nil
}

// Root returns the absolute directory this adapter reads from.
func (a *LocalAdapter) Root() string {
	return a.root
}

// Read returns the file content for objectPath, or ErrNotFound when no such
// file exists under the adapter root.
func (a *LocalAdapter) Read(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := a.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", objectPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", objectPath, err)
	}
	return data, nil
}

func (a *LocalAdapter) resolve(objectPath string) (string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(objectPath, "/"))
	full := filepath.Clean(filepath.Join(a.root, rel))

	if full != a.root && !strings.HasPrefix(full, a.root+string(filepath.Separator)) {
		return "", fmt.Errorf("object path escapes adapter root: %q", objectPath)
	}
	return full, nil
}
