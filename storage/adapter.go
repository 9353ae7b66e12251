package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by adapters when no object exists at the requested path.
var ErrNotFound = errors.New("object not found")

// Adapter supplies raw document content for one mounted namespace.
// Implementations control where bytes come from (filesystem, memory, remote store).
type Adapter interface {
	// Read returns the content stored at objectPath. objectPath is the
	// namespace-relative part of a corpus path and always starts with "/".
	Read(ctx context.Context, objectPath string) ([]byte, error)
}
