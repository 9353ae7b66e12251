package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnresolvedNamespace is returned when a corpus path names a namespace that
// has no mounted adapter, or carries no namespace while no default is set.
var ErrUnresolvedNamespace = errors.New("namespace has no mounted adapter")

// Manager routes corpus paths to mounted adapters. One adapter is mounted per
// namespace; unscoped paths resolve against the default namespace.
type Manager struct {
	mu               sync.RWMutex
	adapters         map[string]Adapter
	defaultNamespace string
}

// NewManager creates a Manager with no mounted namespaces.
func NewManager() *Manager {
	return &Manager{adapters: make(map[string]Adapter)}
}

// Mount registers adapter under namespace, replacing any previous mount.
func (m *Manager) Mount(namespace string, adapter Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adapters[namespace] = adapter
}

// Unmount removes the adapter mounted under namespace. It reports whether a
// mount existed.
func (m *Manager) Unmount(namespace string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.adapters[namespace]
	delete(m.adapters, namespace)
	return ok
}

// SetDefaultNamespace selects the namespace that unscoped paths resolve against.
func (m *Manager) SetDefaultNamespace(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultNamespace = namespace
}

// DefaultNamespace returns the current default namespace, which may be empty.
func (m *Manager) DefaultNamespace() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultNamespace
}

// Adapter returns the adapter mounted under namespace.
func (m *Manager) Adapter(namespace string) (Adapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adapter, ok := m.adapters[namespace]
	return adapter, ok
}

// Namespaces returns the mounted namespace tokens in sorted order.
func (m *Manager) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitNamespacePath splits "ns:/a/b" into ("ns", "/a/b"). Paths without a
// namespace prefix return an empty namespace.
func SplitNamespacePath(corpusPath string) (namespace, objectPath string) {
	idx := strings.Index(corpusPath, ":")
	if idx < 0 {
		return "", corpusPath
	}
	return corpusPath[:idx], corpusPath[idx+1:]
}

// CreateAbsoluteCorpusPath normalizes corpusPath into its canonical
// "namespace:/object/path" form. Relative references resolve against
// ownerFolder (the canonical folder path of the importing document, e.g.
// "local:/a/"); when ownerFolder is empty they resolve against the root of the
// default namespace. Two raw spellings of the same document normalize to the
// same canonical path.
func (m *Manager) CreateAbsoluteCorpusPath(corpusPath, ownerFolder string) (string, error) {
	if strings.TrimSpace(corpusPath) == "" {
		return "", fmt.Errorf("corpus path cannot be empty")
	}

	namespace, objectPath := SplitNamespacePath(corpusPath)
	if strings.Contains(objectPath, ":") {
		return "", fmt.Errorf("malformed corpus path %q: unexpected ':' in object path", corpusPath)
	}

	if namespace == "" {
		if ownerFolder != "" {
			// Unscoped references inherit the importing document's namespace;
			// relative ones also resolve against its folder.
			ownerNamespace, ownerPath := SplitNamespacePath(ownerFolder)
			namespace = ownerNamespace
			if !strings.HasPrefix(objectPath, "/") {
				objectPath = ownerPath + objectPath
			}
		} else {
			namespace = m.DefaultNamespace()
		}
	}

	normalized, err := normalizeObjectPath(objectPath)
	if err != nil {
		return "", fmt.Errorf("invalid corpus path %q: %w", corpusPath, err)
	}

	if namespace == "" {
		return normalized, nil
	}
	return namespace + ":" + normalized, nil
}

// ResolveAdapter maps a canonical corpus path to its mounted adapter and the
// namespace-relative object path. It fails with ErrUnresolvedNamespace when
// the path's namespace (or the default, for unscoped paths) is not mounted.
func (m *Manager) ResolveAdapter(corpusPath string) (Adapter, string, error) {
	namespace, objectPath := SplitNamespacePath(corpusPath)
	if namespace == "" {
		namespace = m.DefaultNamespace()
	}
	if namespace == "" {
		return nil, "", fmt.Errorf("%q: %w", corpusPath, ErrUnresolvedNamespace)
	}

	adapter, ok := m.Adapter(namespace)
	if !ok {
		return nil, "", fmt.Errorf("namespace %q: %w", namespace, ErrUnresolvedNamespace)
	}

	if !strings.HasPrefix(objectPath, "/") {
		objectPath = "/" + objectPath
	}
	return adapter, objectPath, nil
}

// FolderPath returns the canonical folder a document lives in, including the
// trailing slash: "local:/a/b.cdm.json" -> "local:/a/".
func FolderPath(corpusPath string) string {
	idx := strings.LastIndex(corpusPath, "/")
	if idx < 0 {
		return corpusPath
	}
	return corpusPath[:idx+1]
}

// normalizeObjectPath roots the path at "/" and folds "." and ".." segments.
// Paths that climb above the namespace root are rejected rather than clamped.
func normalizeObjectPath(objectPath string) (string, error) {
	segments := strings.Split(objectPath, "/")
	stack := make([]string, 0, len(segments))

	for _, segment := range segments {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", fmt.Errorf("path escapes namespace root")
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, segment)
		}
	}

	if len(stack) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(stack, "/"), nil
}
