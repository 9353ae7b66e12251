package corpus

import (
	"context"
	"sort"
	"sync"
)

// entry is the cache record for one canonical path. Its lifecycle is one-way:
// in flight until complete is called, then terminally resolved or failed.
// done is closed exactly once, after doc is set.
type entry struct {
	done chan struct{}
	doc  *Document // nil after a failed load
}

func newEntry() *entry {
	return &entry{done: make(chan struct{})}
}

// await blocks until the entry settles or ctx is cancelled. A failed load
// yields (nil, nil): absence, not an error.
func (e *entry) await(ctx context.Context) (*Document, error) {
	select {
	case <-e.done:
		return e.doc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// peek reports whether the entry has settled, and the document if so.
func (e *entry) peek() (*Document, bool) {
	select {
	case <-e.done:
		return e.doc, true
	default:
		return nil, false
	}
}

// Library is the corpus document cache, keyed by canonical path. It guarantees
// at most one concurrent resolution per path: the caller that registers an
// entry runs the loader, everyone else joins the same entry. Entries live for
// the corpus lifetime; there is no eviction.
type Library struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{entries: make(map[string]*entry)}
}

// getOrStart returns the entry for path, registering a fresh in-flight entry
// when none exists. started reports whether the caller owns the load.
func (l *Library) getOrStart(path string) (ent *entry, started bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.entries[path]; ok {
		return existing, false
	}

	ent = newEntry()
	l.entries[path] = ent
	return ent, true
}

// complete settles ent with doc (nil marks a failure) and releases all
// waiters. When abandon is set the entry is also removed from the table so a
// later fetch can retry; waiters still observe this attempt's result.
func (l *Library) complete(path string, ent *entry, doc *Document, abandon bool) {
	l.mu.Lock()
	if abandon && l.entries[path] == ent {
		delete(l.entries, path)
	}
	l.mu.Unlock()

	ent.doc = doc
	close(ent.done)
}

// lookup returns the entry for path without registering one.
func (l *Library) lookup(path string) (*entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ent, ok := l.entries[path]
	return ent, ok
}

// drop removes the entry for path if it has settled. In-flight entries are
// left alone: a reload request must not tear down work others are joined on.
// It reports whether an entry was removed.
func (l *Library) drop(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[path]
	if !ok {
		return false
	}
	if _, settled := ent.peek(); !settled {
		return false
	}
	delete(l.entries, path)
	return true
}

// Document returns the resolved document cached under path.
func (l *Library) Document(path string) (*Document, bool) {
	l.mu.Lock()
	ent, ok := l.entries[path]
	l.mu.Unlock()
	if !ok {
		return nil, false
	}

	doc, settled := ent.peek()
	if !settled || doc == nil {
		return nil, false
	}
	return doc, true
}

// Documents returns every resolved document, ordered by corpus path.
func (l *Library) Documents() []*Document {
	l.mu.Lock()
	entries := make(map[string]*entry, len(l.entries))
	for path, ent := range l.entries {
		entries[path] = ent
	}
	l.mu.Unlock()

	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		if doc, settled := entries[path].peek(); settled && doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs
}
