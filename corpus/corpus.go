// Package corpus resolves documents and their transitive imports into a
// shared in-memory graph. Documents are fetched through namespace-mounted
// storage adapters, deduplicated by canonical path, and linked by import
// entries that fill in asynchronously as their target fetches settle.
package corpus

import (
	"context"
	"fmt"
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docmodelhq/corpus/storage"
)

// Corpus owns the document library and the storage routing used to fill it.
// Resolution failures (unresolved namespace, unreadable content, parse errors)
// are contained: they are reported through the event callback and surface as
// absent documents, never as returned errors.
type Corpus struct {
	storage *storage.Manager
	parser  Parser
	library *Library

	eventsMu sync.RWMutex
	events   EventCallback
	reportAt StatusLevel
}

// New creates a corpus over the given storage manager using the default JSON
// document parser. A nil manager gets an empty one.
func New(man *storage.Manager) *Corpus {
	return NewWithParser(man, NewJSONParser())
}

// NewWithParser creates a corpus with a caller-supplied content parser.
func NewWithParser(man *storage.Manager, parser Parser) *Corpus {
	if man == nil {
		man = storage.NewManager()
	}
	return &Corpus{
		storage: man,
		parser:  parser,
		library: NewLibrary(),
	}
}

// Storage returns the namespace routing table.
func (c *Corpus) Storage() *storage.Manager {
	return c.storage
}

// Library returns the document cache.
func (c *Corpus) Library() *Library {
	return c.library
}

// Mount registers adapter under namespace.
func (c *Corpus) Mount(namespace string, adapter storage.Adapter) {
	c.storage.Mount(namespace, adapter)
}

// SetDefaultNamespace selects the namespace unscoped paths resolve against.
func (c *Corpus) SetDefaultNamespace(namespace string) {
	c.storage.SetDefaultNamespace(namespace)
}

// FetchOptions tunes a single fetch.
type FetchOptions struct {
	// ForceReload drops the cached (resolved or failed) entry for the
	// top-level path before fetching, so its content is re-read. Entries the
	// reload transitively reaches stay cached.
	ForceReload bool
}

// fetchState tracks the deferred import fills started under one top-level
// fetch, so FetchObject can wait for them before returning.
type fetchState struct {
	deferred sync.WaitGroup
}

// FetchObject fetches the document at path together with its transitive
// imports. It returns nil (with a nil error) when the document cannot be
// resolved; the error return is reserved for context cancellation.
func (c *Corpus) FetchObject(ctx context.Context, path string) (*Document, error) {
	return c.FetchObjectWithOptions(ctx, path, FetchOptions{})
}

// FetchObjectWithOptions is FetchObject with explicit options.
func (c *Corpus) FetchObjectWithOptions(ctx context.Context, objectPath string, opts FetchOptions) (*Document, error) {
	c.report(StatusProgress, fmt.Sprintf("request object %q", objectPath))

	absPath, err := c.storage.CreateAbsoluteCorpusPath(objectPath, "")
	if err != nil {
		c.report(StatusError, fmt.Sprintf("invalid corpus path %q: %v", objectPath, err))
		return nil, nil
	}

	if opts.ForceReload {
		c.library.drop(absPath)
	}

	st := &fetchState{}
	var doc *Document

	ent, started := c.library.getOrStart(absPath)
	if started {
		doc = c.loadDocument(ctx, absPath, st)
		c.library.complete(absPath, ent, doc, doc == nil && ctx.Err() != nil)
	} else {
		doc, err = ent.await(ctx)
		if err != nil {
			return nil, err
		}
	}

	st.deferred.Wait()

	if doc == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.report(StatusWarning, fmt.Sprintf("unable to resolve %q", objectPath))
		return nil, nil
	}
	return doc, nil
}

// loadDocument runs the loader for one canonical path: read, parse, then
// resolve the declared imports concurrently. Any failure yields nil.
func (c *Corpus) loadDocument(ctx context.Context, absPath string, st *fetchState) *Document {
	adapter, objectPath, err := c.storage.ResolveAdapter(absPath)
	if err != nil {
		c.report(StatusWarning, fmt.Sprintf("namespace not registered for %q: %v", absPath, err))
		return nil
	}

	content, err := adapter.Read(ctx, objectPath)
	if err != nil {
		c.report(StatusWarning, fmt.Sprintf("unable to read %q: %v", absPath, err))
		return nil
	}

	parsed, err := c.parser.Parse(content)
	if err != nil {
		c.report(StatusWarning, fmt.Sprintf("unable to parse %q: %v", absPath, err))
		return nil
	}

	name := parsed.Name
	if name == "" {
		name = path.Base(objectPath)
	}

	doc := newDocument(name, absPath, storage.FolderPath(absPath), parsed.Imports)
	c.resolveImports(ctx, doc, st)
	c.report(StatusInfo, fmt.Sprintf("loaded %q", absPath))
	return doc
}

// resolveImports fans out over the document's declared imports. The import
// list order is fixed at parse time; completion order only affects when each
// entry's target fills in.
func (c *Corpus) resolveImports(ctx context.Context, doc *Document, st *fetchState) {
	g, gctx := errgroup.WithContext(ctx)
	for _, imp := range doc.Imports() {
		imp := imp
		g.Go(func() error {
			c.resolveImport(gctx, doc, imp, st)
			return nil
		})
	}
	_ = g.Wait()
}

// resolveImport settles one import entry. Imports that hit an entry still in
// flight are never awaited on the loader's own chain — that is how a cyclic
// import would deadlock — they are joined by a deferred fill that attaches the
// shared result once the in-flight load settles.
func (c *Corpus) resolveImport(ctx context.Context, owner *Document, imp *Import, st *fetchState) {
	absPath, err := c.storage.CreateAbsoluteCorpusPath(imp.CorpusPath(), owner.FolderPath)
	if err != nil {
		c.report(StatusWarning, fmt.Sprintf("invalid import %q in %q: %v", imp.CorpusPath(), owner.CorpusPath, err))
		imp.markFailed()
		return
	}
	imp.setTargetPath(absPath)

	ent, started := c.library.getOrStart(absPath)
	if started {
		target := c.loadDocument(ctx, absPath, st)
		c.library.complete(absPath, ent, target, target == nil && ctx.Err() != nil)
		c.attach(owner, imp, target)
		return
	}

	if target, settled := ent.peek(); settled {
		c.attach(owner, imp, target)
		return
	}

	st.deferred.Add(1)
	go func() {
		defer st.deferred.Done()
		target, _ := ent.await(context.Background())
		c.attach(owner, imp, target)
	}()
}

// attach fills an import entry with its settled target.
func (c *Corpus) attach(owner *Document, imp *Import, target *Document) {
	if target == nil {
		c.report(StatusWarning, fmt.Sprintf("unable to resolve import %q for %q", imp.CorpusPath(), owner.CorpusPath))
		imp.markFailed()
		return
	}
	imp.resolveTo(target)
	c.report(StatusInfo, fmt.Sprintf("resolved import %q for %q", imp.CorpusPath(), owner.CorpusPath))
}
