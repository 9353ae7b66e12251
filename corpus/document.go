package corpus

import "sync"

// ImportState describes the lifecycle of an import's target reference.
type ImportState int

const (
	// ImportUnresolved means the target fetch has not settled yet.
	ImportUnresolved ImportState = iota
	// ImportResolved means the target document was loaded and attached.
	ImportResolved
	// ImportFailed means the target could not be resolved; the reference stays absent.
	ImportFailed
)

func (s ImportState) String() string {
	switch s {
	case ImportUnresolved:
		return "unresolved"
	case ImportResolved:
		return "resolved"
	case ImportFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Import is a reference from one document to another. It holds the literal
// reference string as written in the owning document and, once the target
// fetch settles, either the target document or a failure marker. The target is
// filled at most once; a settled import never changes again.
type Import struct {
	corpusPath string

	mu         sync.Mutex
	state      ImportState
	doc        *Document
	targetPath string
}

func newImport(corpusPath string) *Import {
	return &Import{corpusPath: corpusPath}
}

// CorpusPath returns the reference exactly as declared in the owning document.
func (i *Import) CorpusPath() string {
	return i.corpusPath
}

// State returns the current lifecycle state of the target reference.
func (i *Import) State() ImportState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Doc returns the resolved target document, or nil while unresolved or after
// a failed resolution.
func (i *Import) Doc() *Document {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.doc
}

// TargetPath returns the canonical path the reference resolved to, when known.
// It is set for both resolved and failed imports whose path could be
// canonicalized.
func (i *Import) TargetPath() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.targetPath
}

func (i *Import) setTargetPath(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.targetPath == "" {
		i.targetPath = path
	}
}

// resolveTo attaches the target document. Fill-once: later calls are ignored.
func (i *Import) resolveTo(doc *Document) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != ImportUnresolved {
		return
	}
	i.state = ImportResolved
	i.doc = doc
}

// markFailed records that the target could not be resolved. Fill-once.
func (i *Import) markFailed() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != ImportUnresolved {
		return
	}
	i.state = ImportFailed
}

// Document is one loaded corpus document. Its identity is the canonical
// corpus path; the import list is fixed at parse time and only the individual
// import targets are filled in as their fetches settle.
type Document struct {
	// Name is the document's declared name, defaulting to the path base name.
	Name string
	// CorpusPath is the canonical "namespace:/object/path" identity.
	CorpusPath string
	// FolderPath is the canonical folder the document lives in, with a
	// trailing slash. Relative imports resolve against it.
	FolderPath string

	imports []*Import
}

func newDocument(name, corpusPath, folderPath string, importPaths []string) *Document {
	imports := make([]*Import, 0, len(importPaths))
	for _, path := range importPaths {
		imports = append(imports, newImport(path))
	}
	return &Document{
		Name:       name,
		CorpusPath: corpusPath,
		FolderPath: folderPath,
		imports:    imports,
	}
}

// Imports returns the document's import entries in declaration order.
func (d *Document) Imports() []*Import {
	return d.imports
}
