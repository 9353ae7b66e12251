package corpus_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docmodelhq/corpus/corpus"
	"github.com/docmodelhq/corpus/storage"
)

// docJSON builds a corpus document body declaring the given imports in order.
func docJSON(imports ...string) string {
	entries := make([]string, 0, len(imports))
	for _, imp := range imports {
		entries = append(entries, fmt.Sprintf(`{"corpusPath": %q}`, imp))
	}
	return fmt.Sprintf(`{"imports": [%s]}`, strings.Join(entries, ", "))
}

func newTestCorpus(t *testing.T, docs map[string]string) (*corpus.Corpus, *storage.MemoryAdapter) {
	t.Helper()

	adapter := storage.NewMemoryAdapter()
	for objectPath, content := range docs {
		adapter.Write(objectPath, []byte(content))
	}

	man := storage.NewManager()
	man.Mount("local", adapter)
	man.SetDefaultNamespace("local")
	return corpus.New(man), adapter
}

// countingAdapter wraps an adapter and counts reads per object path.
type countingAdapter struct {
	inner storage.Adapter

	mu    sync.Mutex
	reads map[string]int
}

func newCountingAdapter(inner storage.Adapter) *countingAdapter {
	return &countingAdapter{inner: inner, reads: make(map[string]int)}
}

func (a *countingAdapter) Read(ctx context.Context, objectPath string) ([]byte, error) {
	a.mu.Lock()
	a.reads[objectPath]++
	a.mu.Unlock()
	return a.inner.Read(ctx, objectPath)
}

func (a *countingAdapter) readCount(objectPath string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads[objectPath]
}

// delayAdapter wraps an adapter and delays reads per object path, to force
// target fetches to complete out of declaration order.
type delayAdapter struct {
	inner  storage.Adapter
	delays map[string]time.Duration
}

func (a *delayAdapter) Read(ctx context.Context, objectPath string) ([]byte, error) {
	if d, ok := a.delays[objectPath]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return a.inner.Read(ctx, objectPath)
}

func TestFetchObject_MissingImport(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/missingImport.cdm.json": docJSON("missing.cdm.json"),
	})

	doc, err := c.FetchObject(context.Background(), "local:/missingImport.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.Len(t, doc.Imports(), 1)
	require.Equal(t, "missing.cdm.json", doc.Imports()[0].CorpusPath())
	require.Nil(t, doc.Imports()[0].Doc())
	require.Equal(t, corpus.ImportFailed, doc.Imports()[0].State())
}

func TestFetchObject_MissingNestedImport(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/missingNestedImport.cdm.json": docJSON("notMissing.cdm.json"),
		"/notMissing.cdm.json":          docJSON("missing.cdm.json"),
	})

	doc, err := c.FetchObject(context.Background(), "local:/missingNestedImport.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), 1)

	firstImport := doc.Imports()[0].Doc()
	require.NotNil(t, firstImport)
	require.Equal(t, "notMissing.cdm.json", firstImport.Name)
	require.Len(t, firstImport.Imports(), 1)
	require.Nil(t, firstImport.Imports()[0].Doc())
}

func TestFetchObject_MultipleImports(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/multipleImports.cdm.json": docJSON("missingImport.cdm.json", "notMissing.cdm.json"),
		"/missingImport.cdm.json":   docJSON("missing.cdm.json"),
		"/notMissing.cdm.json":      docJSON(),
	})

	doc, err := c.FetchObject(context.Background(), "local:/multipleImports.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), 2)

	firstImport := doc.Imports()[0].Doc()
	require.NotNil(t, firstImport)
	require.Equal(t, "missingImport.cdm.json", firstImport.Name)
	require.Len(t, firstImport.Imports(), 1)
	require.Nil(t, firstImport.Imports()[0].Doc())

	secondImport := doc.Imports()[1].Doc()
	require.NotNil(t, secondImport)
	require.Equal(t, "notMissing.cdm.json", secondImport.Name)
	require.Empty(t, secondImport.Imports())
}

func TestFetchObject_UnmountedNamespace(t *testing.T) {
	c, _ := newTestCorpus(t, nil)

	doc, err := c.FetchObject(context.Background(), "cdm:/foundations.cdm.json")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestFetchObject_NoDefaultNamespace(t *testing.T) {
	man := storage.NewManager()
	c := corpus.New(man)

	doc, err := c.FetchObject(context.Background(), "doc.cdm.json")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestFetchObject_ImportThroughUnmountedNamespace(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/manifest.cdm.json": docJSON("cdm:/foundations.cdm.json"),
	})

	var warnings []string
	var mu sync.Mutex
	c.SetEventCallback(func(level corpus.StatusLevel, message string) {
		if level >= corpus.StatusWarning {
			mu.Lock()
			warnings = append(warnings, message)
			mu.Unlock()
		}
	}, corpus.StatusWarning)

	doc, err := c.FetchObject(context.Background(), "local:/manifest.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), 1)
	require.Equal(t, corpus.ImportFailed, doc.Imports()[0].State())
	require.Nil(t, doc.Imports()[0].Doc())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, warnings)
}

func TestFetchObject_SameImports(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/mainEntity.cdm.json":   docJSON("firstEntity.cdm.json", "secondEntity.cdm.json"),
		"/firstEntity.cdm.json":  docJSON("targetImport.cdm.json"),
		"/secondEntity.cdm.json": docJSON("targetImport.cdm.json"),
		"/targetImport.cdm.json": docJSON(),
	})

	mainDoc, err := c.FetchObject(context.Background(), "mainEntity.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, mainDoc)
	require.Len(t, mainDoc.Imports(), 2)

	firstImport := mainDoc.Imports()[0].Doc()
	secondImport := mainDoc.Imports()[1].Doc()
	require.NotNil(t, firstImport)
	require.NotNil(t, secondImport)

	require.Len(t, firstImport.Imports(), 1)
	require.NotNil(t, firstImport.Imports()[0].Doc())
	require.Len(t, secondImport.Imports(), 1)
	require.NotNil(t, secondImport.Imports()[0].Doc())

	// The shared import resolves to the identical instance, not a copy.
	require.Same(t, firstImport.Imports()[0].Doc(), secondImport.Imports()[0].Doc())
}

func TestFetchObject_SameMissingImports(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/mainEntity.cdm.json":   docJSON("firstEntity.cdm.json", "secondEntity.cdm.json"),
		"/firstEntity.cdm.json":  docJSON("missing.cdm.json"),
		"/secondEntity.cdm.json": docJSON("missing.cdm.json"),
	})

	mainDoc, err := c.FetchObject(context.Background(), "mainEntity.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, mainDoc)
	require.Len(t, mainDoc.Imports(), 2)

	firstImport := mainDoc.Imports()[0].Doc()
	secondImport := mainDoc.Imports()[1].Doc()
	require.NotNil(t, firstImport)
	require.NotNil(t, secondImport)

	require.Len(t, firstImport.Imports(), 1)
	require.Nil(t, firstImport.Imports()[0].Doc())
	require.Len(t, secondImport.Imports(), 1)
	require.Nil(t, secondImport.Imports()[0].Doc())
}

func TestFetchObject_AlreadyPresentImports(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/mainEntity.cdm.json":   docJSON("targetImport.cdm.json"),
		"/secondEntity.cdm.json": docJSON("targetImport.cdm.json"),
		"/targetImport.cdm.json": docJSON(),
	})

	mainDoc, err := c.FetchObject(context.Background(), "mainEntity.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, mainDoc)
	require.Len(t, mainDoc.Imports(), 1)

	importDoc := mainDoc.Imports()[0].Doc()
	require.NotNil(t, importDoc)

	secondDoc, err := c.FetchObject(context.Background(), "secondEntity.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, secondDoc)
	require.Len(t, secondDoc.Imports(), 1)

	secondImportDoc := secondDoc.Imports()[0].Doc()
	require.NotNil(t, secondImportDoc)

	require.Same(t, importDoc, secondImportDoc)
}

func TestFetchObject_ConcurrentFetchesShareOneLoad(t *testing.T) {
	adapter := storage.NewMemoryAdapter()
	adapter.Write("/shared.cdm.json", []byte(docJSON()))
	counting := newCountingAdapter(adapter)

	man := storage.NewManager()
	man.Mount("local", counting)
	man.SetDefaultNamespace("local")
	c := corpus.New(man)

	const fetchers = 16
	docs := make([]*corpus.Document, fetchers)
	errs := make([]error, fetchers)

	var wg sync.WaitGroup
	for i := 0; i < fetchers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs[i], errs[i] = c.FetchObject(context.Background(), "shared.cdm.json")
		}()
	}
	wg.Wait()

	for i := 0; i < fetchers; i++ {
		require.NoError(t, errs[i])
	}

	require.NotNil(t, docs[0])
	for i := 1; i < fetchers; i++ {
		require.Same(t, docs[0], docs[i])
	}
	require.Equal(t, 1, counting.readCount("/shared.cdm.json"))
}

func TestFetchObject_ImportOrderPreserved(t *testing.T) {
	declared := []string{"e1.cdm.json", "e2.cdm.json", "e3.cdm.json", "e4.cdm.json", "e5.cdm.json"}

	adapter := storage.NewMemoryAdapter()
	adapter.Write("/main.cdm.json", []byte(docJSON(declared...)))
	delays := make(map[string]time.Duration, len(declared))
	for i, name := range declared {
		adapter.Write("/"+name, []byte(docJSON()))
		// Earlier declarations finish last.
		delays["/"+name] = time.Duration(len(declared)-i) * 20 * time.Millisecond
	}

	man := storage.NewManager()
	man.Mount("local", &delayAdapter{inner: adapter, delays: delays})
	man.SetDefaultNamespace("local")
	c := corpus.New(man)

	doc, err := c.FetchObject(context.Background(), "main.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), len(declared))

	for i, imp := range doc.Imports() {
		require.Equal(t, declared[i], imp.CorpusPath())
		require.NotNil(t, imp.Doc(), "import %d should have resolved", i)
		require.Equal(t, declared[i], imp.Doc().Name)
	}
}

func TestFetchObject_CyclicImports(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/a.cdm.json": docJSON("b.cdm.json"),
		"/b.cdm.json": docJSON("a.cdm.json"),
	})

	docA, err := c.FetchObject(context.Background(), "a.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, docA)
	require.Len(t, docA.Imports(), 1)

	docB := docA.Imports()[0].Doc()
	require.NotNil(t, docB)
	require.Equal(t, "b.cdm.json", docB.Name)
	require.Len(t, docB.Imports(), 1)

	// The back-edge joins the in-flight load of a.cdm.json and receives the
	// same instance once it settles.
	require.Same(t, docA, docB.Imports()[0].Doc())
}

func TestFetchObject_SelfImport(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/self.cdm.json": docJSON("self.cdm.json"),
	})

	doc, err := c.FetchObject(context.Background(), "self.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), 1)
	require.Same(t, doc, doc.Imports()[0].Doc())
}

func TestFetchObject_FailedFetchIsCachedUntilForceReload(t *testing.T) {
	adapter := storage.NewMemoryAdapter()
	counting := newCountingAdapter(adapter)

	man := storage.NewManager()
	man.Mount("local", counting)
	man.SetDefaultNamespace("local")
	c := corpus.New(man)

	doc, err := c.FetchObject(context.Background(), "late.cdm.json")
	require.NoError(t, err)
	require.Nil(t, doc)

	// The failure is terminal for the path; a plain refetch does not re-read.
	doc, err = c.FetchObject(context.Background(), "late.cdm.json")
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, 1, counting.readCount("/late.cdm.json"))

	adapter.Write("/late.cdm.json", []byte(docJSON()))

	doc, err = c.FetchObjectWithOptions(context.Background(), "late.cdm.json", corpus.FetchOptions{ForceReload: true})
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "late.cdm.json", doc.Name)
	require.Equal(t, 2, counting.readCount("/late.cdm.json"))
}

func TestFetchObject_ParseFailure(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/broken.cdm.json": `{"imports": [`,
	})

	doc, err := c.FetchObject(context.Background(), "broken.cdm.json")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestFetchObject_ParentSurvivesUnparseableImport(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/parent.cdm.json": docJSON("broken.cdm.json", "fine.cdm.json"),
		"/broken.cdm.json": `not json at all`,
		"/fine.cdm.json":   docJSON(),
	})

	doc, err := c.FetchObject(context.Background(), "parent.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), 2)
	require.Nil(t, doc.Imports()[0].Doc())
	require.Equal(t, corpus.ImportFailed, doc.Imports()[0].State())
	require.NotNil(t, doc.Imports()[1].Doc())
}

func TestFetchObject_RelativeImportResolution(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/folder/parent.cdm.json":    docJSON("sub/child.cdm.json", "../sibling.cdm.json"),
		"/folder/sub/child.cdm.json": docJSON(),
		"/sibling.cdm.json":          docJSON(),
	})

	doc, err := c.FetchObject(context.Background(), "local:/folder/parent.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Imports(), 2)

	child := doc.Imports()[0]
	require.Equal(t, "sub/child.cdm.json", child.CorpusPath())
	require.Equal(t, "local:/folder/sub/child.cdm.json", child.TargetPath())
	require.NotNil(t, child.Doc())

	sibling := doc.Imports()[1]
	require.Equal(t, "local:/sibling.cdm.json", sibling.TargetPath())
	require.NotNil(t, sibling.Doc())
}

func TestFetchObject_DocumentNameOverride(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/named.cdm.json": `{"documentName": "renamed", "imports": []}`,
	})

	doc, err := c.FetchObject(context.Background(), "named.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "renamed", doc.Name)
}

func TestFetchObject_CancelledContextDoesNotPoisonCache(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/doc.cdm.json": docJSON(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, err := c.FetchObject(ctx, "doc.cdm.json")
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, doc)

	// The abandoned attempt must not leave a terminal failure behind.
	doc, err = c.FetchObject(context.Background(), "doc.cdm.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestFetchObject_EquivalentSpellingsShareOneDocument(t *testing.T) {
	c, _ := newTestCorpus(t, map[string]string{
		"/a/doc.cdm.json": docJSON(),
	})

	first, err := c.FetchObject(context.Background(), "local:/a/doc.cdm.json")
	require.NoError(t, err)
	second, err := c.FetchObject(context.Background(), "a/./doc.cdm.json")
	require.NoError(t, err)

	require.NotNil(t, first)
	require.Same(t, first, second)
}
