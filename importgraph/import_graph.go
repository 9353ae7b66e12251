// Package importgraph flattens resolved corpus documents into adjacency form
// for traversal and rendering.
package importgraph

import (
	"sort"

	"github.com/docmodelhq/corpus/corpus"
	"github.com/docmodelhq/corpus/storage"
)

// Graph maps a document's canonical corpus path to the canonical paths of its
// imports, in declaration order. Import targets that failed to resolve appear
// as leaf nodes with no outgoing edges.
type Graph map[string][]string

// Nodes returns every node in sorted order.
func (g Graph) Nodes() []string {
	nodes := make([]string, 0, len(g))
	for node := range g {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

// DocumentGraph wraps an import graph with per-document metadata.
type DocumentGraph struct {
	Graph Graph
	Meta  Metadata
}

// Metadata contains metadata keyed by corpus path.
type Metadata struct {
	Docs map[string]DocumentMetadata
}

// DocumentMetadata holds metadata for a single graph node.
type DocumentMetadata struct {
	// Name is the document's declared name; empty for unresolved targets.
	Name string
	// Namespace is the node's namespace token.
	Namespace string
	// Unresolved marks an import target that could not be loaded.
	Unresolved bool
}

// NewDocumentGraph flattens every document reachable from root. Shared import
// targets contribute one node regardless of how many documents reference them;
// cyclic graphs are handled.
func NewDocumentGraph(root *corpus.Document) DocumentGraph {
	g := make(Graph)
	docs := make(map[string]DocumentMetadata)

	var walk func(doc *corpus.Document)
	walk = func(doc *corpus.Document) {
		if _, seen := g[doc.CorpusPath]; seen {
			return
		}
		g[doc.CorpusPath] = []string{}
		docs[doc.CorpusPath] = DocumentMetadata{
			Name:      doc.Name,
			Namespace: namespaceOf(doc.CorpusPath),
		}

		for _, imp := range doc.Imports() {
			target := imp.TargetPath()
			if target == "" {
				target = imp.CorpusPath()
			}
			g[doc.CorpusPath] = append(g[doc.CorpusPath], target)

			if targetDoc := imp.Doc(); targetDoc != nil {
				walk(targetDoc)
				continue
			}
			if _, seen := g[target]; !seen {
				g[target] = []string{}
				docs[target] = DocumentMetadata{
					Namespace:  namespaceOf(target),
					Unresolved: true,
				}
			}
		}
	}
	walk(root)

	return DocumentGraph{Graph: g, Meta: Metadata{Docs: docs}}
}

func namespaceOf(corpusPath string) string {
	namespace, _ := storage.SplitNamespacePath(corpusPath)
	return namespace
}
