package formatters

import (
	"fmt"
	"strings"

	"github.com/docmodelhq/corpus/importgraph"
)

// DOTFormatter formats import graphs as Graphviz DOT.
type DOTFormatter struct{}

// Format converts the import graph to DOT format. Nodes are emitted in sorted
// order so output is stable; unresolved import targets are drawn dashed.
func (f *DOTFormatter) Format(g importgraph.DocumentGraph, opts RenderOptions) (string, error) {
	var sb strings.Builder

	sb.WriteString("digraph imports {\n")
	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", opts.Label))
		sb.WriteString("  labelloc=t;\n")
	}
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled, fillcolor=lightyellow];\n")
	sb.WriteString("\n")

	nodes := g.Graph.Nodes()
	for _, node := range nodes {
		meta := g.Meta.Docs[node]
		if meta.Unresolved {
			sb.WriteString(fmt.Sprintf("  %q [label=%q, style=\"filled,dashed\", fillcolor=mistyrose, color=red];\n",
				node, nodeLabel(node, meta)))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %q [label=%q];\n", node, nodeLabel(node, meta)))
	}

	sb.WriteString("\n")
	for _, node := range nodes {
		for _, dep := range g.Graph[node] {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", node, dep))
		}
	}
	sb.WriteString("}\n")

	return sb.String(), nil
}

// nodeLabel returns the display label for a node: the document name when
// known, otherwise the path base name.
func nodeLabel(node string, meta importgraph.DocumentMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	if idx := strings.LastIndex(node, "/"); idx >= 0 {
		return node[idx+1:]
	}
	return node
}
