package formatters

import (
	"fmt"
	"strings"

	"github.com/docmodelhq/corpus/importgraph"
)

// MermaidFormatter formats import graphs as Mermaid.js flowcharts.
type MermaidFormatter struct{}

// Format converts the import graph to Mermaid.js flowchart format.
// Mermaid node IDs can't contain colons or slashes, so nodes get synthetic
// IDs assigned in sorted path order.
func (f *MermaidFormatter) Format(g importgraph.DocumentGraph, opts RenderOptions) (string, error) {
	var sb strings.Builder

	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}
	sb.WriteString("flowchart LR\n")

	nodes := g.Graph.Nodes()
	nodeIDs := make(map[string]string, len(nodes))
	hasUnresolved := false

	for i, node := range nodes {
		id := fmt.Sprintf("n%d", i)
		nodeIDs[node] = id

		meta := g.Meta.Docs[node]
		if meta.Unresolved {
			hasUnresolved = true
			sb.WriteString(fmt.Sprintf("    %s[%q]:::unresolved\n", id, nodeLabel(node, meta)))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s[%q]\n", id, nodeLabel(node, meta)))
	}

	for _, node := range nodes {
		for _, dep := range g.Graph[node] {
			target, ok := nodeIDs[dep]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeIDs[node], target))
		}
	}

	if hasUnresolved {
		sb.WriteString("    classDef unresolved stroke:#c00,stroke-dasharray:5 5\n")
	}

	return sb.String(), nil
}
