package formatters

import (
	"fmt"

	"github.com/docmodelhq/corpus/importgraph"
)

// RenderOptions contains optional parameters for rendering import graphs.
type RenderOptions struct {
	// Label is an optional title or label for the graph
	Label string
}

// Formatter is the interface that all graph formatters must implement.
type Formatter interface {
	// Format converts an import graph to a formatted string representation.
	Format(g importgraph.DocumentGraph, opts RenderOptions) (string, error)
}

// NewFormatter creates a Formatter for the specified format type.
// Supported formats: "json", "dot", "mermaid"
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "dot":
		return &DOTFormatter{}, nil
	case "mermaid":
		return &MermaidFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (valid options: dot, json, mermaid)", format)
	}
}
