package formatters

import (
	"encoding/json"
	"sort"

	"github.com/docmodelhq/corpus/importgraph"
)

// JSONFormatter formats import graphs as JSON.
type JSONFormatter struct{}

type jsonGraph struct {
	Label      string              `json:"label,omitempty"`
	Graph      map[string][]string `json:"graph"`
	Unresolved []string            `json:"unresolved,omitempty"`
}

// Format converts the import graph to JSON format.
func (f *JSONFormatter) Format(g importgraph.DocumentGraph, opts RenderOptions) (string, error) {
	var unresolved []string
	for node, meta := range g.Meta.Docs {
		if meta.Unresolved {
			unresolved = append(unresolved, node)
		}
	}
	sort.Strings(unresolved)

	data, err := json.MarshalIndent(jsonGraph{
		Label:      opts.Label,
		Graph:      g.Graph,
		Unresolved: unresolved,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
