package importgraph

import (
	"errors"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// Directed converts the adjacency map into a directed graph for traversal and
// analysis.
func (g Graph) Directed() (graphlib.Graph[string, string], error) {
	dg := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, node := range g.Nodes() {
		if err := dg.AddVertex(node); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, err
		}
	}

	for _, node := range g.Nodes() {
		for _, dep := range g[node] {
			if _, err := dg.Vertex(dep); err != nil {
				// Dangling reference; skip rather than invent a node.
				continue
			}
			if err := dg.AddEdge(node, dep); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}

	return dg, nil
}

// Cycles returns the import cycles in the graph, one slice of corpus paths per
// cycle, each sorted for stable output.
func (g Graph) Cycles() ([][]string, error) {
	dg, err := g.Directed()
	if err != nil {
		return nil, err
	}

	components, err := graphlib.StronglyConnectedComponents(dg)
	if err != nil {
		return nil, err
	}

	var cycles [][]string
	for _, component := range components {
		if len(component) > 1 {
			sorted := append([]string(nil), component...)
			sort.Strings(sorted)
			cycles = append(cycles, sorted)
			continue
		}
		if len(component) == 1 && g.hasSelfEdge(component[0]) {
			cycles = append(cycles, []string{component[0]})
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

func (g Graph) hasSelfEdge(node string) bool {
	for _, dep := range g[node] {
		if dep == node {
			return true
		}
	}
	return false
}
