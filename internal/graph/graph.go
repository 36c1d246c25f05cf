package graph

import (
	"slices"
)

// PatternGraph is a directed, predicate-labelled multigraph over node
// identities.
//
// Vertices and edges keep insertion order, which makes star extraction
// deterministic. Parallel edges between the same vertices are kept when
// their predicates differ; adding an identical (source, predicate, target)
// edge twice is a no-op.
//
// A PatternGraph is built and read by one worker and is not safe for
// concurrent mutation.
type PatternGraph struct {
	vertices []string
	index    map[string]int
	edges    []Edge
	edgeSet  map[Edge]struct{}

	// Adjacency indexes, kept in sync by AddEdge.
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// New creates a new empty pattern graph.
func New() *PatternGraph {
	return &PatternGraph{
		index:    make(map[string]int),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
}

// VertexCount returns the number of vertices.
func (g *PatternGraph) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the number of edges.
func (g *PatternGraph) EdgeCount() int {
	return len(g.edges)
}

// AddVertex adds a vertex. Returns false if it already existed.
func (g *PatternGraph) AddVertex(id string) bool {
	if _, ok := g.index[id]; ok {
		return false
	}
	g.index[id] = len(g.vertices)
	g.vertices = append(g.vertices, id)
	return true
}

// HasVertex reports whether the vertex exists.
func (g *PatternGraph) HasVertex(id string) bool {
	_, ok := g.index[id]
	return ok
}

// AddEdge adds the edge source -[predicate]-> target, adding the subject
// and then the object as vertices if needed. Returns false if the
// identical edge already existed.
func (g *PatternGraph) AddEdge(source string, predicate int, target string) bool {
	g.AddVertex(source)
	g.AddVertex(target)

	e := Edge{Source: source, Target: target, Predicate: predicate}
	if _, ok := g.edgeSet[e]; ok {
		return false
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[source] = append(g.outgoing[source], e)
	g.incoming[target] = append(g.incoming[target], e)
	return true
}

// HasEdge reports whether the edge exists.
func (g *PatternGraph) HasEdge(source string, predicate int, target string) bool {
	_, ok := g.edgeSet[Edge{Source: source, Target: target, Predicate: predicate}]
	return ok
}

// Vertices returns the vertices in insertion order.
func (g *PatternGraph) Vertices() []string {
	return slices.Clone(g.vertices)
}

// Edges returns the edges in insertion order.
func (g *PatternGraph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Outgoing returns the edges leaving the vertex.
func (g *PatternGraph) Outgoing(id string) []Edge {
	return slices.Clone(g.outgoing[id])
}

// Incoming returns the edges entering the vertex.
func (g *PatternGraph) Incoming(id string) []Edge {
	return slices.Clone(g.incoming[id])
}

// OutDegree returns the number of edges leaving the vertex.
func (g *PatternGraph) OutDegree(id string) int {
	return len(g.outgoing[id])
}

// OutPredicates returns the distinct predicate ids on the edges leaving
// the vertex, sorted ascending.
func (g *PatternGraph) OutPredicates(id string) []int {
	out := g.outgoing[id]
	if len(out) == 0 {
		return nil
	}
	preds := make([]int, 0, len(out))
	for _, e := range out {
		preds = append(preds, e.Predicate)
	}
	slices.Sort(preds)
	return slices.Compact(preds)
}

// Stats returns a summary of graph size.
func (g *PatternGraph) Stats() map[string]int {
	return map[string]int{
		"vertices": len(g.vertices),
		"edges":    len(g.edges),
	}
}
