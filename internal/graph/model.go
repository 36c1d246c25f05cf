// Package graph provides the pattern graph data model for qshape.
//
// A pattern graph is one conjunctive alternative of a query. Its vertices
// are node identities (the string form of an RDF term in the pattern) and
// its edges are triple patterns labelled with an interned predicate id.
package graph

import (
	"strconv"
	"strings"
)

// VertexKind represents the kind of term a vertex identity denotes.
type VertexKind string

const (
	VertexVariable VertexKind = "variable"
	VertexIRI      VertexKind = "iri"
	VertexLiteral  VertexKind = "literal"
	VertexBlank    VertexKind = "blank"
)

// KindOf returns the kind of term the node identity denotes.
func KindOf(id string) VertexKind {
	switch {
	case strings.HasPrefix(id, "?"):
		return VertexVariable
	case strings.HasPrefix(id, `"`):
		return VertexLiteral
	case strings.HasPrefix(id, "_:"):
		return VertexBlank
	default:
		return VertexIRI
	}
}

// Edge represents one triple pattern in a pattern graph.
type Edge struct {
	// Source is the node identity of the subject.
	Source string

	// Target is the node identity of the object.
	Target string

	// Predicate is the interned id of the predicate URI.
	Predicate int
}

// String renders the edge as "source -[predicate]-> target".
func (e Edge) String() string {
	return e.Source + " -[" + strconv.Itoa(e.Predicate) + "]-> " + e.Target
}
