// Package sparql provides the structural pattern tree of a SPARQL query
// and a parser that produces it from query text.
//
// The tree is a closed set of node kinds. Element and Path are sealed
// interfaces: only the types in this package implement them, so consumers
// can switch over them exhaustively and treat anything else as unsupported.
package sparql

import "strconv"

const (
	rdfType  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	rdfFirst = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	rdfRest  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	rdfNil   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"

	xsdString  = "http://www.w3.org/2001/XMLSchema#string"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// TermKind identifies the kind of RDF term in a pattern position.
type TermKind int

const (
	TermIRI TermKind = iota
	TermVariable
	TermLiteral
	TermBlank
)

// Term is an RDF term as written in a triple pattern.
type Term struct {
	Kind TermKind

	// Value is the IRI, the variable name without '?', the literal's
	// lexical form, or the blank node label.
	Value string

	// Lang is the language tag of a literal, if any.
	Lang string

	// Datatype is the datatype IRI of a typed literal, if any.
	Datatype string
}

// IRI returns an IRI term.
func IRI(iri string) Term { return Term{Kind: TermIRI, Value: iri} }

// Var returns a variable term. The name excludes the leading '?'.
func Var(name string) Term { return Term{Kind: TermVariable, Value: name} }

// Literal returns a plain literal term.
func Literal(lexical string) Term { return Term{Kind: TermLiteral, Value: lexical} }

// Blank returns a blank node term with the given label.
func Blank(label string) Term { return Term{Kind: TermBlank, Value: label} }

// IsVariable reports whether the term is a variable.
func (t Term) IsVariable() bool { return t.Kind == TermVariable }

// String returns the node identity of the term: "?a" for variables,
// the bare IRI for IRIs, a quoted lexical form for literals and "_:label"
// for blank nodes. Two terms denote the same pattern node exactly when
// their identities are equal.
func (t Term) String() string {
	switch t.Kind {
	case TermVariable:
		return "?" + t.Value
	case TermBlank:
		return "_:" + t.Value
	case TermLiteral:
		s := strconv.Quote(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" && t.Datatype != xsdString {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return t.Value
	}
}

// Form is the query form.
type Form string

const (
	FormSelect    Form = "SELECT"
	FormConstruct Form = "CONSTRUCT"
	FormDescribe  Form = "DESCRIBE"
	FormAsk       Form = "ASK"
)

// Query is a parsed query.
type Query struct {
	// Form is the query form.
	Form Form

	// Base is the BASE IRI, if declared.
	Base string

	// Prefixes holds every prefix visible to the query, including
	// prefixes supplied through WithPrefixes.
	Prefixes map[string]string

	// Projection lists the projected variables of a SELECT or the
	// resources of a DESCRIBE. Empty for '*'.
	Projection []Term

	// DefaultGraphs and NamedGraphs hold the FROM and FROM NAMED IRIs.
	DefaultGraphs []string
	NamedGraphs   []string

	// Pattern is the WHERE clause. It is nil when the query has none,
	// e.g. "DESCRIBE <x>".
	Pattern Element
}

// Element is a node of the pattern tree.
type Element interface {
	element()
}

// Group is a group graph pattern: "{ ... }".
type Group struct {
	Elements []Element
}

// Optional is "OPTIONAL { ... }".
type Optional struct {
	Body Element
}

// Union is "{ ... } UNION { ... }" with two or more branches.
type Union struct {
	Branches []Element
}

// Minus is "MINUS { ... }".
type Minus struct {
	Body Element
}

// Filter is a FILTER constraint. Exists holds every EXISTS and NOT EXISTS
// pattern found anywhere inside the expression.
type Filter struct {
	Expression string
	Exists     []Exists
}

// Exists is an EXISTS or NOT EXISTS pattern inside a filter expression.
type Exists struct {
	Negated bool
	Pattern Element
}

// SubQuery is a nested SELECT.
type SubQuery struct {
	Query *Query
}

// Service is "SERVICE [SILENT] endpoint { ... }".
type Service struct {
	Endpoint Term
	Silent   bool
	Body     Element
}

// Dataset wraps a query pattern evaluated against an explicit dataset
// given by FROM and FROM NAMED clauses.
type Dataset struct {
	DefaultGraphs []string
	NamedGraphs   []string
	Body          Element
}

// NamedGraph is "GRAPH name { ... }".
type NamedGraph struct {
	Graph Term
	Body  Element
}

// PathBlock is a run of triple patterns, some of which may use property
// path expressions in predicate position.
type PathBlock struct {
	Triples []TriplePattern
}

// Bind is "BIND (expr AS ?var)".
type Bind struct {
	Expression string
	Var        Term
}

// Values is an inline data block.
type Values struct {
	Vars []Term
	Rows int
}

func (*Group) element()      {}
func (*Optional) element()   {}
func (*Union) element()      {}
func (*Minus) element()      {}
func (*Filter) element()     {}
func (*SubQuery) element()   {}
func (*Service) element()    {}
func (*Dataset) element()    {}
func (*NamedGraph) element() {}
func (*PathBlock) element()  {}
func (*Bind) element()       {}
func (*Values) element()     {}

// TriplePattern is one triple of a PathBlock. When Path is nil the
// predicate is Predicate, an IRI or a variable; otherwise Predicate is
// unset and Path holds the path expression.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Path      Path
	Object    Term
}

// Path is a property path expression.
type Path interface {
	path()
}

// Link is a single predicate IRI.
type Link struct {
	IRI string
}

// Inverse is "^path".
type Inverse struct {
	Path Path
}

// NegatedPropertySet is "!iri" or "!(iri|^iri|...)".
type NegatedPropertySet struct {
	Forward  []string
	Backward []string
}

// ZeroOrOne is "path?".
type ZeroOrOne struct {
	Path Path
}

// ZeroOrMore is "path*".
type ZeroOrMore struct {
	Path Path
}

// OneOrMore is "path+".
type OneOrMore struct {
	Path Path
}

// Alt is "left|right".
type Alt struct {
	Left, Right Path
}

// Seq is "left/right".
type Seq struct {
	Left, Right Path
}

func (*Link) path()               {}
func (*Inverse) path()            {}
func (*NegatedPropertySet) path() {}
func (*ZeroOrOne) path()          {}
func (*ZeroOrMore) path()         {}
func (*OneOrMore) path()          {}
func (*Alt) path()                {}
func (*Seq) path()                {}
