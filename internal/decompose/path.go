package decompose

import "github.com/Benny93/qshape-go/internal/sparql"

// PathExpander rewrites a property path between two nodes into every
// sequence of plain triples the path can stand for.
//
// Repetition is unrolled to one and two applications of the repeated
// path. This is an approximation for shape statistics, not a fixed point.
type PathExpander struct {
	gen VarGenerator
	t   *tracker
}

// NewPathExpander returns an expander drawing intermediate variables
// from gen.
func NewPathExpander(gen VarGenerator) *PathExpander {
	return newPathExpander(gen, newTracker(0))
}

func newPathExpander(gen VarGenerator, t *tracker) *PathExpander {
	return &PathExpander{gen: gen, t: t}
}

// Features returns the path features met so far.
func (e *PathExpander) Features() FeatureSet {
	return e.t.features
}

// Unsupported reports whether a path could not be expanded.
func (e *PathExpander) Unsupported() bool {
	return e.t.unsupported
}

// Expand returns the alternatives of path between start and end. An
// empty TripleList alternative means the path may match without
// traversing any edge.
func (e *PathExpander) Expand(path sparql.Path, start, end string) []TripleList {
	switch p := path.(type) {
	case *sparql.Link:
		e.t.tag(FeatureLink)
		return []TripleList{{{Subject: start, Predicate: p.IRI, Object: end}}}

	case *sparql.Inverse:
		e.t.tag(FeatureInverse)
		return e.Expand(p.Path, end, start)

	case *sparql.NegatedPropertySet:
		e.t.reject(FeatureNegatedProps)
		return nil

	case *sparql.ZeroOrOne:
		e.t.tag(FeatureZeroOrOne)
		return e.t.appendAll([]TripleList{{}}, e.Expand(p.Path, start, end))

	case *sparql.ZeroOrMore:
		e.t.tag(FeatureZeroOrMore)
		return e.t.appendAll([]TripleList{{}}, e.repeat(p.Path, start, end))

	case *sparql.OneOrMore:
		e.t.tag(FeatureOneOrMore)
		return e.repeat(p.Path, start, end)

	case *sparql.Alt:
		e.t.tag(FeatureAlt)
		return e.t.appendAll(e.Expand(p.Left, start, end), e.Expand(p.Right, start, end))

	case *sparql.Seq:
		e.t.tag(FeatureSeq)
		center := e.fresh()
		left := e.Expand(p.Left, start, center)
		right := e.Expand(p.Right, center, end)
		return e.joinAt(left, right, start, center, end)
	}

	e.t.reject(FeatureUnsupported)
	return nil
}

// repeat expands one application of path followed by two applications
// through a fresh center. The two applications are cross-combined as
// they are: unlike Seq, an empty application leaves the center in place.
func (e *PathExpander) repeat(path sparql.Path, start, end string) []TripleList {
	once := e.Expand(path, start, end)
	center := e.fresh()
	twice := e.t.combine(e.Expand(path, start, center), e.Expand(path, center, end))
	return e.t.appendAll(once, twice)
}

// joinAt chains every left alternative (start..center) with every right
// alternative (center..end). When one side matched without an edge the
// center collapses onto the other side's endpoint.
func (e *PathExpander) joinAt(left, right []TripleList, start, center, end string) []TripleList {
	fullL, emptyL := split(left)
	fullR, emptyR := split(right)

	out := e.t.join(fullL, fullR)
	out = e.t.appendAll(out, e.t.join(emptyL, rename(fullR, center, start)))
	out = e.t.appendAll(out, e.t.join(rename(fullL, center, end), emptyR))
	return e.t.appendAll(out, e.t.join(emptyL, emptyR))
}

func (e *PathExpander) fresh() string {
	return "?" + e.gen.Next()
}

// split partitions alternatives into those with triples and the empty
// ones.
func split(alts []TripleList) (full, empty []TripleList) {
	for _, l := range alts {
		if len(l) == 0 {
			empty = append(empty, l)
		} else {
			full = append(full, l)
		}
	}
	return full, empty
}

// rename returns copies of alts with every occurrence of node from
// replaced by to.
func rename(alts []TripleList, from, to string) []TripleList {
	out := make([]TripleList, len(alts))
	for i, l := range alts {
		nl := make(TripleList, len(l))
		for j, t := range l {
			if t.Subject == from {
				t.Subject = to
			}
			if t.Object == from {
				t.Object = to
			}
			nl[j] = t
		}
		out[i] = nl
	}
	return out
}
