package decompose

import "github.com/Benny93/qshape-go/internal/sparql"

// SubQueryMode selects how nested SELECTs are handled.
type SubQueryMode int

const (
	// SubQueryReject rejects any query containing a sub-query.
	SubQueryReject SubQueryMode = iota

	// SubQueryAuxiliary walks a sub-query's pattern on its own and keeps
	// its alternatives as auxiliary lines, the way MINUS bodies are kept.
	SubQueryAuxiliary
)

// ParseSubQueryMode maps "reject" and "auxiliary" to a mode.
func ParseSubQueryMode(s string) (SubQueryMode, bool) {
	switch s {
	case "", "reject":
		return SubQueryReject, true
	case "auxiliary":
		return SubQueryAuxiliary, true
	}
	return SubQueryReject, false
}

// String returns the configuration name of the mode.
func (m SubQueryMode) String() string {
	if m == SubQueryAuxiliary {
		return "auxiliary"
	}
	return "reject"
}

// Walker reduces pattern tree nodes to alternatives. A Walker decomposes
// one query: it accumulates features across calls and is not safe for
// concurrent use.
type Walker struct {
	t          *tracker
	paths      *PathExpander
	subQueries SubQueryMode
}

// NewWalker returns a walker for one query.
func NewWalker(gen VarGenerator, mode SubQueryMode, maxAlternatives int) *Walker {
	t := newTracker(maxAlternatives)
	return &Walker{
		t:          t,
		paths:      newPathExpander(gen, t),
		subQueries: mode,
	}
}

// Features returns the features met so far, path features included.
func (w *Walker) Features() FeatureSet {
	return w.t.features
}

// Unsupported reports whether the walk met a construct that rejects the
// query.
func (w *Walker) Unsupported() bool {
	return w.t.unsupported
}

// groupState is the fold state of one group.
type groupState struct {
	main []TripleList
	aux  []TripleList

	// optionals holds the main alternatives of each OPTIONAL body, one
	// entry per OPTIONAL, applied once the group is complete.
	optionals [][]TripleList
}

// Walk reduces el to its alternatives. Walk starts from a fresh seed.
func (w *Walker) Walk(el sparql.Element) Result {
	if g, ok := el.(*sparql.Group); ok {
		w.t.tag(FeatureGroup)
		return w.walkElements(g.Elements)
	}
	return w.walkElements([]sparql.Element{el})
}

func (w *Walker) walkElements(elements []sparql.Element) Result {
	st := &groupState{main: seed()}
	for _, el := range elements {
		w.fold(st, el)
	}
	// Each OPTIONAL doubles the alternatives: not taken, then taken.
	for _, opt := range st.optionals {
		if len(opt) > 0 {
			st.main = w.t.appendAll(st.main, w.t.combine(st.main, opt))
		}
	}
	return Result{Main: st.main, Auxiliary: st.aux}
}

// nest folds a child walked from a fresh seed into the group like a
// nested group.
func (w *Walker) nest(st *groupState, body sparql.Element) {
	r := w.Walk(body)
	st.main = w.t.combine(st.main, r.Main)
	st.aux = append(st.aux, r.Auxiliary...)
}

// isolate walks body from a fresh seed and keeps all of its alternatives
// as auxiliary lines.
func (w *Walker) isolate(st *groupState, body sparql.Element) {
	r := w.Walk(body)
	st.aux = append(st.aux, r.Main...)
	st.aux = append(st.aux, r.Auxiliary...)
}

func (w *Walker) fold(st *groupState, el sparql.Element) {
	switch e := el.(type) {
	case *sparql.Group:
		w.nest(st, e)

	case *sparql.PathBlock:
		st.main = w.t.combine(st.main, w.walkPathBlock(e))

	case *sparql.Optional:
		w.t.tag(FeatureOptional)
		r := w.Walk(e.Body)
		st.optionals = append(st.optionals, r.Main)
		st.aux = append(st.aux, r.Auxiliary...)

	case *sparql.Union:
		w.t.tag(FeatureUnion)
		var branches []TripleList
		for _, b := range e.Branches {
			r := w.Walk(b)
			branches = append(branches, r.Main...)
			st.aux = append(st.aux, r.Auxiliary...)
		}
		st.main = w.t.combine(st.main, branches)

	case *sparql.Filter:
		w.t.tag(FeatureFilter)
		for _, ex := range e.Exists {
			if ex.Negated {
				w.t.tag(FeatureFilterNotExists)
			} else {
				w.t.tag(FeatureFilterExists)
			}
			w.isolate(st, ex.Pattern)
		}

	case *sparql.Minus:
		w.t.tag(FeatureMinus)
		w.isolate(st, e.Body)

	case *sparql.SubQuery:
		if w.subQueries != SubQueryAuxiliary {
			w.t.reject(FeatureSubQuery)
			return
		}
		w.t.tag(FeatureSubQuery)
		if e.Query != nil && e.Query.Pattern != nil {
			w.isolate(st, e.Query.Pattern)
		}

	case *sparql.Service:
		w.t.tag(FeatureService)
		w.nest(st, e.Body)

	case *sparql.Dataset:
		w.t.tag(FeatureDataset)
		w.nest(st, e.Body)

	case *sparql.NamedGraph:
		w.t.tag(FeatureNamedGraph)
		w.nest(st, e.Body)

	case *sparql.Bind, *sparql.Values:
		// no triples

	default:
		w.t.reject(FeatureUnsupported)
	}
}

// walkPathBlock accumulates the triples of a block onto a fresh seed.
// Fixed predicates extend every alternative; paths multiply them.
func (w *Walker) walkPathBlock(pb *sparql.PathBlock) []TripleList {
	lists := seed()
	for _, tp := range pb.Triples {
		subject, object := tp.Subject.String(), tp.Object.String()
		switch {
		case tp.Path != nil:
			w.t.tag(FeaturePropertyPath)
			lists = w.t.combine(lists, w.paths.Expand(tp.Path, subject, object))

		case tp.Predicate.Kind == sparql.TermIRI:
			t := Triple{Subject: subject, Predicate: tp.Predicate.Value, Object: object}
			next := make([]TripleList, len(lists))
			for i, l := range lists {
				next[i] = concat(l, TripleList{t})
			}
			lists = next

		default:
			w.t.reject(FeatureVariablePredicate)
		}
	}
	return lists
}
