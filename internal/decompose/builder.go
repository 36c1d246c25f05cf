package decompose

import (
	"github.com/Benny93/qshape-go/internal/graph"
	"github.com/Benny93/qshape-go/internal/sparql"
)

// Interner assigns ids to predicate URIs.
type Interner interface {
	Intern(uri string) int
}

// Options configures a Builder.
type Options struct {
	// Generator names the intermediate variables of expanded paths.
	// Defaults to a CounterGenerator.
	Generator VarGenerator

	// SubQueries selects how nested SELECTs are handled.
	SubQueries SubQueryMode

	// MaxAlternatives rejects queries whose walk produces more
	// alternatives than this at any point. Zero means no limit.
	MaxAlternatives int
}

// BuildResult is the outcome of decomposing one query.
type BuildResult struct {
	// Graphs holds one pattern graph per alternative, main alternatives
	// first. It is empty when the query was rejected or has no pattern.
	Graphs []*graph.PatternGraph

	// Features holds every feature met, including rejection reasons.
	Features FeatureSet
}

// Rejected reports whether the query was rejected as unsupported.
func (r BuildResult) Rejected() bool {
	return r.Features.Has(FeatureUnsupported)
}

// Builder turns queries into pattern graphs. A Builder is safe for
// concurrent use as long as its Interner and Generator are.
type Builder struct {
	predicates Interner
	opts       Options
}

// NewBuilder returns a builder interning predicates through predicates.
func NewBuilder(predicates Interner, opts Options) *Builder {
	if opts.Generator == nil {
		opts.Generator = NewCounterGenerator("")
	}
	return &Builder{predicates: predicates, opts: opts}
}

// Decompose walks the pattern of q and returns its alternatives without
// building graphs. ok is false when q has no pattern.
func (b *Builder) Decompose(q *sparql.Query) (r Result, w *Walker, ok bool) {
	w = NewWalker(b.opts.Generator, b.opts.SubQueries, b.opts.MaxAlternatives)
	if q == nil || q.Pattern == nil {
		return Result{}, w, false
	}
	return w.Walk(q.Pattern), w, true
}

// Build decomposes q into one pattern graph per alternative.
//
// Unsupported constructs never produce an error: the result then has no
// graphs and carries FeatureUnsupported next to the tag of the construct.
func (b *Builder) Build(q *sparql.Query) BuildResult {
	r, w, ok := b.Decompose(q)
	features := w.Features()
	if !ok {
		features.Add(FeatureNoGraphPattern)
		return BuildResult{Features: features}
	}
	if w.Unsupported() {
		features.Add(FeatureUnsupported)
		return BuildResult{Features: features}
	}

	lines := r.Lines()
	graphs := make([]*graph.PatternGraph, 0, len(lines))
	edges := 0
	for _, l := range lines {
		g := b.assemble(l)
		edges += g.EdgeCount()
		graphs = append(graphs, g)
	}
	if edges == 0 {
		features.Add(FeatureEmptyGraphPattern)
	}
	return BuildResult{Graphs: graphs, Features: features}
}

func (b *Builder) assemble(l TripleList) *graph.PatternGraph {
	g := graph.New()
	for _, t := range l {
		g.AddEdge(t.Subject, b.predicates.Intern(t.Predicate), t.Object)
	}
	return g
}
