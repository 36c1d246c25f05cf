package decompose

import (
	"slices"
	"strings"
)

// Feature is a symbolic label for a construct met while decomposing a
// query.
type Feature string

// Query-level features.
const (
	FeatureGroup               Feature = "GROUP"
	FeatureOptional            Feature = "OPTIONAL"
	FeatureUnion               Feature = "UNION"
	FeatureFilter              Feature = "FILTER"
	FeatureFilterExists        Feature = "FILTER_EXISTS"
	FeatureFilterNotExists     Feature = "FILTER_NOT_EXISTS"
	FeatureMinus               Feature = "MINUS"
	FeatureSubQuery            Feature = "SUB_QUERY"
	FeatureDataset             Feature = "DATASET"
	FeatureService             Feature = "SERVICE"
	FeatureNamedGraph          Feature = "NAMED_GRAPH"
	FeaturePropertyPath        Feature = "PROPERTY_PATH"
	FeatureVariablePredicate   Feature = "VARIABLE_PREDICATE"
	FeatureNoGraphPattern      Feature = "NO_GRAPH_PATTERN"
	FeatureEmptyGraphPattern   Feature = "EMPTY_GRAPH_PATTERN"
	FeatureUnsupported         Feature = "UNSUPPORTED_FEATURE"
	FeatureTooManyAlternatives Feature = "TOO_MANY_ALTERNATIVES"
)

// Path features.
const (
	FeatureLink         Feature = "LINK"
	FeatureAlt          Feature = "ALT"
	FeatureSeq          Feature = "SEQ"
	FeatureOneOrMore    Feature = "ONE_OR_MORE"
	FeatureZeroOrOne    Feature = "ZERO_OR_ONE"
	FeatureZeroOrMore   Feature = "ZERO_OR_MORE"
	FeatureInverse      Feature = "INVERSE"
	FeatureNegatedProps Feature = "NEGATED_PROP_SET"
)

// FeatureSet is a set of features.
type FeatureSet map[Feature]struct{}

// NewFeatureSet returns a set holding the given features.
func NewFeatureSet(features ...Feature) FeatureSet {
	s := make(FeatureSet, len(features))
	for _, f := range features {
		s.Add(f)
	}
	return s
}

// Add adds f to the set.
func (s FeatureSet) Add(f Feature) {
	s[f] = struct{}{}
}

// Has reports whether f is in the set.
func (s FeatureSet) Has(f Feature) bool {
	_, ok := s[f]
	return ok
}

// Merge adds every feature of other to the set.
func (s FeatureSet) Merge(other FeatureSet) {
	for f := range other {
		s[f] = struct{}{}
	}
}

// Sorted returns the features in lexical order.
func (s FeatureSet) Sorted() []Feature {
	out := make([]Feature, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// String renders the set as a sorted, comma-separated list.
func (s FeatureSet) String() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, f := range sorted {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// tracker records the features and the rejection state of one
// decomposition. The walker and its path expander share one tracker.
type tracker struct {
	features        FeatureSet
	unsupported     bool
	exceeded        bool
	maxAlternatives int
}

func newTracker(maxAlternatives int) *tracker {
	return &tracker{features: make(FeatureSet), maxAlternatives: maxAlternatives}
}

func (t *tracker) tag(f Feature) {
	t.features.Add(f)
}

// reject tags f and marks the whole query unsupported.
func (t *tracker) reject(f Feature) {
	t.features.Add(f)
	t.features.Add(FeatureUnsupported)
	t.unsupported = true
}

// fits reports whether n alternatives stay within the ceiling. The first
// overflow rejects the query.
func (t *tracker) fits(n int) bool {
	if t.exceeded {
		return false
	}
	if t.maxAlternatives > 0 && n > t.maxAlternatives {
		t.exceeded = true
		t.reject(FeatureTooManyAlternatives)
		return false
	}
	return true
}

// combine is CrossCombine bounded by the alternative ceiling. Once the
// ceiling is exceeded the query is rejected anyway, so a is returned
// as is.
func (t *tracker) combine(a, b []TripleList) []TripleList {
	if t.exceeded {
		return a
	}
	if len(a) > 0 && len(b) > 0 && !t.fits(len(a)*len(b)) {
		return a
	}
	return CrossCombine(a, b)
}

// join is product bounded by the alternative ceiling.
func (t *tracker) join(a, b []TripleList) []TripleList {
	if !t.fits(len(a) * len(b)) {
		return nil
	}
	return product(a, b)
}

// appendAll concatenates alternative lists bounded by the ceiling.
func (t *tracker) appendAll(lists ...[]TripleList) []TripleList {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	if !t.fits(n) {
		return lists[0]
	}
	out := make([]TripleList, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
