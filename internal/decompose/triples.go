// Package decompose reduces the pattern tree of a query to the alternative
// basic graph patterns it can produce and assembles one pattern graph per
// alternative.
//
// Decomposition of one query is single-threaded and never blocks. The only
// state shared between concurrent decompositions is the predicate
// interner handed to the Builder and the fresh-variable generator.
package decompose

import "strings"

// Triple is one triple pattern with node identities in subject and object
// position and a predicate URI.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// String renders the triple as "subject <predicate> object".
func (t Triple) String() string {
	return t.Subject + " <" + t.Predicate + "> " + t.Object
}

// TripleList is one conjunctive alternative.
//
// Lists are never mutated once they are part of a result; every operation
// that extends a list builds a new one.
type TripleList []Triple

// String renders the list as "{t1 . t2}".
func (l TripleList) String() string {
	parts := make([]string, len(l))
	for i, t := range l {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, " . ") + "}"
}

// Result is the outcome of walking one pattern tree node.
type Result struct {
	// Main holds the alternatives that take part in further combination
	// as the walk continues outward.
	Main []TripleList

	// Auxiliary holds alternatives that contribute shape information but
	// are never combined with anything outside the construct that
	// produced them (FILTER EXISTS, FILTER NOT EXISTS and MINUS bodies).
	Auxiliary []TripleList
}

// Lines returns the main alternatives followed by the auxiliary ones.
func (r Result) Lines() []TripleList {
	lines := make([]TripleList, 0, len(r.Main)+len(r.Auxiliary))
	lines = append(lines, r.Main...)
	return append(lines, r.Auxiliary...)
}

// seed returns the starting alternatives of a walk: one empty list.
func seed() []TripleList {
	return []TripleList{{}}
}

// concat returns a new list holding a's triples followed by b's.
func concat(a, b TripleList) TripleList {
	out := make(TripleList, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// CrossCombine returns a unchanged when b is empty and b unchanged when a
// is empty. Otherwise it returns the Cartesian product of a and b, each
// pair concatenated with a's triples first, ordered by a then b.
func CrossCombine(a, b []TripleList) []TripleList {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	return product(a, b)
}

// product is the strict pairwise product: empty when either side is.
func product(a, b []TripleList) []TripleList {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]TripleList, 0, len(a)*len(b))
	for _, l := range a {
		for _, r := range b {
			out = append(out, concat(l, r))
		}
	}
	return out
}
