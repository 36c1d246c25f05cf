// Package shapes derives star shapes from pattern graphs.
//
// The star of a vertex is the sorted set of distinct predicate ids on its
// outgoing edges. The signature of a query is the list of distinct stars
// over all of its pattern graphs, e.g. ["1,2","1","3","2,4"]. Signatures
// are the unit counted by shape frequency reports.
package shapes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Benny93/qshape-go/internal/graph"
)

// NoShape is the signature of a query that produced no pattern graphs.
const NoShape = ""

// ErrMalformed is returned when a signature cannot be parsed.
var ErrMalformed = errors.New("malformed signature")

// Star is the sorted set of distinct predicate ids leaving one vertex.
type Star []int

// String renders the star as comma-separated ids.
func (s Star) String() string {
	parts := make([]string, len(s))
	for i, id := range s {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Stars returns the star of every vertex of g with at least one outgoing
// edge, in vertex insertion order.
func Stars(g *graph.PatternGraph) []Star {
	var stars []Star
	for _, v := range g.Vertices() {
		if preds := g.OutPredicates(v); len(preds) > 0 {
			stars = append(stars, Star(preds))
		}
	}
	return stars
}

// Signature returns the shape signature of a query's pattern graphs:
// the stars of all graphs, each quoted, deduplicated in first-seen order
// and joined into a bracketed list. It returns NoShape when graphs is
// empty.
func Signature(graphs []*graph.PatternGraph) string {
	if len(graphs) == 0 {
		return NoShape
	}

	seen := make(map[string]struct{})
	var b strings.Builder
	b.WriteByte('[')
	for _, g := range graphs {
		for _, star := range Stars(g) {
			s := star.String()
			if _, dup := seen[s]; dup {
				continue
			}
			if len(seen) > 0 {
				b.WriteByte(',')
			}
			seen[s] = struct{}{}
			b.WriteByte('"')
			b.WriteString(s)
			b.WriteByte('"')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Parse splits a signature back into its stars.
func Parse(sig string) ([]Star, error) {
	if !strings.HasPrefix(sig, "[") || !strings.HasSuffix(sig, "]") {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, sig)
	}
	body := sig[1 : len(sig)-1]
	if body == "" {
		return nil, nil
	}

	var stars []Star
	for _, quoted := range strings.Split(body, `","`) {
		raw := strings.Trim(quoted, `"`)
		var star Star
		for _, f := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrMalformed, sig, err)
			}
			star = append(star, id)
		}
		stars = append(stars, star)
	}
	return stars, nil
}

// StarSizes returns the out-degree of every vertex of every graph.
func StarSizes(graphs []*graph.PatternGraph) []int {
	var sizes []int
	for _, g := range graphs {
		for _, v := range g.Vertices() {
			sizes = append(sizes, g.OutDegree(v))
		}
	}
	return sizes
}
