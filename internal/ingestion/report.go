package ingestion

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/Benny93/qshape-go/internal/shapes"
)

// Meta report keys.
const (
	MetaTotalLines      = "TOTAL_LINES"
	MetaTotalQueries    = "TOTAL_QUERIES"
	MetaValidQueries    = "VALID_QUERIES"
	MetaShapedQueries   = "SHAPED_QUERIES"
	MetaRejectedQueries = "REJECTED_QUERIES"
	MetaTotalVertices   = "TOTAL_VERTICES"
	MetaDistinctShapes  = "DISTINCT_SHAPES"
	MetaPredicates      = "PREDICATES"
)

// PredicateLookup resolves predicate ids to URIs.
type PredicateLookup interface {
	URI(id int) (string, bool)
	Size() int
}

type row[K cmp.Ordered] struct {
	key   K
	count int64
}

// byCount orders m by count descending, then key ascending.
func byCount[K cmp.Ordered](m map[K]int64) []row[K] {
	rows := make([]row[K], 0, len(m))
	for k, n := range m {
		rows = append(rows, row[K]{k, n})
	}
	slices.SortFunc(rows, func(a, b row[K]) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return rows
}

// WriteShapeReport writes "signature<TAB>count" rows, most frequent
// first. Signatures seen fewer than minCount times are left out.
func WriteShapeReport(w io.Writer, s *Summary, minCount int64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "signature\tcount")
	for _, r := range byCount(s.Shapes) {
		if r.count < minCount {
			break
		}
		fmt.Fprintf(bw, "%s\t%d\n", r.key, r.count)
	}
	return bw.Flush()
}

// WriteMetaReport writes the run counters as "key<TAB>value" lines.
func WriteMetaReport(w io.Writer, s *Summary, preds PredicateLookup) error {
	bw := bufio.NewWriter(w)
	predicateCount := 0
	if preds != nil {
		predicateCount = preds.Size()
	}
	for _, kv := range []struct {
		key string
		n   int64
	}{
		{MetaTotalLines, s.TotalLines},
		{MetaTotalQueries, s.TotalQueries},
		{MetaValidQueries, s.ValidQueries},
		{MetaShapedQueries, s.ShapedQueries},
		{MetaRejectedQueries, s.RejectedQueries},
		{MetaTotalVertices, s.TotalVertices},
		{MetaDistinctShapes, int64(len(s.Shapes))},
		{MetaPredicates, int64(predicateCount)},
	} {
		fmt.Fprintf(bw, "%s\t%d\n", kv.key, kv.n)
	}
	return bw.Flush()
}

// WriteFeatureReport writes "tag<TAB>count" rows, most frequent first.
func WriteFeatureReport(w io.Writer, s *Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "feature\tcount")
	for _, r := range byCount(s.Features) {
		fmt.Fprintf(bw, "%s\t%d\n", r.key, r.count)
	}
	return bw.Flush()
}

// WriteStarSizeReport writes "size<TAB>count" rows of the out-degree
// histogram, most frequent first.
func WriteStarSizeReport(w io.Writer, s *Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "size\tcount")
	for _, r := range byCount(s.StarSizes) {
		fmt.Fprintf(bw, "%d\t%d\n", r.key, r.count)
	}
	return bw.Flush()
}

// DecodeSignature renders sig with predicate URIs in place of ids. Ids
// missing from preds are kept as numbers.
func DecodeSignature(sig string, preds PredicateLookup) (string, error) {
	if sig == shapes.NoShape {
		return shapes.NoShape, nil
	}
	stars, err := shapes.Parse(sig)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(stars))
	for i, star := range stars {
		uris := make([]string, len(star))
		for j, id := range star {
			uri, ok := preds.URI(id)
			if !ok {
				uri = strconv.Itoa(id)
			}
			uris[j] = uri
		}
		parts[i] = strconv.Quote(strings.Join(uris, ","))
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}
