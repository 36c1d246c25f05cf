package shapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/graph"
)

func chain(t *testing.T, edges ...any) *graph.PatternGraph {
	t.Helper()
	require.Zero(t, len(edges)%3)
	g := graph.New()
	for i := 0; i < len(edges); i += 3 {
		g.AddEdge(edges[i].(string), edges[i+1].(int), edges[i+2].(string))
	}
	return g
}

func TestSignature(t *testing.T) {
	t.Parallel()

	g1 := chain(t,
		"?a", 1, "?b",
		"?a", 2, "?c",
		"?b", 1, "?c",
		"?c", 3, "?d",
		"?d", 4, "?e",
		"?d", 2, "?f",
	)

	t.Run("NoGraphs", func(t *testing.T) {
		assert.Equal(t, NoShape, Signature(nil))
	})

	t.Run("SingleGraph", func(t *testing.T) {
		assert.Equal(t, `["1,2","1","3","2,4"]`, Signature([]*graph.PatternGraph{g1}))
	})

	t.Run("DuplicatesAcrossGraphs", func(t *testing.T) {
		g2 := chain(t,
			"?a", 4, "?b",
			"?a", 2, "?c",
			"?b", 3, "?c",
			"?c", 7, "?d",
			"?c", 3, "?e",
		)
		assert.Equal(t, `["1,2","1","3","2,4","3,7"]`, Signature([]*graph.PatternGraph{g1, g2}))
	})

	t.Run("RepeatedPredicateCountsOnce", func(t *testing.T) {
		g := chain(t, "?a", 2, "?b", "?a", 2, "?c")
		assert.Equal(t, `["2"]`, Signature([]*graph.PatternGraph{g}))
	})

	t.Run("EdgelessGraph", func(t *testing.T) {
		assert.Equal(t, `[]`, Signature([]*graph.PatternGraph{graph.New()}))
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	stars, err := Parse(`["1,2","1","3","2,4"]`)
	require.NoError(t, err)
	assert.Equal(t, []Star{{1, 2}, {1}, {3}, {2, 4}}, stars)

	stars, err = Parse(`[]`)
	require.NoError(t, err)
	assert.Empty(t, stars)

	for _, bad := range []string{``, `"1"`, `["x"]`, `["1,"]`} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestStarSizes(t *testing.T) {
	t.Parallel()

	g := chain(t, "?a", 1, "?b", "?a", 2, "?c", "?b", 1, "?c")
	assert.Equal(t, []int{2, 1, 0}, StarSizes([]*graph.PatternGraph{g}))
	assert.Equal(t, []Star{{1, 2}, {1}}, Stars(g))
}
