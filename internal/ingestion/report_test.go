package ingestion

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/predicates"
	"github.com/Benny93/qshape-go/internal/shapes"
)

func reportSummary() *Summary {
	s := NewSummary()
	s.TotalLines = 12
	s.TotalQueries = 11
	s.ValidQueries = 10
	s.ShapedQueries = 10
	s.RejectedQueries = 0
	s.TotalVertices = 27
	s.Shapes = map[string]int64{
		`["1,2"]`:   5,
		`["3"]`:     2,
		`["1"]`:     2,
		`["4","5"]`: 1,
	}
	s.Features = map[string]int64{
		"GROUP":    9,
		"UNION":    3,
		"OPTIONAL": 3,
		"FILTER":   1,
	}
	s.StarSizes = map[int]int64{0: 12, 1: 7, 2: 7, 3: 1}
	return s
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestReports(t *testing.T) {
	t.Parallel()

	s := reportSummary()
	preds, err := predicates.FromEntries([]predicates.Entry{
		{URI: "http://xmlns.com/foaf/0.1/name", ID: 1},
		{URI: "http://xmlns.com/foaf/0.1/knows", ID: 2},
		{URI: "http://dbpedia.org/ontology/birthPlace", ID: 3},
	})
	require.NoError(t, err)

	t.Run("Shapes", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteShapeReport(&buf, s, 2))
		newGoldie(t).Assert(t, "shapes", buf.Bytes())
	})

	t.Run("ShapesAll", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteShapeReport(&buf, s, 0))
		assert.Equal(t, "signature\tcount\n[\"1,2\"]\t5\n[\"1\"]\t2\n[\"3\"]\t2\n[\"4\",\"5\"]\t1\n", buf.String())
	})

	t.Run("Meta", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteMetaReport(&buf, s, preds))
		newGoldie(t).Assert(t, "meta", buf.Bytes())
	})

	t.Run("Features", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFeatureReport(&buf, s))
		newGoldie(t).Assert(t, "features", buf.Bytes())
	})

	t.Run("StarSizes", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteStarSizeReport(&buf, s))
		newGoldie(t).Assert(t, "star_sizes", buf.Bytes())
	})

	t.Run("DecodeSignature", func(t *testing.T) {
		got, err := DecodeSignature(`["1,2","3","9"]`, preds)
		require.NoError(t, err)
		assert.Equal(t,
			`["http://xmlns.com/foaf/0.1/name,http://xmlns.com/foaf/0.1/knows","http://dbpedia.org/ontology/birthPlace","9"]`,
			got)

		got, err = DecodeSignature("[]", preds)
		require.NoError(t, err)
		assert.Equal(t, "[]", got)

		got, err = DecodeSignature(shapes.NoShape, preds)
		require.NoError(t, err)
		assert.Equal(t, shapes.NoShape, got)

		_, err = DecodeSignature(`["x"]`, preds)
		assert.ErrorIs(t, err, shapes.ErrMalformed)
	})
}
