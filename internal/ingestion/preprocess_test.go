package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/sparql"
)

func TestNewPreprocessor(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "noop", "wikidata", "DBpedia"} {
		p, err := NewPreprocessor(name, nil)
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	_, err := NewPreprocessor("virtuoso", nil)
	assert.ErrorIs(t, err, ErrUnknownPreprocessor)
}

func TestNoopPreprocessor(t *testing.T) {
	t.Parallel()

	p, err := NewPreprocessor(PreprocessorNoop, nil)
	require.NoError(t, err)

	q, ok := Query(p, "SELECT * WHERE { ?s ?p ?o }")
	assert.True(t, ok)
	assert.Equal(t, "SELECT * WHERE { ?s ?p ?o }", q)

	_, ok = Query(p, "   ")
	assert.False(t, ok)
}

func TestWikidataPreprocessor(t *testing.T) {
	t.Parallel()

	p, err := NewPreprocessor(PreprocessorWikidata, nil)
	require.NoError(t, err)

	line := "SELECT+%3Fitem+WHERE+%7B+%3Fitem+wdt%3AP31+wd%3AQ5+%7D\t2017-07-01 00:00:00\torganic\tunknown"
	q, ok := Query(p, line)
	assert.True(t, ok)
	assert.Equal(t, "SELECT ?item WHERE { ?item wdt:P31 wd:Q5 }", q)

	_, ok = Query(p, "%zz\tbroken")
	assert.False(t, ok)
}

func TestDBpediaPreprocessor(t *testing.T) {
	t.Parallel()

	prefixes := map[string]string{
		"foaf": "http://xmlns.com/foaf/0.1/",
		"dbo":  "http://dbpedia.org/ontology/",
	}
	p, err := NewPreprocessor(PreprocessorDBpedia, prefixes)
	require.NoError(t, err)

	t.Run("ExtractFromRequestLine", func(t *testing.T) {
		for _, line := range []string{
			`127.0.0.1 - - [21/Mar/2015] "GET /sparql?query=SELECT+%3Fs+WHERE+%7B%3Fs+a+dbo%3APerson%7D&format=json HTTP/1.1" 200`,
			`127.0.0.1 - - [21/Mar/2015] "GET /sparql?query=SELECT+%3Fs+WHERE+%7B%3Fs+a+dbo%3APerson%7D HTTP/1.1" 200`,
			`"GET /sparql?query=SELECT+%3Fs+WHERE+%7B%3Fs+a+dbo%3APerson%7D"`,
		} {
			q, ok := p.Extract(line)
			assert.True(t, ok, line)
			assert.Equal(t, "SELECT ?s WHERE {?s a dbo:Person}", q)
		}

		_, ok := p.Extract(`"GET /index.html HTTP/1.1" 200`)
		assert.False(t, ok)
	})

	t.Run("PrependsSortedPrefixes", func(t *testing.T) {
		q := p.Prepare("SELECT ?s WHERE {?s a dbo:Person}")
		assert.True(t, strings.HasPrefix(q,
			"PREFIX dbo:<http://dbpedia.org/ontology/>\nPREFIX foaf:<http://xmlns.com/foaf/0.1/>\nSELECT"), q)
	})

	t.Run("StripsPragmas", func(t *testing.T) {
		q := p.Prepare(`define input:inference "dbpedia" SELECT ?s WHERE {?s a dbo:Person}`)
		assert.NotContains(t, q, "define")
		assert.Contains(t, q, " SELECT ?s WHERE")
	})

	t.Run("RemovesProjectionCommas", func(t *testing.T) {
		q := p.Prepare("SELECT ?a, ?b , ?c WHERE {?a foaf:knows ?b, ?c}")
		assert.Contains(t, q, "SELECT ?a ?b ?c WHERE {?a foaf:knows ?b, ?c}")
	})

	t.Run("PreparedQueryParses", func(t *testing.T) {
		q, ok := Query(p, `"GET /sparql?query=define+sql%3Asignal-void-variables+%221%22+SELECT+%3Fn%2C+%3Fb+WHERE+%7B%3Fp+foaf%3Aname+%3Fn+%3B+dbo%3AbirthDate+%3Fb%7D HTTP/1.1"`)
		require.True(t, ok)
		_, err := sparql.Parse(q)
		assert.NoError(t, err, q)
	})
}
