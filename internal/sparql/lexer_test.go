package sparql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token) []tokenKind {
	out := make([]tokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.kind
	}
	return out
}

func TestLex(t *testing.T) {
	t.Parallel()

	t.Run("Terms", func(t *testing.T) {
		toks, err := lex(`?a <http://x/p> ex:o. _:b1 "s"@en 'q'^^xsd:string 3.5e2 # comment`)
		require.NoError(t, err)
		assert.Equal(t, []tokenKind{
			tokVar, tokIRI, tokPName, tokPunct, tokBlank, tokString, tokLangTag,
			tokString, tokPunct, tokPName, tokNumber, tokEOF,
		}, kinds(toks))
		assert.Equal(t, "ex:o", toks[2].text)
		assert.Equal(t, ".", toks[3].text)
		assert.Equal(t, xsdDouble, toks[10].datatype)
	})

	t.Run("LessThanIsNotIRI", func(t *testing.T) {
		toks, err := lex(`?x < 5 && ?y <= 3`)
		require.NoError(t, err)
		assert.Equal(t, "<", toks[1].text)
		assert.Equal(t, "&&", toks[3].text)
		assert.Equal(t, "<=", toks[5].text)
	})

	t.Run("PathModifiers", func(t *testing.T) {
		toks, err := lex(`:p? ?o :q+ -1`)
		require.NoError(t, err)
		assert.Equal(t, tokPunct, toks[1].kind)
		assert.Equal(t, tokVar, toks[2].kind)
		assert.Equal(t, "+", toks[4].text)
		assert.Equal(t, tokNumber, toks[5].kind)
		assert.Equal(t, "-1", toks[5].text)
	})

	t.Run("LongStringWithEscapes", func(t *testing.T) {
		toks, err := lex(`"""a "quoted"
line""" "tab\thereA"`)
		require.NoError(t, err)
		assert.Equal(t, "a \"quoted\"\nline", toks[0].text)
		assert.Equal(t, "tab\thereA", toks[1].text)
	})

	t.Run("PercentEscapesInLocalName", func(t *testing.T) {
		toks, err := lex(`dbr:Caf%C3%A9 dbr:A\(b\)`)
		require.NoError(t, err)
		assert.Equal(t, "dbr:Caf%C3%A9", toks[0].text)
		assert.Equal(t, "dbr:A(b)", toks[1].text)
	})

	t.Run("Errors", func(t *testing.T) {
		for _, src := range []string{`"open`, `"bad\q"`, `~`, `@`} {
			_, err := lex(src)
			assert.Error(t, err, src)
		}
	})
}
