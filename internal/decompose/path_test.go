package decompose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Benny93/qshape-go/internal/sparql"
)

func link(iri string) *sparql.Link { return &sparql.Link{IRI: iri} }

func expand(p sparql.Path) ([]TripleList, *PathExpander) {
	e := NewPathExpander(NewCounterGenerator(""))
	return e.Expand(p, "?s", "?o"), e
}

func hasEmpty(alts []TripleList) bool {
	for _, l := range alts {
		if len(l) == 0 {
			return true
		}
	}
	return false
}

// strayCenters returns synthetic nodes that are not both entered and
// left within their alternative.
func strayCenters(alts []TripleList) []string {
	var stray []string
	for _, l := range alts {
		in, out := map[string]bool{}, map[string]bool{}
		for _, t := range l {
			out[t.Subject] = true
			in[t.Object] = true
		}
		for n := range in {
			if strings.HasPrefix(n, "?path-") && !out[n] {
				stray = append(stray, n)
			}
		}
		for n := range out {
			if strings.HasPrefix(n, "?path-") && !in[n] {
				stray = append(stray, n)
			}
		}
	}
	return stray
}

func TestPathExpander_Expand(t *testing.T) {
	t.Parallel()

	t.Run("Link", func(t *testing.T) {
		got, e := expand(link("p"))
		assert.Equal(t, []TripleList{tl(tr("?s", "p", "?o"))}, got)
		assert.True(t, e.Features().Has(FeatureLink))
	})

	t.Run("InverseSwapsEndpoints", func(t *testing.T) {
		got, e := expand(&sparql.Inverse{Path: link("p")})
		assert.Equal(t, []TripleList{tl(tr("?o", "p", "?s"))}, got)
		assert.True(t, e.Features().Has(FeatureInverse))
	})

	t.Run("NegatedPropertySetRejects", func(t *testing.T) {
		got, e := expand(&sparql.NegatedPropertySet{Forward: []string{"p"}})
		assert.Empty(t, got)
		assert.True(t, e.Unsupported())
		assert.True(t, e.Features().Has(FeatureNegatedProps))
		assert.True(t, e.Features().Has(FeatureUnsupported))
	})

	t.Run("ZeroOrOne", func(t *testing.T) {
		got, _ := expand(&sparql.ZeroOrOne{Path: link("p")})
		assert.Equal(t, []TripleList{tl(), tl(tr("?s", "p", "?o"))}, got)
	})

	t.Run("ZeroOrMoreUnrollsTwice", func(t *testing.T) {
		got, e := expand(&sparql.ZeroOrMore{Path: link("p")})
		assert.Equal(t, []TripleList{
			tl(),
			tl(tr("?s", "p", "?o")),
			tl(tr("?s", "p", "?path-1"), tr("?path-1", "p", "?o")),
		}, got)
		assert.True(t, e.Features().Has(FeatureZeroOrMore))
	})

	t.Run("OneOrMoreNeverEmpty", func(t *testing.T) {
		got, _ := expand(&sparql.OneOrMore{Path: link("p")})
		assert.Equal(t, []TripleList{
			tl(tr("?s", "p", "?o")),
			tl(tr("?s", "p", "?path-1"), tr("?path-1", "p", "?o")),
		}, got)

		nested, _ := expand(&sparql.OneOrMore{Path: &sparql.ZeroOrOne{Path: link("p")}})
		assert.True(t, hasEmpty(nested), "an empty inner path still matches empty")
	})

	t.Run("RepeatKeepsCenterOfEmptyApplication", func(t *testing.T) {
		got, _ := expand(&sparql.ZeroOrMore{Path: &sparql.ZeroOrOne{Path: link("p")}})
		assert.Equal(t, []TripleList{
			tl(),
			tl(),
			tl(tr("?s", "p", "?o")),
			tl(),
			tl(tr("?path-1", "p", "?o")),
			tl(tr("?s", "p", "?path-1")),
			tl(tr("?s", "p", "?path-1"), tr("?path-1", "p", "?o")),
		}, got)
		assert.ElementsMatch(t, []string{"?path-1", "?path-1"}, strayCenters(got))

		plus, _ := expand(&sparql.OneOrMore{Path: &sparql.ZeroOrOne{Path: link("p")}})
		assert.Equal(t, got[1:], plus)
	})

	t.Run("Alt", func(t *testing.T) {
		got, e := expand(&sparql.Alt{Left: link("p"), Right: link("q")})
		assert.Equal(t, []TripleList{tl(tr("?s", "p", "?o")), tl(tr("?s", "q", "?o"))}, got)
		assert.True(t, e.Features().Has(FeatureAlt))
	})

	t.Run("Seq", func(t *testing.T) {
		got, e := expand(&sparql.Seq{Left: link("p"), Right: link("q")})
		assert.Equal(t, []TripleList{tl(tr("?s", "p", "?path-1"), tr("?path-1", "q", "?o"))}, got)
		assert.True(t, e.Features().Has(FeatureSeq))
	})

	t.Run("SeqWithOptionalLeftCollapsesCenter", func(t *testing.T) {
		got, _ := expand(&sparql.Seq{Left: &sparql.ZeroOrOne{Path: link("p")}, Right: link("q")})
		assert.Equal(t, []TripleList{
			tl(tr("?s", "p", "?path-1"), tr("?path-1", "q", "?o")),
			tl(tr("?s", "q", "?o")),
		}, got)
	})

	t.Run("SeqWithOptionalRightCollapsesCenter", func(t *testing.T) {
		got, _ := expand(&sparql.Seq{Left: link("p"), Right: &sparql.ZeroOrOne{Path: link("q")}})
		assert.Equal(t, []TripleList{
			tl(tr("?s", "p", "?path-1"), tr("?path-1", "q", "?o")),
			tl(tr("?s", "p", "?o")),
		}, got)
	})

	t.Run("SeqBothOptional", func(t *testing.T) {
		got, _ := expand(&sparql.Seq{
			Left:  &sparql.ZeroOrOne{Path: link("p")},
			Right: &sparql.ZeroOrMore{Path: link("q")},
		})
		assert.Len(t, got, 6)
		assert.True(t, hasEmpty(got))
		assert.Empty(t, strayCenters(got))
	})

	t.Run("InverseSeq", func(t *testing.T) {
		got, _ := expand(&sparql.Inverse{Path: &sparql.Seq{Left: link("p"), Right: link("q")}})
		assert.Equal(t, []TripleList{tl(tr("?o", "p", "?path-1"), tr("?path-1", "q", "?s"))}, got)
	})

	t.Run("UnknownPathRejects", func(t *testing.T) {
		got, e := expand(nil)
		assert.Empty(t, got)
		assert.True(t, e.Unsupported())
	})
}
