package sparql

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Option configures Parse.
type Option func(*parser)

// WithPrefixes pre-declares prefixes as if the query text started with
// matching PREFIX declarations. Declarations in the query win.
func WithPrefixes(prefixes map[string]string) Option {
	return func(p *parser) {
		maps.Copy(p.prefixes, prefixes)
	}
}

// Parse parses query text into its pattern tree. Update requests and
// malformed text fail with an error wrapping ErrSyntax.
func Parse(text string, opts ...Option) (*Query, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		src:      text,
		toks:     toks,
		prefixes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p.parseQuery()
}

type parser struct {
	src      string
	toks     []token
	pos      int
	prefixes map[string]string
	base     *url.URL
	anon     int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// backup undoes next for t.
func (p *parser) backup(t token) {
	if t.kind != tokEOF {
		p.pos--
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) acceptPunct(s string) bool {
	if p.peek().punct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return p.errorf("expected %q, found %s", s, describe(p.peek()))
	}
	return nil
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().keyword(kw) {
		p.pos++
		return true
	}
	return false
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

func (p *parser) parseQuery() (*Query, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}

	q := &Query{}
	var err error
	switch t := p.next(); {
	case t.keyword("SELECT"):
		q.Form = FormSelect
		err = p.parseSelect(q, true)
	case t.keyword("CONSTRUCT"):
		q.Form = FormConstruct
		err = p.parseConstruct(q)
	case t.keyword("DESCRIBE"):
		q.Form = FormDescribe
		err = p.parseDescribe(q)
	case t.keyword("ASK"):
		q.Form = FormAsk
		err = p.parseAsk(q)
	default:
		p.backup(t)
		return nil, p.errorf("expected query form, found %s", describe(t))
	}
	if err != nil {
		return nil, err
	}

	if p.acceptKeyword("VALUES") {
		if _, err := p.parseDataBlock(); err != nil {
			return nil, err
		}
	}
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unexpected %s after query", describe(p.peek()))
	}

	if q.Pattern != nil && (len(q.DefaultGraphs) > 0 || len(q.NamedGraphs) > 0) {
		q.Pattern = &Dataset{
			DefaultGraphs: q.DefaultGraphs,
			NamedGraphs:   q.NamedGraphs,
			Body:          q.Pattern,
		}
	}
	if p.base != nil {
		q.Base = p.base.String()
	}
	q.Prefixes = p.prefixes
	return q, nil
}

func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.acceptKeyword("BASE"):
			t := p.next()
			if t.kind != tokIRI {
				p.backup(t)
				return p.errorf("expected IRI after BASE")
			}
			base, err := url.Parse(t.text)
			if err != nil {
				return &SyntaxError{Offset: t.pos, Msg: "invalid base IRI"}
			}
			p.base = base
		case p.acceptKeyword("PREFIX"):
			ns := p.next()
			if ns.kind != tokPName || !strings.HasSuffix(ns.text, ":") {
				p.backup(ns)
				return p.errorf("expected prefix name after PREFIX")
			}
			t := p.next()
			if t.kind != tokIRI {
				p.backup(t)
				return p.errorf("expected IRI for prefix %s", ns.text)
			}
			p.prefixes[strings.TrimSuffix(ns.text, ":")] = p.resolve(t.text)
		default:
			return nil
		}
	}
}

// parseSelect parses a SELECT after its keyword. Sub-selects carry no
// dataset clauses.
func (p *parser) parseSelect(q *Query, top bool) error {
	if !p.acceptKeyword("DISTINCT") {
		p.acceptKeyword("REDUCED")
	}

	if !p.acceptPunct("*") {
		for {
			t := p.peek()
			if t.kind == tokVar {
				p.next()
				q.Projection = append(q.Projection, Var(t.text))
				continue
			}
			if t.punct("(") {
				if _, err := p.scanBracketed(nil); err != nil {
					return err
				}
				if v := p.toks[p.pos-2]; v.kind == tokVar {
					q.Projection = append(q.Projection, Var(v.text))
				}
				continue
			}
			break
		}
		if len(q.Projection) == 0 {
			return p.errorf("expected projection, found %s", describe(p.peek()))
		}
	}

	if top {
		if err := p.parseDatasetClauses(q); err != nil {
			return err
		}
	}
	p.acceptKeyword("WHERE")
	pattern, err := p.parseGroupGraphPattern()
	if err != nil {
		return err
	}
	q.Pattern = pattern
	return p.skipModifiers()
}

func (p *parser) parseConstruct(q *Query) error {
	if p.peek().punct("{") {
		p.next()
		if !p.peek().punct("}") {
			if _, err := p.parseTriplesBlock(); err != nil {
				return err
			}
		}
		if err := p.expectPunct("}"); err != nil {
			return err
		}
	}
	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}
	p.acceptKeyword("WHERE")
	pattern, err := p.parseGroupGraphPattern()
	if err != nil {
		return err
	}
	q.Pattern = pattern
	return p.skipModifiers()
}

func (p *parser) parseDescribe(q *Query) error {
	if !p.acceptPunct("*") {
		for {
			t := p.peek()
			if t.kind != tokVar && t.kind != tokIRI && t.kind != tokPName {
				break
			}
			term, err := p.parseVarOrTerm()
			if err != nil {
				return err
			}
			q.Projection = append(q.Projection, term)
		}
		if len(q.Projection) == 0 {
			return p.errorf("expected DESCRIBE target")
		}
	}
	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}
	if p.acceptKeyword("WHERE") || p.peek().punct("{") {
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return err
		}
		q.Pattern = pattern
	}
	return p.skipModifiers()
}

func (p *parser) parseAsk(q *Query) error {
	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}
	p.acceptKeyword("WHERE")
	pattern, err := p.parseGroupGraphPattern()
	if err != nil {
		return err
	}
	q.Pattern = pattern
	return p.skipModifiers()
}

func (p *parser) parseDatasetClauses(q *Query) error {
	for p.acceptKeyword("FROM") {
		named := p.acceptKeyword("NAMED")
		iri, err := p.parseIRI()
		if err != nil {
			return err
		}
		if named {
			q.NamedGraphs = append(q.NamedGraphs, iri)
		} else {
			q.DefaultGraphs = append(q.DefaultGraphs, iri)
		}
	}
	return nil
}

var modifierKeywords = []string{"GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET"}

func isModifier(t token) bool {
	for _, kw := range modifierKeywords {
		if t.keyword(kw) {
			return true
		}
	}
	return false
}

// skipModifiers consumes solution modifiers. They never contribute
// triple patterns.
func (p *parser) skipModifiers() error {
	for isModifier(p.peek()) {
		p.next()
		for {
			t := p.peek()
			if t.kind == tokEOF || t.punct("}") || t.keyword("VALUES") || isModifier(t) {
				break
			}
			if t.punct("{") {
				return p.errorf("unexpected %s in solution modifier", describe(t))
			}
			if t.punct("(") {
				if _, err := p.scanBracketed(nil); err != nil {
					return err
				}
				continue
			}
			p.next()
		}
	}
	return nil
}

func (p *parser) parseGroupGraphPattern() (Element, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	if p.acceptKeyword("SELECT") {
		sub := &Query{Form: FormSelect}
		if err := p.parseSelect(sub, false); err != nil {
			return nil, err
		}
		if p.acceptKeyword("VALUES") {
			if _, err := p.parseDataBlock(); err != nil {
				return nil, err
			}
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		return &Group{Elements: []Element{&SubQuery{Query: sub}}}, nil
	}

	g := &Group{}
	for {
		t := p.peek()
		if t.punct("}") {
			p.next()
			return g, nil
		}
		if t.kind == tokEOF {
			return nil, p.errorf("unterminated group pattern")
		}

		if p.startsTriples(t) {
			block, err := p.parseTriplesBlock()
			if err != nil {
				return nil, err
			}
			g.Elements = append(g.Elements, block)
			continue
		}

		el, err := p.parseGraphPatternNotTriples()
		if err != nil {
			return nil, err
		}
		g.Elements = append(g.Elements, el)
		p.acceptPunct(".")
	}
}

func (p *parser) parseGraphPatternNotTriples() (Element, error) {
	t := p.peek()
	switch {
	case t.punct("{"):
		return p.parseGroupOrUnion()

	case t.keyword("OPTIONAL"):
		p.next()
		body, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Optional{Body: body}, nil

	case t.keyword("MINUS"):
		p.next()
		body, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Minus{Body: body}, nil

	case t.keyword("GRAPH"):
		p.next()
		name, err := p.parseVarOrIRI()
		if err != nil {
			return nil, err
		}
		body, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &NamedGraph{Graph: name, Body: body}, nil

	case t.keyword("SERVICE"):
		p.next()
		silent := p.acceptKeyword("SILENT")
		endpoint, err := p.parseVarOrIRI()
		if err != nil {
			return nil, err
		}
		body, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Service{Endpoint: endpoint, Silent: silent, Body: body}, nil

	case t.keyword("FILTER"):
		p.next()
		return p.parseConstraint()

	case t.keyword("BIND"):
		p.next()
		if !p.peek().punct("(") {
			return nil, p.errorf("expected '(' after BIND")
		}
		expr, err := p.scanBracketed(nil)
		if err != nil {
			return nil, err
		}
		v, as := p.toks[p.pos-2], p.toks[p.pos-3]
		if v.kind != tokVar || !as.keyword("AS") {
			return nil, &SyntaxError{Offset: v.pos, Msg: "expected AS ?var in BIND"}
		}
		return &Bind{Expression: expr, Var: Var(v.text)}, nil

	case t.keyword("VALUES"):
		p.next()
		return p.parseDataBlock()
	}
	return nil, p.errorf("unexpected %s in group pattern", describe(t))
}

func (p *parser) parseGroupOrUnion() (Element, error) {
	first, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	if !p.peek().keyword("UNION") {
		return first, nil
	}

	u := &Union{Branches: []Element{first}}
	for p.acceptKeyword("UNION") {
		branch, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		u.Branches = append(u.Branches, branch)
	}
	return u, nil
}

func (p *parser) parseConstraint() (*Filter, error) {
	f := &Filter{}
	onExists := func(e Exists) { f.Exists = append(f.Exists, e) }
	start := p.peek().pos

	t := p.peek()
	switch {
	case t.punct("("):
		if _, err := p.scanBracketed(onExists); err != nil {
			return nil, err
		}
	case t.keyword("EXISTS") || (t.keyword("NOT") && p.peekAt(1).keyword("EXISTS")):
		if err := p.parseExists(onExists); err != nil {
			return nil, err
		}
	case t.kind == tokName || t.kind == tokPName || t.kind == tokIRI:
		p.next()
		if !p.peek().punct("(") {
			return nil, p.errorf("expected '(' after %s", t.text)
		}
		if _, err := p.scanBracketed(onExists); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("expected constraint after FILTER, found %s", describe(t))
	}

	f.Expression = p.src[start:p.toks[p.pos-1].end]
	return f, nil
}

func (p *parser) parseExists(onExists func(Exists)) error {
	negated := p.acceptKeyword("NOT")
	if !p.acceptKeyword("EXISTS") {
		return p.errorf("expected EXISTS")
	}
	pattern, err := p.parseGroupGraphPattern()
	if err != nil {
		return err
	}
	if onExists != nil {
		onExists(Exists{Negated: negated, Pattern: pattern})
	}
	return nil
}

// scanBracketed consumes a parenthesised expression and returns its
// source text. EXISTS and NOT EXISTS patterns inside it are parsed and
// handed to onExists, which may be nil.
func (p *parser) scanBracketed(onExists func(Exists)) (string, error) {
	start := p.peek()
	if err := p.expectPunct("("); err != nil {
		return "", err
	}
	depth := 1
	for depth > 0 {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return "", p.errorf("unbalanced parentheses")
		case t.keyword("EXISTS") || (t.keyword("NOT") && p.peekAt(1).keyword("EXISTS")):
			if err := p.parseExists(onExists); err != nil {
				return "", err
			}
			continue
		case t.punct("{") || t.punct("}"):
			return "", p.errorf("unexpected %s in expression", describe(t))
		case t.punct("("):
			depth++
		case t.punct(")"):
			depth--
		}
		p.next()
	}
	return p.src[start.pos:p.toks[p.pos-1].end], nil
}

func (p *parser) parseDataBlock() (*Values, error) {
	v := &Values{}
	multi := false
	switch t := p.next(); {
	case t.kind == tokVar:
		v.Vars = append(v.Vars, Var(t.text))
	case t.punct("("):
		multi = true
		for !p.acceptPunct(")") {
			vt := p.next()
			if vt.kind != tokVar {
				p.backup(vt)
				return nil, p.errorf("expected variable in VALUES")
			}
			v.Vars = append(v.Vars, Var(vt.text))
		}
	default:
		p.backup(t)
		return nil, p.errorf("expected variables after VALUES")
	}

	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	depth := 0
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return nil, p.errorf("unterminated VALUES block")
		case t.punct("}") && depth == 0:
			return v, nil
		case t.punct("("):
			if depth == 0 && multi {
				v.Rows++
			}
			depth++
		case t.punct(")"):
			depth--
		case depth == 0 && !multi && !t.punct("^^") && t.kind != tokLangTag:
			if prev := p.toks[p.pos-2]; !prev.punct("^^") {
				v.Rows++
			}
		}
	}
}

func (p *parser) startsTriples(t token) bool {
	switch t.kind {
	case tokVar, tokIRI, tokPName, tokBlank, tokString, tokNumber:
		return true
	case tokName:
		return t.keyword("true") || t.keyword("false")
	}
	return t.punct("[") || t.punct("(")
}

func (p *parser) startsVerb(t token) bool {
	switch t.kind {
	case tokVar, tokIRI, tokPName:
		return true
	case tokName:
		return t.text == "a"
	}
	return t.punct("^") || t.punct("!") || t.punct("(")
}

func (p *parser) parseTriplesBlock() (*PathBlock, error) {
	pb := &PathBlock{}
	for {
		if err := p.parseTriplesSameSubject(pb); err != nil {
			return nil, err
		}
		if !p.acceptPunct(".") || !p.startsTriples(p.peek()) {
			return pb, nil
		}
	}
}

func (p *parser) parseTriplesSameSubject(pb *PathBlock) error {
	if t := p.peek(); t.punct("[") || t.punct("(") {
		subject, err := p.parseGraphNode(pb)
		if err != nil {
			return err
		}
		if !p.startsVerb(p.peek()) {
			return nil
		}
		return p.parsePropertyList(subject, pb)
	}

	subject, err := p.parseVarOrTerm()
	if err != nil {
		return err
	}
	return p.parsePropertyList(subject, pb)
}

type verb struct {
	variable *Term
	path     Path
}

func (p *parser) parsePropertyList(subject Term, pb *PathBlock) error {
	for {
		v, err := p.parseVerb()
		if err != nil {
			return err
		}
		for {
			object, err := p.parseGraphNode(pb)
			if err != nil {
				return err
			}
			pb.Triples = append(pb.Triples, v.triple(subject, object))
			if !p.acceptPunct(",") {
				break
			}
		}

		if !p.acceptPunct(";") {
			return nil
		}
		for p.acceptPunct(";") {
			// repeated separators are allowed
		}
		if !p.startsVerb(p.peek()) {
			return nil
		}
	}
}

func (v verb) triple(s, o Term) TriplePattern {
	if v.variable != nil {
		return TriplePattern{Subject: s, Predicate: *v.variable, Object: o}
	}
	if link, ok := v.path.(*Link); ok {
		return TriplePattern{Subject: s, Predicate: IRI(link.IRI), Object: o}
	}
	return TriplePattern{Subject: s, Path: v.path, Object: o}
}

func (p *parser) parseVerb() (verb, error) {
	if t := p.peek(); t.kind == tokVar {
		p.next()
		term := Var(t.text)
		return verb{variable: &term}, nil
	}
	path, err := p.parsePath()
	if err != nil {
		return verb{}, err
	}
	return verb{path: path}, nil
}

func (p *parser) parsePath() (Path, error) {
	left, err := p.parsePathSequence()
	if err != nil {
		return nil, err
	}
	for p.acceptPunct("|") {
		right, err := p.parsePathSequence()
		if err != nil {
			return nil, err
		}
		left = &Alt{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePathSequence() (Path, error) {
	left, err := p.parsePathEltOrInverse()
	if err != nil {
		return nil, err
	}
	for p.acceptPunct("/") {
		right, err := p.parsePathEltOrInverse()
		if err != nil {
			return nil, err
		}
		left = &Seq{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePathEltOrInverse() (Path, error) {
	inverse := p.acceptPunct("^")
	elt, err := p.parsePathPrimary()
	if err != nil {
		return nil, err
	}

	switch {
	case p.acceptPunct("?"):
		elt = &ZeroOrOne{Path: elt}
	case p.acceptPunct("*"):
		elt = &ZeroOrMore{Path: elt}
	case p.acceptPunct("+"):
		elt = &OneOrMore{Path: elt}
	}

	if inverse {
		return &Inverse{Path: elt}, nil
	}
	return elt, nil
}

func (p *parser) parsePathPrimary() (Path, error) {
	t := p.peek()
	switch {
	case t.kind == tokName && t.text == "a":
		p.next()
		return &Link{IRI: rdfType}, nil
	case t.kind == tokIRI || t.kind == tokPName:
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return &Link{IRI: iri}, nil
	case t.punct("!"):
		p.next()
		return p.parseNegatedPropertySet()
	case t.punct("("):
		p.next()
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return path, nil
	}
	return nil, p.errorf("expected predicate, found %s", describe(t))
}

func (p *parser) parseNegatedPropertySet() (Path, error) {
	nps := &NegatedPropertySet{}
	one := func() error {
		inverse := p.acceptPunct("^")
		var iri string
		if t := p.peek(); t.kind == tokName && t.text == "a" {
			p.next()
			iri = rdfType
		} else {
			var err error
			if iri, err = p.parseIRI(); err != nil {
				return err
			}
		}
		if inverse {
			nps.Backward = append(nps.Backward, iri)
		} else {
			nps.Forward = append(nps.Forward, iri)
		}
		return nil
	}

	if !p.acceptPunct("(") {
		return nps, one()
	}
	if p.acceptPunct(")") {
		return nps, nil
	}
	for {
		if err := one(); err != nil {
			return nil, err
		}
		if !p.acceptPunct("|") {
			break
		}
	}
	return nps, p.expectPunct(")")
}

// parseGraphNode parses an object or a bracketed subject: a term, a
// blank node property list or a collection. Triples implied by the
// brackets are added to pb.
func (p *parser) parseGraphNode(pb *PathBlock) (Term, error) {
	switch t := p.peek(); {
	case t.punct("["):
		p.next()
		node := p.freshBlank()
		if p.acceptPunct("]") {
			return node, nil
		}
		if err := p.parsePropertyList(node, pb); err != nil {
			return Term{}, err
		}
		return node, p.expectPunct("]")

	case t.punct("("):
		p.next()
		return p.parseCollection(pb)
	}
	return p.parseVarOrTerm()
}

func (p *parser) parseCollection(pb *PathBlock) (Term, error) {
	if p.acceptPunct(")") {
		return IRI(rdfNil), nil
	}

	head := p.freshBlank()
	cur := head
	for {
		item, err := p.parseGraphNode(pb)
		if err != nil {
			return Term{}, err
		}
		pb.Triples = append(pb.Triples, TriplePattern{Subject: cur, Predicate: IRI(rdfFirst), Object: item})

		if p.acceptPunct(")") {
			pb.Triples = append(pb.Triples, TriplePattern{Subject: cur, Predicate: IRI(rdfRest), Object: IRI(rdfNil)})
			return head, nil
		}
		if p.peek().kind == tokEOF {
			return Term{}, p.errorf("unterminated collection")
		}
		next := p.freshBlank()
		pb.Triples = append(pb.Triples, TriplePattern{Subject: cur, Predicate: IRI(rdfRest), Object: next})
		cur = next
	}
}

// freshBlank allocates an anonymous blank node. Its label starts with
// '[', which no written label can, so it never aliases a "_:x" node.
func (p *parser) freshBlank() Term {
	p.anon++
	return Blank("[" + strconv.Itoa(p.anon) + "]")
}

func (p *parser) parseVarOrIRI() (Term, error) {
	if t := p.peek(); t.kind == tokVar {
		p.next()
		return Var(t.text), nil
	}
	iri, err := p.parseIRI()
	if err != nil {
		return Term{}, err
	}
	return IRI(iri), nil
}

func (p *parser) parseVarOrTerm() (Term, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.next()
		return Var(t.text), nil
	case tokIRI, tokPName:
		iri, err := p.parseIRI()
		if err != nil {
			return Term{}, err
		}
		return IRI(iri), nil
	case tokBlank:
		p.next()
		return Blank(t.text), nil
	case tokNumber:
		p.next()
		return Term{Kind: TermLiteral, Value: t.text, Datatype: t.datatype}, nil
	case tokString:
		p.next()
		lit := Literal(t.text)
		switch next := p.peek(); {
		case next.kind == tokLangTag:
			p.next()
			lit.Lang = next.text
		case next.punct("^^"):
			p.next()
			dt, err := p.parseIRI()
			if err != nil {
				return Term{}, err
			}
			lit.Datatype = dt
		}
		return lit, nil
	case tokName:
		if t.keyword("true") || t.keyword("false") {
			p.next()
			return Term{Kind: TermLiteral, Value: strings.ToLower(t.text), Datatype: xsdBoolean}, nil
		}
	}
	return Term{}, p.errorf("expected term, found %s", describe(t))
}

func (p *parser) parseIRI() (string, error) {
	t := p.peek()
	switch t.kind {
	case tokIRI:
		p.next()
		return p.resolve(t.text), nil
	case tokPName:
		i := strings.IndexByte(t.text, ':')
		ns, ok := p.prefixes[t.text[:i]]
		if !ok {
			return "", p.errorf("unresolved prefixed name %s", t.text)
		}
		p.next()
		return ns + t.text[i+1:], nil
	}
	return "", p.errorf("expected IRI, found %s", describe(t))
}

func (p *parser) resolve(iri string) string {
	if p.base == nil {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	return p.base.ResolveReference(ref).String()
}
