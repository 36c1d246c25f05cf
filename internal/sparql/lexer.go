package sparql

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokBlank
	tokString
	tokNumber
	tokLangTag
	tokName
	tokPunct
)

type token struct {
	kind tokenKind

	// text is the IRI, the prefixed name, the variable name, the blank
	// node label, the unescaped string, the number, the language tag, the
	// bare word or the punctuation.
	text string

	// datatype is set for numbers.
	datatype string

	pos, end int
}

func (t token) punct(s string) bool {
	return t.kind == tokPunct && t.text == s
}

func (t token) keyword(kw string) bool {
	return t.kind == tokName && strings.EqualFold(t.text, kw)
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.tokens = append(l.tokens, token{kind: tokEOF, pos: l.pos, end: l.pos})
			return l.tokens, nil
		}
		if err := l.scan(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) errorf(pos int, msg string) error {
	return &SyntaxError{Offset: pos, Msg: msg}
}

func (l *lexer) emit(kind tokenKind, text string, start int) {
	l.tokens = append(l.tokens, token{kind: kind, text: text, pos: start, end: l.pos})
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) scan() error {
	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '<':
		if l.scanIRI() {
			return nil
		}
		if l.peekByte(1) == '=' {
			l.pos += 2
			l.emit(tokPunct, "<=", start)
			return nil
		}
		l.pos++
		l.emit(tokPunct, "<", start)
		return nil

	case c == '?' || c == '$':
		if r, _ := utf8.DecodeRuneInString(l.src[l.pos+1:]); isVarChar(r) {
			l.pos++
			name := l.scanWhile(isVarChar)
			l.emit(tokVar, name, start)
			return nil
		}
		if c == '$' {
			return l.errorf(start, "invalid variable")
		}
		l.pos++
		l.emit(tokPunct, "?", start)
		return nil

	case c == '"' || c == '\'':
		return l.scanString()

	case c == '@':
		l.pos++
		tag := l.scanWhile(func(r rune) bool {
			return r < utf8.RuneSelf && (isASCIILetter(byte(r)) || isDigit(byte(r)) || r == '-')
		})
		if tag == "" {
			return l.errorf(start, "empty language tag")
		}
		l.emit(tokLangTag, tag, start)
		return nil

	case c == '_' && l.peekByte(1) == ':':
		l.pos += 2
		label := l.scanLocal()
		if label == "" {
			return l.errorf(start, "empty blank node label")
		}
		l.emit(tokBlank, label, start)
		return nil

	case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
		l.scanNumber(start)
		return nil

	case (c == '+' || c == '-') && isDigit(l.peekByte(1)) && l.signAllowed():
		l.pos++
		l.scanNumber(start)
		return nil

	case c == ':' || c >= utf8.RuneSelf || isASCIILetter(c):
		return l.scanName()
	}

	for _, op := range []string{"^^", "&&", "||", "!=", ">="} {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			l.emit(tokPunct, op, start)
			return nil
		}
	}
	if strings.IndexByte("{}()[].;,/*+-=!>|^", c) >= 0 {
		l.pos++
		l.emit(tokPunct, string(c), start)
		return nil
	}
	return l.errorf(start, "unexpected character "+strconv.QuoteRune(rune(c)))
}

// signAllowed reports whether a '+' or '-' directly followed by a digit
// starts a signed number rather than an operator.
func (l *lexer) signAllowed() bool {
	if l.pos == 0 {
		return true
	}
	prev := l.src[l.pos-1]
	return prev == ' ' || prev == '\t' || prev == '\n' || prev == '\r' || prev == '(' || prev == ',' || prev == '['
}

func (l *lexer) scanIRI() bool {
	start := l.pos
	for i := l.pos + 1; i < len(l.src); i++ {
		c := l.src[i]
		switch {
		case c == '>':
			l.pos = i + 1
			l.emit(tokIRI, l.src[start+1:i], start)
			return true
		case c <= 0x20 || strings.IndexByte("<\"{}|^`\\", c) >= 0:
			return false
		}
	}
	return false
}

func (l *lexer) scanWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !pred(r) {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}

// scanLocal scans the local part of a prefixed name or a blank node
// label, resolving '\' and '%' escapes. A trailing '.' is not part of
// the name.
func (l *lexer) scanLocal() string {
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			sb.WriteByte(l.src[l.pos+1])
			l.pos += 2
			continue
		case c == '%' && l.pos+2 < len(l.src) && isHex(l.src[l.pos+1]) && isHex(l.src[l.pos+2]):
			sb.WriteString(l.src[l.pos : l.pos+3])
			l.pos += 3
			continue
		case c == '.':
			if !l.continuesName(l.pos + 1) {
				return sb.String()
			}
			sb.WriteByte(c)
			l.pos++
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isNameChar(r) && r != ':' {
			break
		}
		sb.WriteRune(r)
		l.pos += size
	}
	return sb.String()
}

// continuesName reports whether the name goes on after a '.' at i-1.
func (l *lexer) continuesName(i int) bool {
	for i < len(l.src) && l.src[i] == '.' {
		i++
	}
	if i >= len(l.src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.src[i:])
	return isNameChar(r) || r == ':'
}

func (l *lexer) scanName() error {
	start := l.pos
	prefix := ""
	if l.src[l.pos] != ':' {
		prefix = l.scanWhile(func(r rune) bool { return isNameChar(r) })
		for strings.HasSuffix(prefix, ".") {
			prefix = prefix[:len(prefix)-1]
			l.pos--
		}
	}
	if l.pos < len(l.src) && l.src[l.pos] == ':' {
		l.pos++
		local := l.scanLocal()
		l.emit(tokPName, prefix+":"+local, start)
		return nil
	}
	if prefix == "" {
		return l.errorf(start, "unexpected character")
	}
	l.emit(tokName, prefix, start)
	return nil
}

func (l *lexer) scanNumber(start int) {
	datatype := xsdInteger
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peekByte(1)) {
		datatype = xsdDecimal
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		save := l.pos
		l.pos++
		if c := l.peekByte(0); c == '+' || c == '-' {
			l.pos++
		}
		if isDigit(l.peekByte(0)) {
			datatype = xsdDouble
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	l.tokens = append(l.tokens, token{
		kind:     tokNumber,
		text:     l.src[start:l.pos],
		datatype: datatype,
		pos:      start,
		end:      l.pos,
	})
}

func (l *lexer) scanString() error {
	start := l.pos
	q := l.src[l.pos]
	long := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3))
	if long {
		l.pos += 3
	} else {
		l.pos++
	}

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\':
			if err := l.scanEscape(&sb); err != nil {
				return err
			}
			continue
		case c == q && !long:
			l.pos++
			l.emit(tokString, sb.String(), start)
			return nil
		case c == q && strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3)):
			l.pos += 3
			l.emit(tokString, sb.String(), start)
			return nil
		}
		sb.WriteByte(c)
		l.pos++
	}
	return l.errorf(start, "unterminated string")
}

func (l *lexer) scanEscape(sb *strings.Builder) error {
	start := l.pos
	if l.pos+1 >= len(l.src) {
		return l.errorf(start, "unterminated escape")
	}
	c := l.src[l.pos+1]
	l.pos += 2
	switch c {
	case 't':
		sb.WriteByte('\t')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case '"', '\'', '\\':
		sb.WriteByte(c)
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if l.pos+n > len(l.src) {
			return l.errorf(start, "short unicode escape")
		}
		v, err := strconv.ParseUint(l.src[l.pos:l.pos+n], 16, 32)
		if err != nil {
			return l.errorf(start, "invalid unicode escape")
		}
		sb.WriteRune(rune(v))
		l.pos += n
	default:
		return l.errorf(start, "invalid escape "+strconv.QuoteRune(rune(c)))
	}
	return nil
}

func isDigit(c byte) bool       { return c >= '0' && c <= '9' }
func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isVarChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
