package ingestion

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ErrUnknownPreprocessor is returned for a preprocessor name that is not
// registered.
var ErrUnknownPreprocessor = errors.New("unknown preprocessor")

// Preprocessor turns one log line into query text.
type Preprocessor interface {
	// Extract returns the query carried by line, or false if the line
	// holds none.
	Extract(line string) (string, bool)

	// Prepare rewrites extracted query text into something the parser
	// accepts.
	Prepare(query string) string
}

// Preprocessor names.
const (
	PreprocessorNoop     = "noop"
	PreprocessorWikidata = "wikidata"
	PreprocessorDBpedia  = "dbpedia"
)

// NewPreprocessor returns the preprocessor registered under name. Only
// dbpedia uses prefixes.
func NewPreprocessor(name string, prefixes map[string]string) (Preprocessor, error) {
	switch strings.ToLower(name) {
	case "", PreprocessorNoop:
		return noopPreprocessor{}, nil
	case PreprocessorWikidata:
		return wikidataPreprocessor{}, nil
	case PreprocessorDBpedia:
		return newDBpediaPreprocessor(prefixes), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreprocessor, name)
	}
}

// Query returns the prepared query of line, or false if it has none.
func Query(p Preprocessor, line string) (string, bool) {
	q, ok := p.Extract(line)
	if !ok {
		return "", false
	}
	return p.Prepare(q), true
}

type noopPreprocessor struct{}

func (noopPreprocessor) Extract(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	return line, true
}

func (noopPreprocessor) Prepare(query string) string { return query }

// wikidataPreprocessor reads the URL-encoded query from the first column
// of the tab-separated Wikidata dumps.
type wikidataPreprocessor struct{}

func (wikidataPreprocessor) Extract(line string) (string, bool) {
	column, _, _ := strings.Cut(line, "\t")
	return decode(column)
}

func (wikidataPreprocessor) Prepare(query string) string { return query }

var (
	dbpediaQuery   = regexp.MustCompile(`query=(.*?)(&| HTTP|")`)
	virtuosoPragma = regexp.MustCompile(`(define|DEFINE) .*?:.*? ".*?"`)
	selectClause   = regexp.MustCompile(`(?s)(select|SELECT).*?(where|WHERE)`)
	projectedComma = regexp.MustCompile(`(\?[a-zA-Z0-9_]*?) ?,`)
)

// dbpediaPreprocessor handles DBpedia endpoint access logs: the query
// sits URL-encoded in the request line, relies on the endpoint's
// predeclared prefixes, and may carry Virtuoso pragmas.
type dbpediaPreprocessor struct {
	header string
}

func newDBpediaPreprocessor(prefixes map[string]string) dbpediaPreprocessor {
	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "PREFIX %s:<%s>\n", name, prefixes[name])
	}
	return dbpediaPreprocessor{header: b.String()}
}

func (dbpediaPreprocessor) Extract(line string) (string, bool) {
	m := dbpediaQuery.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return decode(m[1])
}

func (p dbpediaPreprocessor) Prepare(query string) string {
	q := p.header + query
	q = virtuosoPragma.ReplaceAllString(q, "")
	return removeProjectionCommas(q)
}

// removeProjectionCommas drops the commas some clients put between
// projected variables ("SELECT ?a, ?b WHERE").
func removeProjectionCommas(q string) string {
	clause := selectClause.FindString(q)
	if clause == "" {
		return q
	}
	return strings.ReplaceAll(q, clause, projectedComma.ReplaceAllString(clause, "$1"))
}

func decode(s string) (string, bool) {
	q, err := url.QueryUnescape(s)
	if err != nil || strings.TrimSpace(q) == "" {
		return "", false
	}
	return q, true
}
