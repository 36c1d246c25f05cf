package sparql

import (
	"errors"
	"fmt"
)

// ErrSyntax is returned, wrapped in a *SyntaxError, for query text that
// cannot be parsed.
var ErrSyntax = errors.New("sparql syntax error")

// SyntaxError describes a parse failure at a byte offset of the input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sparql: %s at offset %d", e.Msg, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
