package decompose

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// VarGenerator produces names for the synthetic variables that path
// expansion introduces between the steps of a path. Names must be unique
// for the lifetime of the generator and must not collide with variable
// names a query can contain. Implementations must be safe for concurrent
// use.
type VarGenerator interface {
	Next() string
}

// CounterGenerator yields "<prefix>-1", "<prefix>-2", ... The hyphen cannot
// occur in a SPARQL variable name, so generated names never collide with
// variables of the query.
type CounterGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewCounterGenerator returns a generator counting from 1. An empty prefix
// defaults to "path".
func NewCounterGenerator(prefix string) *CounterGenerator {
	if prefix == "" {
		prefix = "path"
	}
	return &CounterGenerator{prefix: prefix}
}

// Next returns the next name.
func (g *CounterGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.n.Add(1), 10)
}

// UUIDGenerator yields random UUIDs.
type UUIDGenerator struct{}

// Next returns a new random UUID.
func (UUIDGenerator) Next() string {
	return uuid.NewString()
}
