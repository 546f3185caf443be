package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator produces deterministic identifiers such as "flow-1", "flow-2".
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator returns a generator using prefix, or "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}

// NextFunc exposes Next for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence at 1.
func (g *IDGenerator) Reset() {
	g.counter.Store(0)
}
