// Package testutil holds deterministic stand-ins for tests.
package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined IDs for testing.
//
// This enables deterministic test execution and golden comparison of stored
// rows. When no IDs are given it produces "id-1", "id-2", ...
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // panic: all IDs exhausted
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if an explicit ID list has been consumed, to catch tests that write
// more rows than they expect.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.ids == nil {
		return fmt.Sprintf("id-%d", g.idx)
	}
	if g.idx > len(g.ids) {
		panic("FixedIDGenerator: all IDs exhausted")
	}
	return g.ids[g.idx-1]
}
