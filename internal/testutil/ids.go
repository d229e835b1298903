package testutil

import (
	"fmt"
	"sync"
)

// SequentialMatchIDs names matches "<prefix>-1", "<prefix>-2", ... in
// order, so the same scenario run twice produces byte-identical match logs.
//
// Implements store.MatchIDGenerator.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialMatchIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialMatchIDs creates a generator. An empty prefix means "match".
func NewSequentialMatchIDs(prefix string) *SequentialMatchIDs {
	if prefix == "" {
		prefix = "match"
	}
	return &SequentialMatchIDs{prefix: prefix}
}

// Generate returns the next id. The first call returns "<prefix>-1".
func (g *SequentialMatchIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Reset restarts the sequence. After Reset, Generate returns "<prefix>-1".
func (g *SequentialMatchIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedMatchID returns the same id every time.
//
// Thread-safety: FixedMatchID is stateless and safe for concurrent use.
type FixedMatchID string

// Generate returns the fixed id.
func (id FixedMatchID) Generate() string {
	return string(id)
}
