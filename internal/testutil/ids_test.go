package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialMatchIDs_CountsFromOne(t *testing.T) {
	gen := NewSequentialMatchIDs("nim")

	assert.Equal(t, "nim-1", gen.Generate())
	assert.Equal(t, "nim-2", gen.Generate())
	assert.Equal(t, "nim-3", gen.Generate())
}

func TestSequentialMatchIDs_DefaultPrefix(t *testing.T) {
	gen := NewSequentialMatchIDs("")
	assert.Equal(t, "match-1", gen.Generate())
}

func TestSequentialMatchIDs_Reset(t *testing.T) {
	gen := NewSequentialMatchIDs("m")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "m-1", gen.Generate())
}

func TestSequentialMatchIDs_ConcurrentIDsAreUnique(t *testing.T) {
	gen := NewSequentialMatchIDs("c")

	const workers = 10
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	assert.True(t, seen["c-1000"])
}

func TestFixedMatchID(t *testing.T) {
	gen := FixedMatchID("replay-me")
	assert.Equal(t, "replay-me", gen.Generate())
	assert.Equal(t, "replay-me", gen.Generate())
}
