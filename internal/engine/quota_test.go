package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseBudgetConsume(t *testing.T) {
	b := NewPhaseBudget(2)

	assert.True(t, b.Consume())
	assert.True(t, b.Consume())
	assert.False(t, b.Consume())
	assert.False(t, b.Consume())
	assert.Equal(t, 0, b.Remaining())
	assert.Equal(t, 2, b.Limit())
}

func TestNilPhaseBudgetIsUnlimited(t *testing.T) {
	var b *PhaseBudget
	for i := 0; i < 100; i++ {
		assert.True(t, b.Consume())
	}
	assert.Equal(t, -1, b.Remaining())
	assert.Nil(t, b.detach())
}

func TestPhaseBudgetDetach(t *testing.T) {
	b := NewPhaseBudget(3)
	b.Consume()

	d := b.detach()
	d.Consume()
	d.Consume()

	assert.Equal(t, 2, b.Remaining())
	assert.Equal(t, 0, d.Remaining())
}
