package engine

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinations_Lexicographic(t *testing.T) {
	var got [][]int
	err := combinations(4, 2, func(idx []int) error {
		got = append(got, slices.Clone(idx))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, got)

	calls := 0
	require.NoError(t, combinations(3, 0, func(idx []int) error {
		assert.Empty(t, idx)
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestBinomial(t *testing.T) {
	assert.Equal(t, 56, binomial(8, 3, 1000))
	assert.Equal(t, 1, binomial(8, 0, 1000))
	assert.Equal(t, 1001, binomial(30, 15, 1000))
}

func TestEvaluateSubset_FindsBestSum(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 1, 2)
	values := []int64{3, -1, 4, 1, -5, 9, 2, 6}

	for k := range len(values) + 1 {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			doc := fmt.Sprintf(`[{"evaluateSubset": {
				"source": [3, -1, 4, 1, -5, 9, 2, 6],
				"subset_size": %d,
				"subset_bind": "$s",
				"score": {"aggregate": {"op": "sum", "over": {"binding": "$s"}, "bind": "$i", "value": "$i"}},
				"result_bind": "$best",
				"best_subset_bind": "$set",
				"in": [
					{"setVar": {"var": "result", "value": "$best"}},
					{"setVar": {"var": "pot", "value": {"count": {"binding": "$set"}}}}
				]
			}}]`, k)
			res, _, err := run(t, def, st, doc)
			require.NoError(t, err)

			sorted := slices.Clone(values)
			slices.Sort(sorted)
			slices.Reverse(sorted)
			var want int64
			for _, v := range sorted[:k] {
				want += v
			}
			assert.Equal(t, want, intVar(t, res.State, "result"))
			assert.Equal(t, int64(k), intVar(t, res.State, "pot"))
		})
	}
}

func TestEvaluateSubset_ComputeIsSandboxed(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 1, 2)

	res, trace, err := run(t, def, st, `[{"evaluateSubset": {
		"source": [1, 2, 3],
		"subset_size": 1,
		"subset_bind": "$s",
		"compute": [{"addVar": {"var": "turns", "delta": 5}}],
		"score": {"gvar": "turns"},
		"result_bind": "$best",
		"in": [{"setVar": {"var": "result", "value": "$best"}}]
	}}]`)
	require.NoError(t, err)
	assert.Equal(t, int64(6), intVar(t, res.State, "result"))
	assert.Equal(t, int64(1), intVar(t, res.State, "turns"))
	assert.Equal(t, []string{TraceVarChange}, trace.Kinds())
}

func TestEvaluateSubset_Errors(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 1, 2)

	_, _, err := run(t, def, st, `[{"evaluateSubset": {
		"source": {"intsInRange": {"min": 1, "max": 30}},
		"subset_size": 15,
		"subset_bind": "$s",
		"score": 0,
		"result_bind": "$best"
	}}]`)
	require.Error(t, err)
	assert.True(t, IsSubsetCapError(err))

	_, _, err = run(t, def, st, `[{"evaluateSubset": {
		"source": [1, 2],
		"subset_size": 3,
		"subset_bind": "$s",
		"score": 0,
		"result_bind": "$best"
	}}]`)
	require.Error(t, err)
	assert.Equal(t, ErrCodeSubsetSizeOutOfRange, runtimeCode(t, err))

	_, _, err = run(t, def, st, `[{"evaluateSubset": {
		"source": [1, 2],
		"subset_size": 1,
		"subset_bind": "$s",
		"compute": [{"chooseOne": {"bind": "$x", "options": [1, 2]}}],
		"score": 0,
		"result_bind": "$best"
	}}]`)
	require.Error(t, err)
	assert.Equal(t, ErrCodeDecisionInSandbox, runtimeCode(t, err))
}
