package engine

import (
	"github.com/roach88/ludeme/internal/ir"
)

// MaxSubsetCombinations caps the candidates one evaluateSubset may score.
// A larger search fails the move rather than being truncated.
const MaxSubsetCombinations = 10000

// binomial returns C(n, k), or limit+1 once the value exceeds limit.
func binomial(n, k, limit int) int {
	k = min(k, n-k)
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
		if c > limit {
			return limit + 1
		}
	}
	return c
}

// combinations calls fn with every k-subset of 0..n-1 in lexicographic
// order. fn must not retain idx.
func combinations(n, k int, fn func(idx []int) error) error {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if err := fn(idx); err != nil {
			return err
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// applyEvaluateSubset scores every k-combination of the source after
// running Compute against a private copy of the state. The best score,
// first candidate on ties, is bound for In, which runs on the outer state.
func (x *executor) applyEvaluateSubset(st *GameState, e env, n ir.EvaluateSubset) (*GameState, error) {
	items, err := x.evalQuery(st, e, n.Source)
	if err != nil {
		return nil, err
	}
	k64, err := x.evalInt(st, e, n.SubsetSize, "subset_size")
	if err != nil {
		return nil, err
	}
	if k64 < 0 || k64 > int64(len(items)) {
		return nil, runtimeErr(ErrCodeSubsetSizeOutOfRange, "subset_size",
			"subset size %d outside [0, %d]", k64, len(items))
	}
	k := int(k64)
	if c := binomial(len(items), k, MaxSubsetCombinations); c > MaxSubsetCombinations {
		return nil, runtimeErr(ErrCodeSubsetCapExceeded, "source",
			"C(%d, %d) exceeds %d combinations", len(items), k, MaxSubsetCombinations)
	}

	var (
		best       int64
		bestSubset ir.List
		found      bool
	)
	err = combinations(len(items), k, func(idx []int) error {
		subset := make(ir.List, len(idx))
		for i, j := range idx {
			subset[i] = items[j]
		}
		sb := x.sandbox()
		sbState, sbEnv, err := sb.runList(st, e.with(n.SubsetBind, subset), n.Compute)
		if err != nil {
			return err
		}
		score, err := sb.evalInt(sbState, sbEnv, n.Score, "score")
		if err != nil {
			return err
		}
		if !found || score > best {
			best, bestSubset, found = score, subset, true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inner := e.with(n.ResultBind, ir.Int(best))
	if n.BestSubsetBind != "" {
		inner = inner.with(n.BestSubsetBind, bestSubset)
	}
	return x.runScoped(st, inner, n.In)
}
