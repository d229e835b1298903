package engine

import (
	"github.com/roach88/ludeme/internal/ir"
)

// applyRemoveByPriority spends a budget across ordered groups. Each group
// takes as many of its items as the remaining budget allows, running its
// effects once per taken item; later groups see the state earlier groups
// left behind.
func (x *executor) applyRemoveByPriority(st *GameState, e env, n ir.RemoveByPriority) (*GameState, error) {
	remaining, err := x.evalInt(st, e, n.Budget, "budget")
	if err != nil {
		return nil, err
	}
	if remaining < 0 {
		return nil, runtimeErr(ErrCodeOutOfRange, "budget", "negative budget %d", remaining)
	}
	inner := e
	for _, g := range n.Groups {
		items, err := x.evalQuery(st, e, g.Over)
		if err != nil {
			return nil, err
		}
		take := min(int64(len(items)), remaining)
		for _, item := range items[:take] {
			st, err = x.runScoped(st, e.with(g.Bind, item), g.Effects)
			if err != nil {
				return nil, err
			}
		}
		remaining -= take
		if g.CountBind != "" {
			inner = inner.with(g.CountBind, ir.Int(take))
		}
	}
	if n.RemainingBind != "" {
		inner = inner.with(n.RemainingBind, ir.Int(remaining))
	}
	return x.runScoped(st, inner, n.In)
}
