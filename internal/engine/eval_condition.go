package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// evalCond evaluates a condition. And/Or short-circuit left to right.
func (x *executor) evalCond(st *GameState, e env, c ir.Cond) (bool, error) {
	switch n := c.Node.(type) {
	case ir.BoolLit:
		return n.Value, nil
	case ir.And:
		for _, item := range n.Items {
			ok, err := x.evalCond(st, e, item)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case ir.Or:
		for _, item := range n.Items {
			ok, err := x.evalCond(st, e, item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case ir.Not:
		ok, err := x.evalCond(st, e, n.Item)
		return !ok, err
	case ir.Compare:
		l, err := x.evalValue(st, e, n.Left)
		if err != nil {
			return false, err
		}
		r, err := x.evalValue(st, e, n.Right)
		if err != nil {
			return false, err
		}
		return compareValues(n.Op, l, r)
	case ir.In:
		item, err := x.evalValue(st, e, n.Item)
		if err != nil {
			return false, err
		}
		set, err := x.evalQuery(st, e, n.Set)
		if err != nil {
			return false, err
		}
		return ir.Contains(set, item), nil
	case ir.Adjacent:
		a, err := x.resolveZone(st, e, n.A)
		if err != nil {
			return false, err
		}
		b, err := x.resolveZone(st, e, n.B)
		if err != nil {
			return false, err
		}
		return x.adjacent(a, b), nil
	case ir.Exists:
		items, err := x.evalQuery(st, e, n.Query)
		if err != nil {
			return false, err
		}
		return len(items) > 0, nil
	case nil:
		return false, runtimeErr(ErrCodeInternal, "cond", "missing condition")
	default:
		return false, runtimeErr(ErrCodeInternal, "cond", "unhandled condition node %T", n)
	}
}

// evalOptCond treats a missing condition as true.
func (x *executor) evalOptCond(st *GameState, e env, c *ir.Cond) (bool, error) {
	if c == nil {
		return true, nil
	}
	return x.evalCond(st, e, *c)
}

// compareValues applies a comparison operator. Equality works on any
// values; ordering operators require two ints.
func compareValues(op string, l, r ir.Value) (bool, error) {
	switch op {
	case "==":
		return ir.Equal(l, r), nil
	case "!=":
		return !ir.Equal(l, r), nil
	}
	a, aok := ir.AsInt(l)
	b, bok := ir.AsInt(r)
	if !aok || !bok {
		return false, runtimeErr(ErrCodeTypeMismatch, "op",
			"%s needs two ints, got %s and %s", op, ir.Kind(l), ir.Kind(r))
	}
	switch op {
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	default:
		return false, &EffectRuntimeError{
			Code:       ErrCodeTypeMismatch,
			Field:      "op",
			Message:    fmt.Sprintf("unknown comparison %q", op),
			Candidates: []string{"==", "!=", "<", "<=", ">", ">="},
		}
	}
}

// adjacent reports whether two concrete zones are declared adjacent.
// Adjacency is symmetric: a declaration on either side suffices.
func (x *executor) adjacent(a, b string) bool {
	za, _, err := x.def.ZoneForConcrete(a)
	if err != nil {
		return false
	}
	zb, _, err := x.def.ZoneForConcrete(b)
	if err != nil {
		return false
	}
	return slices.Contains(za.AdjacentTo, zb.ID) || slices.Contains(zb.AdjacentTo, za.ID)
}
