package engine

import (
	"github.com/roach88/ludeme/internal/ir"
)

// applyIf runs the taken branch; its exports flow on to later siblings.
func (x *executor) applyIf(st *GameState, e env, n ir.If) (*GameState, env, error) {
	ok, err := x.evalCond(st, e, n.When)
	if err != nil {
		return nil, e, err
	}
	if ok {
		return x.runList(st, e, n.Then)
	}
	return x.runList(st, e, n.Else)
}

func (x *executor) applyForEach(st *GameState, e env, n ir.ForEach) (*GameState, error) {
	items, err := x.evalQuery(st, e, n.Over)
	if err != nil {
		return nil, err
	}
	limit := int64(ir.DefaultForEachLimit)
	if n.Limit != nil {
		limit, err = x.evalInt(st, e, *n.Limit, "limit")
		if err != nil {
			return nil, err
		}
		if limit < 0 {
			return nil, runtimeErr(ErrCodeOutOfRange, "limit", "negative forEach limit %d", limit)
		}
	}
	count := 0
	for _, item := range items {
		if int64(count) >= limit {
			break
		}
		st, err = x.runScoped(st, e.with(n.Bind, item), n.Effects)
		if err != nil {
			return nil, err
		}
		count++
	}
	if len(n.In) == 0 {
		return st, nil
	}
	inner := e
	if n.CountBind != "" {
		inner = inner.with(n.CountBind, ir.Int(count))
	}
	return x.runScoped(st, inner, n.In)
}

func (x *executor) applyReduce(st *GameState, e env, n ir.Reduce) (*GameState, error) {
	items, err := x.evalQuery(st, e, n.Over)
	if err != nil {
		return nil, err
	}
	acc, err := x.evalValue(st, e, n.Initial)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		acc, err = x.evalValue(st, e.with(n.ItemBind, item).with(n.AccBind, acc), n.Next)
		if err != nil {
			return nil, err
		}
	}
	return x.runScoped(st, e.with(n.ResultBind, acc), n.In)
}

func (x *executor) applyLet(st *GameState, e env, n ir.Let) (*GameState, error) {
	v, err := x.evalValue(st, e, n.Value)
	if err != nil {
		return nil, err
	}
	return x.runScoped(st, e.with(n.Bind, v), n.In)
}

func (x *executor) applyBindValue(st *GameState, e env, n ir.BindValue) (*GameState, env, error) {
	v, err := x.evalValue(st, e, n.Value)
	if err != nil {
		return nil, e, err
	}
	return st, e.with(n.Bind, v), nil
}

// applyRollRandom draws from the state's stream. It is not a decision:
// the choice walker rolls exactly as the interpreter does.
func (x *executor) applyRollRandom(st *GameState, e env, n ir.RollRandom) (*GameState, error) {
	lo, err := x.evalInt(st, e, n.Min, "min")
	if err != nil {
		return nil, err
	}
	hi, err := x.evalInt(st, e, n.Max, "max")
	if err != nil {
		return nil, err
	}
	v, rng, err := st.RNG.Roll(lo, hi)
	if err != nil {
		return nil, runtimeErr(ErrCodeOutOfRange, "max", "%v", err)
	}
	st = st.clone()
	st.RNG = rng
	x.trace.emit(TraceRoll, ir.Object{
		"bind":  ir.Str(n.Bind),
		"min":   ir.Int(lo),
		"max":   ir.Int(hi),
		"value": ir.Int(v),
	})
	return x.runScoped(st, e.with(n.Bind, ir.Int(v)), n.In)
}
