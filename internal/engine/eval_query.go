package engine

import (
	"github.com/roach88/ludeme/internal/ir"
)

// MaxQueryResults caps the items one query may produce. A larger result
// fails the move with QUERY_CAP_EXCEEDED.
const MaxQueryResults = 10000

// evalQuery computes an ordered item list. Every traversal is in declared
// or zone order so results are deterministic.
func (x *executor) evalQuery(st *GameState, e env, q ir.Query) (ir.List, error) {
	switch n := q.Node.(type) {
	case ir.TokensInZone:
		zone, err := x.resolveZone(st, e, n.Zone)
		if err != nil {
			return nil, err
		}
		out := ir.List{}
		for _, tok := range st.ZoneTokens(zone) {
			ok, err := x.tokenMatches(st, e, tok, n.Filter)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, ir.Str(tok.ID))
			}
		}
		return out, nil
	case ir.IntsInRange:
		lo, err := x.evalInt(st, e, n.Min, "min")
		if err != nil {
			return nil, err
		}
		hi, err := x.evalInt(st, e, n.Max, "max")
		if err != nil {
			return nil, err
		}
		out := ir.List{}
		if hi < lo {
			return out, nil
		}
		span := uint64(hi) - uint64(lo)
		if span >= MaxQueryResults {
			return nil, runtimeErr(ErrCodeQueryCapExceeded, "intsInRange",
				"range [%d, %d] exceeds %d items", lo, hi, MaxQueryResults)
		}
		for k := range span + 1 {
			out = append(out, ir.Int(lo+int64(k)))
		}
		return out, nil
	case ir.Enums:
		return append(ir.List{}, n.Values...), nil
	case ir.Players:
		out := make(ir.List, st.PlayerCount)
		for i := range out {
			out[i] = ir.Int(i)
		}
		return out, nil
	case ir.Seats:
		rt := st.CardRuntime()
		if rt == nil {
			return nil, runtimeErr(ErrCodeTurnOrderMismatch, "seats", "seats require a cardDriven turn order")
		}
		out := make(ir.List, len(rt.SeatOrder))
		for i, s := range rt.SeatOrder {
			out[i] = ir.Str(s)
		}
		return out, nil
	case ir.Zones:
		out := ir.List{}
		for _, id := range x.def.ConcreteZones(st.PlayerCount) {
			z, _, _ := x.def.ZoneForConcrete(id)
			if n.Base != "" && z.ID != n.Base {
				continue
			}
			if n.Where != nil {
				ok, err := x.evalCond(st, e.with(n.Bind, ir.Str(id)), *n.Where)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			out = append(out, ir.Str(id))
		}
		return out, nil
	case ir.AdjacentZones:
		zone, err := x.resolveZone(st, e, n.Zone)
		if err != nil {
			return nil, err
		}
		out := ir.List{}
		for _, id := range x.def.ConcreteZones(st.PlayerCount) {
			if id != zone && x.adjacent(zone, id) {
				out = append(out, ir.Str(id))
			}
		}
		return out, nil
	case ir.BindingQuery:
		v, ok := e.b[n.Name]
		if !ok {
			return nil, unbound(n.Name, e.b)
		}
		if l, ok := v.(ir.List); ok {
			return l, nil
		}
		return ir.List{v}, nil
	case ir.Concat:
		out := ir.List{}
		for _, item := range n.Items {
			l, err := x.evalQuery(st, e, item)
			if err != nil {
				return nil, err
			}
			out = append(out, l...)
			if len(out) > MaxQueryResults {
				return nil, runtimeErr(ErrCodeQueryCapExceeded, "concat",
					"result exceeds %d items", MaxQueryResults)
			}
		}
		return out, nil
	case ir.Filter:
		items, err := x.evalQuery(st, e, n.Query)
		if err != nil {
			return nil, err
		}
		out := ir.List{}
		for _, item := range items {
			ok, err := x.evalCond(st, e.with(n.Bind, item), n.Where)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, item)
			}
		}
		return out, nil
	case nil:
		return nil, runtimeErr(ErrCodeInternal, "query", "missing query")
	default:
		return nil, runtimeErr(ErrCodeInternal, "query", "unhandled query node %T", n)
	}
}

// tokenMatches applies property filters; an empty filter list matches.
func (x *executor) tokenMatches(st *GameState, e env, tok Token, filters []ir.PropFilter) (bool, error) {
	for _, f := range filters {
		have, err := x.tokenProp(tok, f.Prop)
		if err != nil {
			return false, err
		}
		want, err := x.evalValue(st, e, f.Value)
		if err != nil {
			return false, err
		}
		op := f.Op
		if op == "" {
			op = "=="
		}
		ok, err := compareValues(op, have, want)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
