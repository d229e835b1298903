package engine

import (
	"math"

	"github.com/roach88/ludeme/internal/ir"
)

// varCell is a resolved variable location; player is -1 for globals.
type varCell struct {
	def    *ir.VarDef
	player int
}

func (c varCell) read(st *GameState) ir.Value {
	if c.player < 0 {
		return st.GlobalVars[c.def.Name]
	}
	return st.PlayerVars[c.player][c.def.Name]
}

func (c varCell) same(o varCell) bool {
	return c.def == o.def && c.player == o.player
}

func (x *executor) resolveVar(st *GameState, e env, t ir.VarTarget) (varCell, error) {
	if t.Player == nil {
		d, ok := x.def.GlobalVar(t.Var)
		if !ok {
			return varCell{}, x.unknownVar(t.Var, x.def.GlobalVars)
		}
		return varCell{def: d, player: -1}, nil
	}
	d, ok := x.def.PlayerVar(t.Var)
	if !ok {
		return varCell{}, x.unknownVar(t.Var, x.def.PerPlayerVars)
	}
	p, err := x.resolvePlayer(st, e, *t.Player)
	if err != nil {
		return varCell{}, err
	}
	return varCell{def: d, player: p}, nil
}

func (x *executor) unknownVar(name string, vars []ir.VarDef) *EffectRuntimeError {
	err := runtimeErr(ErrCodeUnknownVariable, "var", "no variable %q", name)
	for _, v := range vars {
		err.Candidates = append(err.Candidates, v.Name)
	}
	return err
}

// write stores v, clamped for int variables. Writing the value already
// held returns st itself and emits nothing.
func (x *executor) write(st *GameState, c varCell, v ir.Value) (*GameState, error) {
	switch c.def.Type {
	case ir.VarTypeInt:
		n, ok := ir.AsInt(v)
		if !ok {
			return nil, runtimeErr(ErrCodeTypeMismatch, "value", "%s is int, got %s", c.def.Name, ir.Kind(v))
		}
		v = ir.Int(clamp(n, c.def.Min, c.def.Max))
	case ir.VarTypeBoolean:
		if _, ok := ir.AsBool(v); !ok {
			return nil, runtimeErr(ErrCodeTypeMismatch, "value", "%s is boolean, got %s", c.def.Name, ir.Kind(v))
		}
	}
	old := c.read(st)
	if ir.Equal(old, v) {
		return st, nil
	}
	fields := ir.Object{"var": ir.Str(c.def.Name), "from": old, "to": v}
	if c.player < 0 {
		st = st.withGlobalVar(c.def.Name, v)
	} else {
		st = st.withPlayerVar(c.player, c.def.Name, v)
		fields["player"] = ir.Int(c.player)
	}
	x.trace.emit(TraceVarChange, fields)
	return st, nil
}

func clamp(n, lo, hi int64) int64 {
	return max(lo, min(hi, n))
}

// saturatingAdd adds without wrapping: an overflowing sum sticks at the
// int64 bound in the direction of the overflow, so a later clamp still
// picks the right end.
func saturatingAdd(a, b int64) int64 {
	s := a + b
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		if a >= 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return s
}

func (x *executor) applySetVar(st *GameState, e env, n ir.SetVar) (*GameState, error) {
	c, err := x.resolveVar(st, e, n.VarTarget)
	if err != nil {
		return nil, err
	}
	v, err := x.evalValue(st, e, n.Value)
	if err != nil {
		return nil, err
	}
	return x.write(st, c, v)
}

func (x *executor) applyAddVar(st *GameState, e env, n ir.AddVar) (*GameState, error) {
	c, err := x.resolveVar(st, e, n.VarTarget)
	if err != nil {
		return nil, err
	}
	if c.def.Type != ir.VarTypeInt {
		return nil, runtimeErr(ErrCodeTypeMismatch, "var", "addVar on %s variable %s", c.def.Type, c.def.Name)
	}
	delta, err := x.evalInt(st, e, n.Delta, "delta")
	if err != nil {
		return nil, err
	}
	cur, _ := ir.AsInt(c.read(st))
	return x.write(st, c, ir.Int(saturatingAdd(cur, delta)))
}

// applyTransferVar moves an amount between two int cells. The realized
// amount is the request narrowed by the optional bounds, then by what the
// source holds above its minimum and what the destination can take below
// its maximum.
func (x *executor) applyTransferVar(st *GameState, e env, n ir.TransferVar) (*GameState, env, error) {
	from, err := x.resolveVar(st, e, n.From)
	if err != nil {
		return nil, e, err
	}
	to, err := x.resolveVar(st, e, n.To)
	if err != nil {
		return nil, e, err
	}
	for _, c := range []varCell{from, to} {
		if c.def.Type != ir.VarTypeInt {
			return nil, e, runtimeErr(ErrCodeTypeMismatch, "var", "transferVar on %s variable %s", c.def.Type, c.def.Name)
		}
	}
	req, err := x.evalInt(st, e, n.Amount, "amount")
	if err != nil {
		return nil, e, err
	}
	if n.Min != nil {
		lo, err := x.evalInt(st, e, *n.Min, "min")
		if err != nil {
			return nil, e, err
		}
		req = max(req, lo)
	}
	if n.Max != nil {
		hi, err := x.evalInt(st, e, *n.Max, "max")
		if err != nil {
			return nil, e, err
		}
		req = min(req, hi)
	}

	var actual int64
	if !from.same(to) {
		src, _ := ir.AsInt(from.read(st))
		dst, _ := ir.AsInt(to.read(st))
		available := max(0, src-from.def.Min)
		headroom := max(0, to.def.Max-dst)
		actual = clamp(req, 0, min(available, headroom))
		if actual > 0 {
			st, err = x.write(st, from, ir.Int(src-actual))
			if err != nil {
				return nil, e, err
			}
			st, err = x.write(st, to, ir.Int(dst+actual))
			if err != nil {
				return nil, e, err
			}
		}
	}
	if n.ActualBind != "" {
		e = e.with(n.ActualBind, ir.Int(actual))
	}
	return st, e, nil
}
