package engine

import (
	"fmt"

	"github.com/roach88/ludeme/internal/ir"
)

// evalValue computes a value expression. It never mutates state.
func (x *executor) evalValue(st *GameState, e env, expr ir.Expr) (ir.Value, error) {
	switch n := expr.Node.(type) {
	case ir.Lit:
		return n.Value, nil
	case ir.GVarRef:
		if _, ok := x.def.GlobalVar(n.Var); !ok {
			return nil, &DefinitionError{Kind: "globalVar", Ref: n.Var}
		}
		return st.GlobalVars[n.Var], nil
	case ir.PVarRef:
		if _, ok := x.def.PlayerVar(n.Var); !ok {
			return nil, &DefinitionError{Kind: "playerVar", Ref: n.Var}
		}
		p, err := x.resolvePlayer(st, e, n.Player)
		if err != nil {
			return nil, err
		}
		return st.PlayerVars[p][n.Var], nil
	case ir.BindingRef:
		v, ok := e.b[n.Name]
		if !ok {
			return nil, unbound(n.Name, e.b)
		}
		return v, nil
	case ir.ZoneCount:
		zone, err := x.resolveZone(st, e, n.Zone)
		if err != nil {
			return nil, err
		}
		return ir.Int(len(st.ZoneTokens(zone))), nil
	case ir.TokenProp:
		tok, err := x.evalToken(st, e, n.Token)
		if err != nil {
			return nil, err
		}
		return x.tokenProp(tok, n.Prop)
	case ir.TokenZone:
		id, err := x.evalTokenID(st, e, n.Token)
		if err != nil {
			return nil, err
		}
		_, zone, _, ok := st.FindToken(id)
		if !ok {
			return nil, runtimeErr(ErrCodeUnknownToken, "token", "no token %q", id)
		}
		return ir.Str(zone), nil
	case ir.Count:
		items, err := x.evalQuery(st, e, n.Query)
		if err != nil {
			return nil, err
		}
		return ir.Int(len(items)), nil
	case ir.Aggregate:
		return x.evalAggregate(st, e, n)
	case ir.Arith:
		return x.evalArith(st, e, n)
	case ir.IfValue:
		ok, err := x.evalCond(st, e, n.When)
		if err != nil {
			return nil, err
		}
		if ok {
			return x.evalValue(st, e, n.Then)
		}
		return x.evalValue(st, e, n.Else)
	case ir.MarkerState:
		space, err := x.resolveZone(st, e, n.Space)
		if err != nil {
			return nil, err
		}
		lat, ok := x.def.Lattice(n.Marker)
		if !ok {
			return nil, &DefinitionError{Kind: "lattice", Ref: n.Marker}
		}
		if s, ok := st.marker(space, n.Marker); ok {
			return ir.Str(s), nil
		}
		return ir.Str(lat.Default), nil
	case ir.GlobalMarkerState:
		lat, ok := x.def.GlobalLattice(n.Marker)
		if !ok {
			return nil, &DefinitionError{Kind: "globalLattice", Ref: n.Marker}
		}
		if s, ok := st.GlobalMarkers[n.Marker]; ok {
			return ir.Str(s), nil
		}
		return ir.Str(lat.Default), nil
	case ir.ZoneAttr:
		zone, err := x.resolveZone(st, e, n.Zone)
		if err != nil {
			return nil, err
		}
		z, _, _ := x.def.ZoneForConcrete(zone)
		v, ok := z.Attributes[n.Attr]
		if !ok {
			return nil, runtimeErr(ErrCodeUnknownProp, "attr", "zone %q has no attribute %q", zone, n.Attr)
		}
		return v, nil
	case ir.Builtin:
		return x.evalBuiltin(st, e, n.Name)
	case ir.ListOf:
		out := make(ir.List, 0, len(n.Items))
		for _, item := range n.Items {
			v, err := x.evalValue(st, e, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case nil:
		return nil, runtimeErr(ErrCodeInternal, "value", "missing value expression")
	default:
		return nil, runtimeErr(ErrCodeInternal, "value", "unhandled value node %T", n)
	}
}

func (x *executor) evalInt(st *GameState, e env, expr ir.Expr, field string) (int64, error) {
	v, err := x.evalValue(st, e, expr)
	if err != nil {
		return 0, err
	}
	n, ok := ir.AsInt(v)
	if !ok {
		return 0, runtimeErr(ErrCodeTypeMismatch, field, "expected int, got %s", ir.Kind(v))
	}
	return n, nil
}

func (x *executor) evalStr(st *GameState, e env, expr ir.Expr, field string) (string, error) {
	v, err := x.evalValue(st, e, expr)
	if err != nil {
		return "", err
	}
	s, ok := ir.AsStr(v)
	if !ok {
		return "", runtimeErr(ErrCodeTypeMismatch, field, "expected string, got %s", ir.Kind(v))
	}
	return s, nil
}

func (x *executor) evalTokenID(st *GameState, e env, expr ir.Expr) (string, error) {
	return x.evalStr(st, e, expr, "token")
}

func (x *executor) evalToken(st *GameState, e env, expr ir.Expr) (Token, error) {
	id, err := x.evalTokenID(st, e, expr)
	if err != nil {
		return Token{}, err
	}
	tok, _, _, ok := st.FindToken(id)
	if !ok {
		return Token{}, runtimeErr(ErrCodeUnknownToken, "token", "no token %q", id)
	}
	return tok, nil
}

// tokenProp reads a declared property; "id" and "type" are always readable.
func (x *executor) tokenProp(tok Token, prop string) (ir.Value, error) {
	switch prop {
	case "id":
		return ir.Str(tok.ID), nil
	case "type":
		return ir.Str(tok.Type), nil
	}
	if v, ok := tok.Props[prop]; ok {
		return v, nil
	}
	tt, ok := x.def.TokenType(tok.Type)
	if !ok {
		return nil, &DefinitionError{Kind: "tokenType", Ref: tok.Type}
	}
	pd, ok := tt.Prop(prop)
	if !ok {
		names := make([]string, len(tt.Props))
		for i, p := range tt.Props {
			names[i] = p.Name
		}
		return nil, &EffectRuntimeError{
			Code:       ErrCodeUnknownProp,
			Field:      "prop",
			Message:    fmt.Sprintf("token type %q has no property %q", tok.Type, prop),
			Candidates: names,
		}
	}
	return zeroOf(pd.Type), nil
}

// zeroOf is the value of an unset property of a declared type.
func zeroOf(typ string) ir.Value {
	switch typ {
	case "int":
		return ir.Int(0)
	case "bool", ir.VarTypeBoolean:
		return ir.Bool(false)
	case "list":
		return ir.List{}
	default:
		return ir.Str("")
	}
}

func (x *executor) evalAggregate(st *GameState, e env, n ir.Aggregate) (ir.Value, error) {
	if n.Op != "sum" && n.Op != "min" && n.Op != "max" {
		return nil, &EffectRuntimeError{
			Code:       ErrCodeTypeMismatch,
			Field:      "op",
			Message:    fmt.Sprintf("unknown aggregate %q", n.Op),
			Candidates: []string{"sum", "min", "max"},
		}
	}
	items, err := x.evalQuery(st, e, n.Over)
	if err != nil {
		return nil, err
	}
	var acc int64
	for i, item := range items {
		v, err := x.evalInt(st, e.with(n.Bind, item), n.Value, "value")
		if err != nil {
			return nil, err
		}
		switch {
		case n.Op == "sum":
			acc += v
		case i == 0:
			acc = v
		case n.Op == "min":
			acc = min(acc, v)
		default:
			acc = max(acc, v)
		}
	}
	return ir.Int(acc), nil
}

func (x *executor) evalArith(st *GameState, e env, n ir.Arith) (ir.Value, error) {
	l, err := x.evalInt(st, e, n.Left, "left")
	if err != nil {
		return nil, err
	}
	r, err := x.evalInt(st, e, n.Right, "right")
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		return ir.Int(l + r), nil
	case "-":
		return ir.Int(l - r), nil
	case "*":
		return ir.Int(l * r), nil
	case "/":
		if r == 0 {
			return nil, runtimeErr(ErrCodeDivisionByZero, "right", "division by zero")
		}
		return ir.Int(l / r), nil
	case "%":
		if r == 0 {
			return nil, runtimeErr(ErrCodeDivisionByZero, "right", "modulo by zero")
		}
		return ir.Int(l % r), nil
	case "min":
		return ir.Int(min(l, r)), nil
	case "max":
		return ir.Int(max(l, r)), nil
	default:
		return nil, &EffectRuntimeError{
			Code:       ErrCodeTypeMismatch,
			Field:      "op",
			Message:    fmt.Sprintf("unknown operator %q", n.Op),
			Candidates: []string{"+", "-", "*", "/", "%", "min", "max"},
		}
	}
}

func (x *executor) evalBuiltin(st *GameState, e env, name string) (ir.Value, error) {
	switch name {
	case ir.BuiltinActivePlayer:
		return ir.Int(st.ActivePlayer), nil
	case ir.BuiltinActor:
		return ir.Int(e.actor), nil
	case ir.BuiltinExecutor:
		return ir.Int(e.executor), nil
	case ir.BuiltinTurnCount:
		return ir.Int(st.TurnCount), nil
	case ir.BuiltinPlayerCount:
		return ir.Int(st.PlayerCount), nil
	case ir.BuiltinCurrentPhase:
		return ir.Str(st.CurrentPhase), nil
	case ir.BuiltinActiveSeat:
		rt := st.CardRuntime()
		if rt == nil {
			return nil, runtimeErr(ErrCodeTurnOrderMismatch, "builtin", "activeSeat requires a cardDriven turn order")
		}
		return ir.Str(rt.SeatOrder[st.ActivePlayer]), nil
	default:
		return nil, &EffectRuntimeError{
			Code:    ErrCodeTypeMismatch,
			Field:   "builtin",
			Message: fmt.Sprintf("unknown builtin %q", name),
			Candidates: []string{
				ir.BuiltinActivePlayer, ir.BuiltinActor, ir.BuiltinExecutor, ir.BuiltinTurnCount,
				ir.BuiltinPlayerCount, ir.BuiltinCurrentPhase, ir.BuiltinActiveSeat,
			},
		}
	}
}
