package engine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// placement decides where a token enters a zone. Stacks take tokens on
// top; queues and sets append at the bottom.
func (x *executor) placement(zone, position string) (string, error) {
	switch position {
	case ir.PositionTop, ir.PositionBottom:
		return position, nil
	case "":
	default:
		return "", &EffectRuntimeError{
			Code:       ErrCodeTypeMismatch,
			Field:      "position",
			Message:    fmt.Sprintf("unknown position %q", position),
			Candidates: []string{ir.PositionTop, ir.PositionBottom},
		}
	}
	z, _, err := x.def.ZoneForConcrete(zone)
	if err == nil && z.Ordering == "stack" {
		return ir.PositionTop, nil
	}
	return ir.PositionBottom, nil
}

func insertTokens(zone []Token, toks []Token, position string) []Token {
	out := make([]Token, 0, len(zone)+len(toks))
	if position == ir.PositionTop {
		out = append(out, toks...)
		return append(out, zone...)
	}
	out = append(out, zone...)
	return append(out, toks...)
}

func removeToken(zone []Token, idx int) []Token {
	return slices.Delete(slices.Clone(zone), idx, idx+1)
}

func (x *executor) locate(st *GameState, e env, expr ir.Expr) (Token, string, int, error) {
	id, err := x.evalTokenID(st, e, expr)
	if err != nil {
		return Token{}, "", 0, err
	}
	tok, zone, idx, ok := st.FindToken(id)
	if !ok {
		return Token{}, "", 0, runtimeErr(ErrCodeUnknownToken, "token", "no token %q", id)
	}
	return tok, zone, idx, nil
}

// relocate moves one located token into dest.
func (x *executor) relocate(st *GameState, tok Token, from string, idx int, dest, position string) (*GameState, error) {
	pos, err := x.placement(dest, position)
	if err != nil {
		return nil, err
	}
	remaining := removeToken(st.ZoneTokens(from), idx)
	st = st.withZone(from, remaining)
	st = st.withZone(dest, insertTokens(st.ZoneTokens(dest), []Token{tok}, pos))
	x.trace.emit(TraceTokenMove, ir.Object{
		"token": ir.Str(tok.ID),
		"from":  ir.Str(from),
		"to":    ir.Str(dest),
	})
	return st, nil
}

func (x *executor) applyMoveToken(st *GameState, e env, n ir.MoveToken) (*GameState, error) {
	tok, zone, idx, err := x.locate(st, e, n.Token)
	if err != nil {
		return nil, err
	}
	if n.From != "" {
		from, err := x.resolveZone(st, e, n.From)
		if err != nil {
			return nil, err
		}
		if from != zone {
			return nil, runtimeErr(ErrCodeTokenNotInZone, "from", "token %s is in %s, not %s", tok.ID, zone, from)
		}
	}
	dest, err := x.resolveZone(st, e, n.To)
	if err != nil {
		return nil, err
	}
	return x.relocate(st, tok, zone, idx, dest, n.Position)
}

func (x *executor) applyMoveTokenAdjacent(st *GameState, e env, n ir.MoveTokenAdjacent) (*GameState, error) {
	tok, zone, idx, err := x.locate(st, e, n.Token)
	if err != nil {
		return nil, err
	}
	dest, err := x.resolveZone(st, e, n.To)
	if err != nil {
		return nil, err
	}
	if !x.adjacent(zone, dest) {
		return nil, runtimeErr(ErrCodeNotAdjacent, "to", "%s is not adjacent to %s", dest, zone)
	}
	return x.relocate(st, tok, zone, idx, dest, "")
}

// applyMoveAll moves every matching token of from, keeping their order.
func (x *executor) applyMoveAll(st *GameState, e env, n ir.MoveAll) (*GameState, error) {
	from, err := x.resolveZone(st, e, n.From)
	if err != nil {
		return nil, err
	}
	dest, err := x.resolveZone(st, e, n.To)
	if err != nil {
		return nil, err
	}
	if from == dest {
		return st, nil
	}
	var moved, kept []Token
	for _, tok := range st.ZoneTokens(from) {
		ok, err := x.tokenMatches(st, e, tok, n.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			moved = append(moved, tok)
		} else {
			kept = append(kept, tok)
		}
	}
	if len(moved) == 0 {
		return st, nil
	}
	pos, err := x.placement(dest, "")
	if err != nil {
		return nil, err
	}
	st = st.withZone(from, kept)
	st = st.withZone(dest, insertTokens(st.ZoneTokens(dest), moved, pos))
	for _, tok := range moved {
		x.trace.emit(TraceTokenMove, ir.Object{
			"token": ir.Str(tok.ID),
			"from":  ir.Str(from),
			"to":    ir.Str(dest),
		})
	}
	return st, nil
}

// applyDraw moves up to count tokens, one at a time, from the top of one
// zone to the top of another.
func (x *executor) applyDraw(st *GameState, e env, n ir.Draw) (*GameState, error) {
	from, err := x.resolveZone(st, e, n.From)
	if err != nil {
		return nil, err
	}
	dest, err := x.resolveZone(st, e, n.To)
	if err != nil {
		return nil, err
	}
	count, err := x.evalInt(st, e, n.Count, "count")
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, runtimeErr(ErrCodeOutOfRange, "count", "negative draw count %d", count)
	}
	if from == dest {
		return st, nil
	}
	for i := int64(0); i < count && len(st.ZoneTokens(from)) > 0; i++ {
		tok := st.ZoneTokens(from)[0]
		st, err = x.relocate(st, tok, from, 0, dest, ir.PositionTop)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (x *executor) applyReveal(st *GameState, e env, n ir.Reveal) (*GameState, error) {
	zone, err := x.resolveZone(st, e, n.Zone)
	if err != nil {
		return nil, err
	}
	observer := RevealedToAll
	if n.To != nil {
		observer, err = x.resolvePlayer(st, e, *n.To)
		if err != nil {
			return nil, err
		}
	}
	cur := st.Revealed[zone]
	if slices.Contains(cur, RevealedToAll) || slices.Contains(cur, observer) {
		return st, nil
	}
	var next []int
	if observer == RevealedToAll {
		next = []int{RevealedToAll}
	} else {
		next = append(slices.Clone(cur), observer)
		slices.Sort(next)
	}
	x.trace.emit(TraceReveal, ir.Object{"zone": ir.Str(zone), "to": ir.Int(observer)})
	return st.withRevealed(zone, next), nil
}

// applyShuffle permutes a zone. Zones with fewer than two tokens are left
// alone and consume no randomness.
func (x *executor) applyShuffle(st *GameState, e env, n ir.Shuffle) (*GameState, error) {
	zone, err := x.resolveZone(st, e, n.Zone)
	if err != nil {
		return nil, err
	}
	toks := st.ZoneTokens(zone)
	if len(toks) < 2 {
		return st, nil
	}
	perm, rng := st.RNG.Permute(len(toks))
	out := make([]Token, len(toks))
	for i, j := range perm {
		out[i] = toks[j]
	}
	st = st.withZone(zone, out)
	st.RNG = rng
	x.trace.emit(TraceShuffle, ir.Object{"zone": ir.Str(zone)})
	return st, nil
}

func (x *executor) applyCreateToken(st *GameState, e env, n ir.CreateToken) (*GameState, env, error) {
	tt, ok := x.def.TokenType(n.Type)
	if !ok {
		err := runtimeErr(ErrCodeUnknownTokenType, "type", "no token type %q", n.Type)
		for _, t := range x.def.TokenTypes {
			err.Candidates = append(err.Candidates, t.ID)
		}
		return nil, e, err
	}
	zone, err := x.resolveZone(st, e, n.Zone)
	if err != nil {
		return nil, e, err
	}
	props := ir.Object{}
	for _, name := range slices.Sorted(maps.Keys(n.Props)) {
		pd, ok := tt.Prop(name)
		if !ok {
			return nil, e, runtimeErr(ErrCodeUnknownProp, "props", "token type %q has no property %q", n.Type, name)
		}
		v, err := x.evalValue(st, e, n.Props[name])
		if err != nil {
			return nil, e, err
		}
		if err := checkPropType(pd, v); err != nil {
			return nil, e, err
		}
		props[name] = v
	}
	tok := Token{ID: fmt.Sprintf("%s#%d", n.Type, st.NextTokenOrdinal), Type: n.Type, Props: props}
	pos, err := x.placement(zone, "")
	if err != nil {
		return nil, e, err
	}
	st = st.withZone(zone, insertTokens(st.ZoneTokens(zone), []Token{tok}, pos))
	st.NextTokenOrdinal++
	x.trace.emit(TraceTokenCreate, ir.Object{"token": ir.Str(tok.ID), "zone": ir.Str(zone)})
	if n.Bind != "" {
		e = e.with(n.Bind, ir.Str(tok.ID))
	}
	return st, e, nil
}

func (x *executor) applyDestroyToken(st *GameState, e env, n ir.DestroyToken) (*GameState, error) {
	tok, zone, idx, err := x.locate(st, e, n.Token)
	if err != nil {
		return nil, err
	}
	st = st.withZone(zone, removeToken(st.ZoneTokens(zone), idx))
	x.trace.emit(TraceTokenDestroy, ir.Object{"token": ir.Str(tok.ID), "zone": ir.Str(zone)})
	return st, nil
}

func (x *executor) applySetTokenProp(st *GameState, e env, n ir.SetTokenProp) (*GameState, error) {
	tok, zone, idx, err := x.locate(st, e, n.Token)
	if err != nil {
		return nil, err
	}
	tt, ok := x.def.TokenType(tok.Type)
	if !ok {
		return nil, &DefinitionError{Kind: "tokenType", Ref: tok.Type}
	}
	pd, ok := tt.Prop(n.Prop)
	if !ok {
		return nil, runtimeErr(ErrCodeUnknownProp, "prop", "token type %q has no property %q", tok.Type, n.Prop)
	}
	v, err := x.evalValue(st, e, n.Value)
	if err != nil {
		return nil, err
	}
	if err := checkPropType(pd, v); err != nil {
		return nil, err
	}
	if old, ok := tok.Props[n.Prop]; ok && ir.Equal(old, v) {
		return st, nil
	}
	updated := tok
	updated.Props = maps.Clone(tok.Props)
	if updated.Props == nil {
		updated.Props = ir.Object{}
	}
	updated.Props[n.Prop] = v
	toks := slices.Clone(st.ZoneTokens(zone))
	toks[idx] = updated
	x.trace.emit(TraceTokenProp, ir.Object{
		"token": ir.Str(tok.ID),
		"prop":  ir.Str(n.Prop),
		"to":    v,
	})
	return st.withZone(zone, toks), nil
}

func checkPropType(pd *ir.PropDef, v ir.Value) error {
	if pd.Type != "" && ir.Kind(v) != pd.Type {
		return runtimeErr(ErrCodeTypeMismatch, pd.Name, "property %s is %s, got %s", pd.Name, pd.Type, ir.Kind(v))
	}
	return nil
}
