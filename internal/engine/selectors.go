package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/ludeme/internal/ir"
)

// resolvePlayer evaluates a player selector to a player index.
// Expressions may yield an index or, under a card-driven turn order, a seat id.
func (x *executor) resolvePlayer(st *GameState, e env, sel ir.PlayerSel) (int, error) {
	var p int
	switch sel.Kind {
	case ir.PlayerActive:
		p = st.ActivePlayer
	case ir.PlayerActor:
		p = e.actor
	case ir.PlayerExecutor:
		p = e.executor
	case ir.PlayerIndex:
		p = sel.Index
	case ir.PlayerExpr:
		v, err := x.evalValue(st, e, sel.Expr)
		if err != nil {
			return 0, err
		}
		p, err = playerFromValue(st, v)
		if err != nil {
			return 0, err
		}
	default:
		return 0, runtimeErr(ErrCodeInternal, "player", "unknown player selector kind %q", sel.Kind)
	}
	if p < 0 || p >= st.PlayerCount {
		return 0, runtimeErr(ErrCodeUnknownPlayer, "player", "player %d out of range [0, %d)", p, st.PlayerCount)
	}
	return p, nil
}

func playerFromValue(st *GameState, v ir.Value) (int, error) {
	switch pv := v.(type) {
	case ir.Int:
		return int(pv), nil
	case ir.Str:
		if rt := st.CardRuntime(); rt != nil {
			if i := rt.SeatIndex(string(pv)); i >= 0 {
				return i, nil
			}
			return 0, &EffectRuntimeError{
				Code:       ErrCodeUnknownPlayer,
				Field:      "player",
				Message:    fmt.Sprintf("unknown seat %q", string(pv)),
				Candidates: rt.SeatOrder,
			}
		}
	}
	return 0, runtimeErr(ErrCodeTypeMismatch, "player", "expected a player index, got %s", ir.Kind(v))
}

// resolveZone turns a zone template into a concrete zone id.
//
// Substitutions, in order: "{$name}" segments are replaced by the bound
// value; a template that is exactly "$name" is replaced by the bound zone
// id; the owner suffixes ":active", ":actor" and ":executor" become player
// indices; a bare unowned base id gets ":none".
func (x *executor) resolveZone(st *GameState, e env, sel ir.ZoneSel) (string, error) {
	id, err := substituteTemplate(string(sel), e.b)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(id, "$") {
		v, ok := e.b[id]
		if !ok {
			return "", unbound(id, e.b)
		}
		s, ok := v.(ir.Str)
		if !ok {
			return "", runtimeErr(ErrCodeTypeMismatch, "zone", "binding %s holds %s, not a zone id", id, ir.Kind(v))
		}
		id = string(s)
	}

	if base, suffix, ok := strings.Cut(id, ":"); ok {
		switch suffix {
		case "active":
			id = ir.ConcreteZoneID(base, st.ActivePlayer)
		case "actor":
			id = ir.ConcreteZoneID(base, e.actor)
		case "executor":
			id = ir.ConcreteZoneID(base, e.executor)
		}
	} else if z, found := x.def.Zone(id); found && z.Owner != ir.OwnerPlayer {
		id = ir.ConcreteZoneID(id, -1)
	}

	if err := x.checkZone(st, id); err != nil {
		return "", err
	}
	return id, nil
}

// checkZone verifies a concrete zone id against the definition.
func (x *executor) checkZone(st *GameState, id string) error {
	_, owner, err := x.def.ZoneForConcrete(id)
	if err != nil {
		return &EffectRuntimeError{
			Code:       ErrCodeUnknownZone,
			Field:      "zone",
			Message:    err.Error(),
			Candidates: x.def.ConcreteZones(st.PlayerCount),
		}
	}
	if owner >= st.PlayerCount {
		return runtimeErr(ErrCodeUnknownZone, "zone", "zone %q names player %d of %d", id, owner, st.PlayerCount)
	}
	return nil
}

// substituteTemplate replaces "{$name}" segments with bound values.
func substituteTemplate(tmpl string, b Bindings) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}
	var out strings.Builder
	rest := tmpl
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		end := strings.Index(rest[open:], "}")
		if end < 0 {
			return "", runtimeErr(ErrCodeTypeMismatch, "template", "unterminated placeholder in %q", tmpl)
		}
		name := rest[open+1 : open+end]
		v, ok := b[name]
		if !ok {
			return "", unbound(name, b)
		}
		out.WriteString(rest[:open])
		out.WriteString(ir.Describe(v))
		rest = rest[open+end+1:]
	}
}

func unbound(name string, b Bindings) *EffectRuntimeError {
	return &EffectRuntimeError{
		Code:       ErrCodeUnboundBinding,
		Field:      name,
		Message:    fmt.Sprintf("%s is not bound", name),
		Candidates: b.Names(),
	}
}
