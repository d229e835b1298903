package engine

import (
	"log/slog"

	"github.com/roach88/ludeme/internal/ir"
)

// DefaultMaxTriggerDepth bounds nested trigger dispatch.
const DefaultMaxTriggerDepth = 8

// TriggerFiring records one trigger run during a move.
type TriggerFiring struct {
	TriggerID string `json:"trigger_id"`
	Event     string `json:"event"`
	Depth     int    `json:"depth"`
}

// lifecycleEvent is a dispatched event; empty fields match nothing
// narrower than the event kind.
type lifecycleEvent struct {
	kind   string
	phase  string
	action string
}

func (ev lifecycleEvent) matches(on ir.TriggerEvent) bool {
	if on.Event != ev.kind {
		return false
	}
	if on.Phase != "" && on.Phase != ev.phase {
		return false
	}
	if on.Action != "" && on.Action != ev.action {
		return false
	}
	return true
}

// dispatch runs every matching trigger in declaration order. Triggers see
// a fresh binding environment. Past the depth limit dispatch is skipped.
func (x *executor) dispatch(st *GameState, e env, ev lifecycleEvent) (*GameState, error) {
	if x.triggerDepth >= x.maxTriggerDepth {
		slog.Debug("trigger depth limit reached",
			"event", ev.kind,
			"phase", ev.phase,
			"depth", x.triggerDepth,
		)
		return st, nil
	}
	for i := range x.def.Triggers {
		t := &x.def.Triggers[i]
		if !ev.matches(t.On) {
			continue
		}
		te := env{actor: e.actor, executor: e.executor, b: Bindings{}}
		ok, err := x.evalOptCond(st, te, t.When)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		x.triggerDepth++
		*x.firings = append(*x.firings, TriggerFiring{TriggerID: t.ID, Event: ev.kind, Depth: x.triggerDepth})
		x.trace.emit(TraceTrigger, ir.Object{
			"trigger": ir.Str(t.ID),
			"event":   ir.Str(ev.kind),
			"depth":   ir.Int(x.triggerDepth),
		})
		st, err = x.runScoped(st, te, t.Effects)
		x.triggerDepth--
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}
