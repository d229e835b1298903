package engine

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/turnflow"
)

// moveInfo is what admission learned about a move.
type moveInfo struct {
	action   *ir.ActionDef
	actor    int
	executor int
	class    string

	// grant is the free-operation grant the move is charged to.
	grant *turnflow.Grant
}

func illegal(m Move, format string, args ...any) *IllegalMoveError {
	return &IllegalMoveError{ActionID: m.ActionID, Reason: fmt.Sprintf(format, args...)}
}

// admit checks everything about a move that does not depend on running its
// effects: who may take it, when, how often, and under which grant.
func (x *executor) admit(st *GameState, m Move) (moveInfo, error) {
	a, ok := x.def.Action(m.ActionID)
	if !ok {
		return moveInfo{}, illegal(m, "unknown action")
	}
	info := moveInfo{action: a, actor: st.ActivePlayer}
	if m.Compound != nil && m.Compound.SpecialActivity.Compound != nil {
		return info, illegal(m, "special activity cannot itself be compound")
	}

	cfg := x.turnFlow()
	rt := st.CardRuntime()
	if cfg != nil && rt != nil {
		if seat, pivotal := turnflow.PivotalSeat(cfg, a.ID); pivotal {
			if info.actor = rt.SeatIndex(seat); info.actor < 0 {
				return info, illegal(m, "pivotal seat %q is not seated", seat)
			}
		}
	}
	if err := x.checkActor(st, a, info.actor); err != nil {
		return info, illegal(m, "%v", err)
	}
	if !a.InPhase(st.CurrentPhase) {
		return info, illegal(m, "not available in phase %q", st.CurrentPhase)
	}
	u := st.usage(a.ID)
	for _, l := range a.Limits {
		var n int
		switch l.Scope {
		case ir.LimitScopeTurn:
			n = u.Turn
		case ir.LimitScopePhase:
			n = u.Phase
		case ir.LimitScopeGame:
			n = u.Game
		}
		if n >= l.Max {
			return info, illegal(m, "%s limit of %d reached", l.Scope, l.Max)
		}
	}

	info.executor = info.actor
	if a.Executor != nil {
		p, err := x.resolvePlayer(st, env{actor: info.actor, executor: info.actor, b: Bindings{}}, *a.Executor)
		if err != nil {
			return info, err
		}
		info.executor = p
	}

	if cfg == nil {
		info.class = a.Class
		if m.FreeOperation {
			return info, illegal(m, "free operations need a card-driven turn order")
		}
		return info, nil
	}
	info.class = turnflow.ResolveClass(cfg, a.ID, m.ActionClass, a.Class)
	if !m.FreeOperation {
		if slices.Contains(cfg.FreeOnlyActions, a.ID) {
			return info, illegal(m, "only available as a free operation")
		}
		return info, nil
	}
	if rt == nil {
		return info, illegal(m, "free operations need a card-driven turn order")
	}
	seat := activeSeat(st, *rt)
	zones := x.paramZones(st, m.Params)
	for _, g := range rt.UsableGrants() {
		if g.Seat != seat || !turnflow.GrantAllows(g, a.ID, info.class, zones) {
			continue
		}
		info.grant = &g
		if g.ExecuteAsSeat != "" {
			info.executor = rt.SeatIndex(g.ExecuteAsSeat)
		}
		return info, nil
	}
	return info, illegal(m, "no usable free-operation grant for seat %q and class %q", seat, info.class)
}

// checkActor enforces the action's actor constraint: the active player by
// default, anyone, a player index, or a seat id.
func (x *executor) checkActor(st *GameState, a *ir.ActionDef, actor int) error {
	switch a.Actor {
	case "", ir.ActorActive, ir.ActorAny:
		return nil
	}
	if n, err := strconv.Atoi(a.Actor); err == nil {
		if n != actor {
			return fmt.Errorf("only player %d may take it", n)
		}
		return nil
	}
	if rt := st.CardRuntime(); rt != nil && rt.SeatIndex(a.Actor) == actor {
		return nil
	}
	return fmt.Errorf("only %q may take it", a.Actor)
}

// paramZones collects the concrete zone ids a move's parameters name.
func (x *executor) paramZones(st *GameState, params ir.Object) []string {
	var zones []string
	add := func(v ir.Value) {
		s, ok := ir.AsStr(v)
		if !ok {
			return
		}
		if _, owner, err := x.def.ZoneForConcrete(s); err == nil && owner < st.PlayerCount {
			zones = append(zones, s)
		}
	}
	for _, k := range params.SortedKeys() {
		if list, ok := ir.AsList(params[k]); ok {
			for _, item := range list {
				add(item)
			}
			continue
		}
		add(params[k])
	}
	return zones
}

// executeMove admits a move and runs it: the special activity of a compound
// move around the operation, declared parameters, precondition, then either
// the first applicable operation profile or the plain cost and effects.
// Free operations skip costs.
func (x *executor) executeMove(st *GameState, m Move) (*GameState, moveInfo, error) {
	info, err := x.admit(st, m)
	if err != nil {
		return nil, info, err
	}
	c := m.Compound
	if c != nil && c.Timing != TimingBefore && c.Timing != TimingAfter {
		return nil, info, illegal(m, "unknown compound timing %q", c.Timing)
	}
	if c != nil && c.Timing == TimingBefore {
		if st, err = x.runSpecialActivity(st, c.SpecialActivity); err != nil {
			return nil, info, err
		}
	}
	if st, err = x.runAction(st, m, info); err != nil {
		return nil, info, err
	}
	if c != nil && c.Timing == TimingAfter {
		if st, err = x.runSpecialActivity(st, c.SpecialActivity); err != nil {
			return nil, info, err
		}
	}
	return st, info, nil
}

// runSpecialActivity runs the special activity of a compound move with its
// own parameters, sharing trace, budget and trigger bookkeeping.
func (x *executor) runSpecialActivity(st *GameState, sa Move) (*GameState, error) {
	sub := *x
	sub.params = sa.Params
	info, err := sub.admit(st, sa)
	if err != nil {
		return nil, err
	}
	return sub.runAction(st, sa, info)
}

func (x *executor) runAction(st *GameState, m Move, info moveInfo) (*GameState, error) {
	a := info.action
	e := env{actor: info.actor, executor: info.executor, b: Bindings{}}
	for _, p := range a.Params {
		options, err := x.evalQuery(st, e, p.Domain)
		if err != nil {
			return nil, err
		}
		v, err := x.chooseFrom(p.Name, p.Name, options)
		if err != nil {
			return nil, err
		}
		e = e.with(p.Name, v)
	}
	ok, err := x.evalOptCond(st, e, a.Pre)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, illegal(m, "precondition does not hold")
	}

	free := m.FreeOperation
	profiles := x.def.ProfilesFor(a.ID)
	if len(profiles) == 0 {
		if !free {
			if st, e, err = x.runList(st, e, a.Cost); err != nil {
				return nil, err
			}
		}
		st, _, err = x.runList(st, e, a.Effects)
		return st, err
	}

	var prof *ir.OperationProfile
	for _, p := range profiles {
		ok, err := x.evalOptCond(st, e, p.Applicability)
		if err != nil {
			return nil, err
		}
		if ok {
			prof = p
			break
		}
	}
	if prof == nil {
		return nil, illegal(m, "no operation profile applies")
	}
	if ok, err = x.evalOptCond(st, e, prof.Legality); err != nil {
		return nil, err
	} else if !ok {
		return nil, illegal(m, "profile %q is not legal here", prof.ID)
	}
	if !free {
		if ok, err = x.evalOptCond(st, e, prof.CostValidation); err != nil {
			return nil, err
		} else if !ok {
			return nil, illegal(m, "cannot pay the cost of profile %q", prof.ID)
		}
		if st, e, err = x.runList(st, e, prof.Cost); err != nil {
			return nil, err
		}
	}
	if st, e, err = x.runList(st, e, prof.Targeting); err != nil {
		return nil, err
	}
	for _, stage := range prof.Stages {
		if st, e, err = x.runList(st, e, stage); err != nil {
			return nil, err
		}
	}
	return st, nil
}
