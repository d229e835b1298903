package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/turnflow"
)

func (x *executor) turnFlow() *ir.TurnFlowConfig {
	return x.def.TurnOrder.TurnFlow
}

// cardRuntime returns the card-driven runtime or a turn-order mismatch.
func cardRuntime(st *GameState) (turnflow.Runtime, error) {
	rt := st.CardRuntime()
	if rt == nil {
		return turnflow.Runtime{}, runtimeErr(ErrCodeTurnOrderMismatch, "",
			"turn order is %q, not cardDriven", st.TurnOrder.Type)
	}
	return *rt, nil
}

func activeSeat(st *GameState, rt turnflow.Runtime) string {
	if st.ActivePlayer < 0 || st.ActivePlayer >= len(rt.SeatOrder) {
		return ""
	}
	return rt.SeatOrder[st.ActivePlayer]
}

// liftValidation turns a turn-flow validation failure into an effect error.
func liftValidation(err error, code EffectErrorCode) error {
	var ve *turnflow.ValidationError
	if errors.As(err, &ve) {
		return &EffectRuntimeError{Code: code, Field: ve.Field, Message: ve.Message, Candidates: ve.Candidates}
	}
	return err
}

func (x *executor) applyGrantFreeOperation(st *GameState, e env, n ir.GrantFreeOperation) (*GameState, error) {
	rt, err := cardRuntime(st)
	if err != nil {
		return nil, err
	}
	req := turnflow.GrantRequest{
		ID:             n.ID,
		Seat:           n.Seat,
		ExecuteAsSeat:  n.ExecuteAsSeat,
		OperationClass: n.OperationClass,
		ActionIDs:      n.ActionIDs,
		ZoneFilter:     n.ZoneFilter,
		Uses:           1,
	}
	if n.Uses != nil {
		uses, err := x.evalInt(st, e, *n.Uses, "uses")
		if err != nil {
			return nil, err
		}
		req.Uses = int(uses)
	}
	if n.Sequence != nil {
		step, err := x.evalInt(st, e, n.Sequence.Step, "sequence.step")
		if err != nil {
			return nil, err
		}
		req.HasSequence, req.Chain, req.Step = true, n.Sequence.Chain, int(step)
	}
	rt, g, err := rt.AddGrant(req, activeSeat(st, rt))
	if err != nil {
		return nil, liftValidation(err, ErrCodeInvalidGrant)
	}
	x.trace.emit(TraceGrant, ir.Object{
		"grant": ir.Str(g.ID),
		"seat":  ir.Str(g.Seat),
		"class": ir.Str(g.OperationClass),
		"uses":  ir.Int(g.RemainingUses),
	})
	return st.withCardRuntime(rt), nil
}

func (x *executor) applySetEligibilityOverride(st *GameState, e env, n ir.SetEligibilityOverride) (*GameState, error) {
	rt, err := cardRuntime(st)
	if err != nil {
		return nil, err
	}
	seat := n.Seat
	if seat == turnflow.SelfSeat {
		seat = activeSeat(st, rt)
	}
	if rt.SeatIndex(seat) < 0 {
		return nil, &EffectRuntimeError{
			Code:       ErrCodeUnknownPlayer,
			Field:      "seat",
			Message:    fmt.Sprintf("unknown seat %q", n.Seat),
			Candidates: append([]string{turnflow.SelfSeat}, rt.SeatOrder...),
		}
	}
	var window *ir.OverrideWindow
	for i, w := range x.turnFlow().OverrideWindows {
		if w.ID == n.Window {
			window = &x.turnFlow().OverrideWindows[i]
			break
		}
	}
	if window == nil {
		err := runtimeErr(ErrCodeUnknownWindow, "window", "no override window %q", n.Window)
		for _, w := range x.turnFlow().OverrideWindows {
			err.Candidates = append(err.Candidates, w.ID)
		}
		return nil, err
	}
	rt = rt.AddOverride(turnflow.Override{
		Seat:     seat,
		Eligible: n.Eligible,
		WindowID: window.ID,
		Duration: window.Duration,
	})
	x.trace.emit(TraceEligibilityOverride, ir.Object{
		"seat":     ir.Str(seat),
		"eligible": ir.Bool(n.Eligible),
		"window":   ir.Str(window.ID),
	})
	return st.withCardRuntime(rt), nil
}

// ---- card lifecycle ----

func (x *executor) cardZone(st *GameState, tmpl string) (string, error) {
	if tmpl == "" {
		return "", nil
	}
	return x.resolveZone(st, env{b: Bindings{}}, ir.ZoneSel(tmpl))
}

// topCard returns the top token of a lifecycle zone.
func (x *executor) topCard(st *GameState, tmpl string) (Token, bool, error) {
	zone, err := x.cardZone(st, tmpl)
	if err != nil || zone == "" {
		return Token{}, false, err
	}
	toks := st.ZoneTokens(zone)
	if len(toks) == 0 {
		return Token{}, false, nil
	}
	return toks[0], true, nil
}

// shiftCard moves the top card of one lifecycle zone onto another.
func (x *executor) shiftCard(st *GameState, fromTmpl, toTmpl string) (*GameState, error) {
	from, err := x.cardZone(st, fromTmpl)
	if err != nil {
		return nil, err
	}
	to, err := x.cardZone(st, toTmpl)
	if err != nil {
		return nil, err
	}
	if from == "" || to == "" || len(st.ZoneTokens(from)) == 0 {
		return st, nil
	}
	return x.relocate(st, st.ZoneTokens(from)[0], from, 0, to, ir.PositionTop)
}

// rotateCards discards the played card, promotes the lookahead card and
// reveals the next deck card as the new lookahead.
func (x *executor) rotateCards(st *GameState) (*GameState, error) {
	cards := x.turnFlow().Cards
	st, err := x.shiftCard(st, cards.Played, cards.Discard)
	if err != nil {
		return nil, err
	}
	if st, err = x.shiftCard(st, cards.Lookahead, cards.Played); err != nil {
		return nil, err
	}
	return x.shiftCard(st, cards.Deck, cards.Lookahead)
}

func isCoupCard(tok Token) bool {
	b, _ := ir.AsBool(tok.Props["coup"])
	return b
}

// cardOrder reads a card's seat order; nil falls back to the seat order.
func cardOrder(tok Token) []string {
	list, ok := ir.AsList(tok.Props["order"])
	if !ok {
		return nil
	}
	var out []string
	for _, v := range list {
		if s, ok := ir.AsStr(v); ok {
			out = append(out, s)
		}
	}
	return out
}

// beginCard prepares the runtime for the played card and returns the first
// phase to enter. A coup card opens a coup round while the consecutive
// limit allows; past it the coup card is discarded and the next card drawn.
func (x *executor) beginCard(st *GameState) (*GameState, string, error) {
	plan := x.def.TurnOrder.CoupPlan
	deck, err := x.cardZone(st, x.turnFlow().Cards.Deck)
	if err != nil {
		return nil, "", err
	}
	for range len(st.ZoneTokens(deck)) + 2 {
		rt, err := cardRuntime(st)
		if err != nil {
			return nil, "", err
		}
		card, ok, err := x.topCard(st, x.turnFlow().Cards.Played)
		if err != nil {
			return nil, "", err
		}
		if ok && isCoupCard(card) && plan != nil && len(plan.Phases) > 0 {
			rt = rt.WithCoupRound(true)
			if rt.ConsecutiveCoupRounds <= plan.MaxConsecutiveRounds {
				st = st.withCardRuntime(rt.BeginCard(nil))
				st.TurnOrder.Position = 0
				st.ActivePlayer = 0
				return st, plan.Phases[0], nil
			}
			st = st.withCardRuntime(rt)
			if st, err = x.rotateCards(st); err != nil {
				return nil, "", err
			}
			continue
		}
		var order []string
		if ok {
			order = cardOrder(card)
		}
		rt = rt.WithCoupRound(false).BeginCard(order)
		st = st.withCardRuntime(rt)
		return x.refreshActive(st), x.regularPhases()[0], nil
	}
	return nil, "", runtimeErr(ErrCodeInternal, "cards", "coup cards exhausted the deck")
}

// cardPlayedEvent is dispatched after turnStart for every new card.
func cardPlayedEvent(phase string) lifecycleEvent {
	return lifecycleEvent{kind: ir.EventCardPlayed, phase: phase}
}

// endCard recomputes eligibility, rotates the cards and opens the next one.
func (x *executor) endCard(st *GameState, e env) (*GameState, error) {
	st, err := x.closeTurn(st, e)
	if err != nil {
		return nil, err
	}
	rt, err := cardRuntime(st)
	if err != nil {
		return nil, err
	}
	card, _, err := x.topCard(st, x.turnFlow().Cards.Played)
	if err != nil {
		return nil, err
	}
	x.trace.emit(TraceCardEnd, ir.Object{"card": ir.Str(card.ID), "acted": strList(rt.Card.ActedSeats)})
	st = st.withCardRuntime(rt.EndCard())
	return x.nextCard(st, e)
}

// endCoupRound restores eligibility after a coup round and moves on.
func (x *executor) endCoupRound(st *GameState, e env) (*GameState, error) {
	st, err := x.closeTurn(st, e)
	if err != nil {
		return nil, err
	}
	rt, err := cardRuntime(st)
	if err != nil {
		return nil, err
	}
	st = st.withCardRuntime(rt.EndCoupRound())
	return x.nextCard(st, e)
}

func (x *executor) nextCard(st *GameState, e env) (*GameState, error) {
	st, err := x.rotateCards(st)
	if err != nil {
		return nil, err
	}
	st, phase, err := x.beginCard(st)
	if err != nil {
		return nil, err
	}
	return x.openTurn(st, e, phase, cardPlayedEvent(phase))
}

func strList(items []string) ir.List {
	out := make(ir.List, len(items))
	for i, s := range items {
		out[i] = ir.Str(s)
	}
	return out
}

// ---- active player ----

// refreshActive derives the active player from the turn-order state.
func (x *executor) refreshActive(st *GameState) *GameState {
	active := st.ActivePlayer
	switch st.TurnOrder.Type {
	case ir.TurnOrderSimultaneous:
		for p := 0; p < st.PlayerCount; p++ {
			if !slices.Contains(st.TurnOrder.Submitted, p) {
				active = p
				break
			}
		}
	case ir.TurnOrderCardDriven:
		rt := st.CardRuntime()
		if rt == nil {
			return st
		}
		switch {
		case x.inCoupRound(st):
			active = st.TurnOrder.Position % max(1, len(rt.SeatOrder))
		case len(rt.UsableGrants()) > 0:
			active = rt.SeatIndex(rt.UsableGrants()[0].Seat)
		case rt.NextSeat() != "":
			active = rt.SeatIndex(rt.NextSeat())
		}
	}
	if active == st.ActivePlayer || active < 0 {
		return st
	}
	st = st.clone()
	st.ActivePlayer = active
	return st
}

// grantPriority reports the seat whose usable grants take precedence over
// normal card play, if any.
func grantPriority(rt *turnflow.Runtime) (string, bool) {
	if rt == nil {
		return "", false
	}
	usable := rt.UsableGrants()
	if len(usable) == 0 {
		return "", false
	}
	return usable[0].Seat, true
}

// afterCardMove records a resolved move in the card-driven runtime and
// ends the card once its acting seats are done.
func (x *executor) afterCardMove(st *GameState, e env, m Move, info moveInfo) (*GameState, error) {
	if x.inCoupRound(st) {
		st = st.clone()
		st.TurnOrder.Position++
		if st.TurnOrder.Position < len(x.turnFlow().Seats) {
			return st, nil
		}
		st.TurnOrder.Position = 0
		return x.applyAdvancePhase(st, e)
	}

	cfg := x.turnFlow()
	rt, err := cardRuntime(st)
	if err != nil {
		return nil, err
	}
	seat := rt.SeatOrder[info.actor]
	prioritySeat, priority := grantPriority(&rt)
	switch {
	case info.grant != nil:
		if rt, err = rt.ConsumeGrant(info.grant.ID); err != nil {
			return nil, liftValidation(err, ErrCodeInvalidGrant)
		}
		x.trace.emit(TraceGrantUsed, ir.Object{"grant": ir.Str(info.grant.ID), "seat": ir.Str(seat)})
	case turnflow.IsPass(cfg, m.ActionID) && priority && prioritySeat == seat:
		g := rt.UsableGrants()[0]
		rt = rt.DropGrant(g.ID)
		x.trace.emit(TraceGrantUsed, ir.Object{"grant": ir.Str(g.ID), "seat": ir.Str(seat), "declined": ir.Bool(true)})
	case turnflow.IsPass(cfg, m.ActionID):
		rt = rt.RecordPass(seat)
		if st, err = x.payPassRewards(st, info.actor, seat); err != nil {
			return nil, err
		}
	default:
		rt = rt.RecordNonPass(seat, info.class)
	}
	if m.Compound != nil {
		rt = rt.WithCompound(turnflow.Compound{
			OperationAction:       m.ActionID,
			SpecialActivityAction: m.Compound.SpecialActivity.ActionID,
			Timing:                m.Compound.Timing,
		})
	}
	st = st.withCardRuntime(rt)
	if rt.CardComplete() && len(rt.UsableGrants()) == 0 {
		return x.endCard(st, e)
	}
	return st, nil
}

func (x *executor) payPassRewards(st *GameState, player int, seat string) (*GameState, error) {
	cfg := x.turnFlow()
	class := cfg.SeatClasses[seat]
	for _, r := range cfg.PassRewards {
		if r.SeatClass != class {
			continue
		}
		c, err := x.resolveVar(st, env{}, ir.VarTarget{
			Var:    r.Var,
			Player: &ir.PlayerSel{Kind: ir.PlayerIndex, Index: player},
		})
		if err != nil {
			return nil, err
		}
		cur, _ := ir.AsInt(c.read(st))
		if st, err = x.write(st, c, ir.Int(saturatingAdd(cur, r.Amount))); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// turnFlowEnv describes the cards the move filters consult.
func (x *executor) turnFlowEnv(st *GameState) (turnflow.Env, error) {
	cfg := x.turnFlow()
	var env turnflow.Env
	if played, ok, err := x.topCard(st, cfg.Cards.Played); err != nil {
		return env, err
	} else if ok {
		env.CardID = played.ID
		if tags, ok := ir.AsList(played.Props["tags"]); ok {
			for _, t := range tags {
				if s, ok := ir.AsStr(t); ok {
					env.CardTags = append(env.CardTags, s)
				}
			}
		}
	}
	if cfg.Monsoon != nil && cfg.Monsoon.Flag != "" {
		look, ok, err := x.topCard(st, cfg.Cards.Lookahead)
		if err != nil {
			return env, err
		}
		if ok {
			env.MonsoonActive, _ = ir.AsBool(look.Props[cfg.Monsoon.Flag])
		}
	}
	return env, nil
}
