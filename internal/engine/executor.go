package engine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// mode selects how decisions are handled during a traversal.
type mode int

const (
	// modeCommit reads every decision from the supplied parameters and
	// fails when one is missing.
	modeCommit mode = iota

	// modeDiscover stops at the first decision the parameters do not
	// resolve and reports it as pending.
	modeDiscover
)

// Bindings is an immutable binding environment. with returns a copy.
type Bindings map[string]ir.Value

func (b Bindings) with(name string, v ir.Value) Bindings {
	out := make(Bindings, len(b)+1)
	maps.Copy(out, b)
	out[name] = v
	return out
}

// Names returns the bound names in sorted order.
func (b Bindings) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// env is the evaluation environment of one effect: who acts, on whose
// behalf, and what is bound.
type env struct {
	actor    int
	executor int
	b        Bindings
}

func (e env) with(name string, v ir.Value) env {
	e.b = e.b.with(name, v)
	return e
}

// executor runs effect programs. The same code path serves the committing
// interpreter and the choice walker; only mode differs, so both traverse
// the tree identically.
type executor struct {
	def    *ir.GameDef
	mode   mode
	params ir.Object
	trace  *Trace
	budget *PhaseBudget

	maxTriggerDepth int
	triggerDepth    int
	firings         *[]TriggerFiring

	// opts are the caller's options, passed on to the legal-move
	// enumeration a move triggers.
	opts []ApplyOption

	// sandboxed is set while running an evaluateSubset compute list, where
	// decisions are not allowed.
	sandboxed bool
}

func newExecutor(def *ir.GameDef, m mode, params ir.Object, trace *Trace, budget *PhaseBudget) *executor {
	return &executor{
		def:             def,
		mode:            m,
		params:          params,
		trace:           trace,
		budget:          budget,
		maxTriggerDepth: DefaultMaxTriggerDepth,
		firings:         &[]TriggerFiring{},
	}
}

// sandbox returns an executor whose trace, budget and trigger firings are
// detached from x.
func (x *executor) sandbox() *executor {
	c := *x
	c.trace = NewTrace()
	c.budget = x.budget.detach()
	c.firings = &[]TriggerFiring{}
	c.sandboxed = true
	return &c
}

// EffectContext is the input of ApplyEffects.
type EffectContext struct {
	Def      *ir.GameDef
	State    *GameState
	Actor    int
	Executor int
	Bindings Bindings

	// Params resolves decisions by decision id.
	Params ir.Object

	// Trace collects emitted events. Nil discards them.
	Trace *Trace

	// Budget bounds phase transitions. Nil is unlimited.
	Budget *PhaseBudget
}

// EffectResult is the outcome of ApplyEffects.
type EffectResult struct {
	State    *GameState
	Bindings Bindings
}

// ApplyEffects runs an effect list against a state and returns the new
// state and the bindings the list exported. On error no state is returned.
func ApplyEffects(ctx EffectContext, effects ir.EffectList) (EffectResult, error) {
	x := newExecutor(ctx.Def, modeCommit, ctx.Params, ctx.Trace, ctx.Budget)
	b := ctx.Bindings
	if b == nil {
		b = Bindings{}
	}
	st, e, err := x.runList(ctx.State, env{actor: ctx.Actor, executor: ctx.Executor, b: b}, effects)
	if err != nil {
		return EffectResult{}, err
	}
	return EffectResult{State: st, Bindings: e.b}, nil
}

// runList applies effects in order, threading state and exported bindings.
func (x *executor) runList(st *GameState, e env, effects ir.EffectList) (*GameState, env, error) {
	for _, eff := range effects {
		var err error
		st, e, err = x.apply(st, e, eff)
		if err != nil {
			return nil, e, err
		}
	}
	return st, e, nil
}

// runScoped applies effects and discards their exported bindings.
func (x *executor) runScoped(st *GameState, e env, effects ir.EffectList) (*GameState, error) {
	st, _, err := x.runList(st, e, effects)
	return st, err
}

// apply dispatches one effect. The returned env carries the bindings the
// effect exports to its later siblings.
func (x *executor) apply(st *GameState, e env, eff ir.Effect) (*GameState, env, error) {
	var (
		out  *GameState
		next = e
		err  error
	)
	switch n := eff.(type) {
	case ir.SetVar:
		out, err = x.applySetVar(st, e, n)
	case ir.AddVar:
		out, err = x.applyAddVar(st, e, n)
	case ir.TransferVar:
		out, next, err = x.applyTransferVar(st, e, n)
	case ir.MoveToken:
		out, err = x.applyMoveToken(st, e, n)
	case ir.MoveAll:
		out, err = x.applyMoveAll(st, e, n)
	case ir.MoveTokenAdjacent:
		out, err = x.applyMoveTokenAdjacent(st, e, n)
	case ir.Draw:
		out, err = x.applyDraw(st, e, n)
	case ir.Reveal:
		out, err = x.applyReveal(st, e, n)
	case ir.Shuffle:
		out, err = x.applyShuffle(st, e, n)
	case ir.CreateToken:
		out, next, err = x.applyCreateToken(st, e, n)
	case ir.DestroyToken:
		out, err = x.applyDestroyToken(st, e, n)
	case ir.SetTokenProp:
		out, err = x.applySetTokenProp(st, e, n)
	case ir.SetMarker:
		out, err = x.applySetMarker(st, e, n)
	case ir.ShiftMarker:
		out, err = x.applyShiftMarker(st, e, n)
	case ir.SetGlobalMarker:
		out, err = x.applySetGlobalMarker(st, e, n)
	case ir.FlipGlobalMarker:
		out, err = x.applyFlipGlobalMarker(st, e, n)
	case ir.ShiftGlobalMarker:
		out, err = x.applyShiftGlobalMarker(st, e, n)
	case ir.If:
		out, next, err = x.applyIf(st, e, n)
	case ir.ForEach:
		out, err = x.applyForEach(st, e, n)
	case ir.Reduce:
		out, err = x.applyReduce(st, e, n)
	case ir.Let:
		out, err = x.applyLet(st, e, n)
	case ir.BindValue:
		out, next, err = x.applyBindValue(st, e, n)
	case ir.EvaluateSubset:
		out, err = x.applyEvaluateSubset(st, e, n)
	case ir.RemoveByPriority:
		out, err = x.applyRemoveByPriority(st, e, n)
	case ir.RollRandom:
		out, err = x.applyRollRandom(st, e, n)
	case ir.ChooseOne:
		out, next, err = x.applyChooseOne(st, e, n)
	case ir.ChooseN:
		out, next, err = x.applyChooseN(st, e, n)
	case ir.GrantFreeOperation:
		out, err = x.applyGrantFreeOperation(st, e, n)
	case ir.SetEligibilityOverride:
		out, err = x.applySetEligibilityOverride(st, e, n)
	case ir.GotoPhaseExact:
		out, err = x.applyGotoPhaseExact(st, e, n)
	case ir.AdvancePhase:
		out, err = x.applyAdvancePhase(st, e)
	case ir.PushInterruptPhase:
		out, err = x.applyPushInterruptPhase(st, e, n)
	case ir.PopInterruptPhase:
		out, err = x.applyPopInterruptPhase(st, e)
	default:
		return nil, e, &EffectRuntimeError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("unhandled effect node %T", eff),
		}
	}
	if err != nil {
		return nil, e, withEffect(err, eff.Kind())
	}
	return out, next, nil
}
