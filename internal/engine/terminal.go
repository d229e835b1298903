package engine

import (
	"github.com/roach88/ludeme/internal/ir"
)

// Outcome is the result of a finished game.
type Outcome struct {
	Kind string `json:"kind"`

	// Winner is set for wins, and for score results with a single best score.
	Winner *int `json:"winner,omitempty"`

	// Scores holds one score per player for score results.
	Scores []int64 `json:"scores,omitempty"`

	// Terminal is the index of the terminal condition that fired.
	Terminal int `json:"terminal"`
}

// TerminalResult evaluates the terminal conditions in declaration order and
// returns the outcome of the first that holds, or nil while the game goes on.
func TerminalResult(def *ir.GameDef, state *GameState) (*Outcome, error) {
	return newExecutor(def, modeCommit, nil, nil, nil).terminal(state)
}

func (x *executor) terminal(st *GameState) (*Outcome, error) {
	e := env{actor: st.ActivePlayer, executor: st.ActivePlayer, b: Bindings{}}
	for i, t := range x.def.Terminal {
		ok, err := x.evalCond(st, e, t.When)
		if err != nil {
			return nil, withEffect(err, "terminal")
		}
		if !ok {
			continue
		}
		out := &Outcome{Kind: t.Result.Kind, Terminal: i}
		switch t.Result.Kind {
		case ir.ResultWin:
			if t.Result.Player == nil {
				return nil, runtimeErr(ErrCodeInternal, "player", "win result without a player")
			}
			p, err := x.resolvePlayer(st, e, *t.Result.Player)
			if err != nil {
				return nil, withEffect(err, "terminal")
			}
			out.Winner = &p
		case ir.ResultScore:
			if t.Result.Score == nil {
				return nil, runtimeErr(ErrCodeInternal, "score", "score result without a score expression")
			}
			if err := x.scoreOutcome(st, *t.Result.Score, out); err != nil {
				return nil, withEffect(err, "terminal")
			}
		case ir.ResultDraw, ir.ResultLossAll:
		default:
			return nil, runtimeErr(ErrCodeInternal, "kind", "unknown terminal result %q", t.Result.Kind)
		}
		return out, nil
	}
	return nil, nil
}

// scoreOutcome evaluates score for every player, with that player as actor.
// A unique best score wins; a shared best leaves Winner unset.
func (x *executor) scoreOutcome(st *GameState, score ir.Expr, out *Outcome) error {
	out.Scores = make([]int64, st.PlayerCount)
	best, winners := int64(0), 0
	for p := range st.PlayerCount {
		n, err := x.evalInt(st, env{actor: p, executor: p, b: Bindings{}}, score, "score")
		if err != nil {
			return err
		}
		out.Scores[p] = n
		switch {
		case p == 0 || n > best:
			best, winners = n, 1
			w := p
			out.Winner = &w
		case n == best:
			winners++
		}
	}
	if winners != 1 {
		out.Winner = nil
	}
	return nil
}
