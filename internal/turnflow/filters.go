package turnflow

import (
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// Candidate is a move offered by base legality, reduced to what the
// filters look at. Index points back into the caller's move list.
type Candidate struct {
	Index         int
	ActionID      string
	Class         string
	Seat          string
	Params        ir.Object
	FreeOperation bool
}

// Env is the card context the filters read.
type Env struct {
	MonsoonActive bool
	CardID        string
	CardTags      []string
}

// ResolveClass returns a move's action class: the explicit class when set,
// else the configured class, else the action's declared class.
func ResolveClass(cfg *ir.TurnFlowConfig, actionID, explicit, declared string) string {
	if explicit != "" {
		return explicit
	}
	if c, ok := cfg.ActionClasses[actionID]; ok {
		return c
	}
	return declared
}

// IsPass reports whether actionID counts as passing.
func IsPass(cfg *ir.TurnFlowConfig, actionID string) bool {
	return slices.Contains(cfg.PassActions, actionID)
}

// PivotalSeat returns the seat owning a pivotal action.
func PivotalSeat(cfg *ir.TurnFlowConfig, actionID string) (string, bool) {
	if cfg.Pivotal == nil {
		return "", false
	}
	seat, ok := cfg.Pivotal.Actions[actionID]
	return seat, ok
}

// Apply runs every filter in order: option matrix, monsoon, pivotal,
// cancellation.
func Apply(cfg *ir.TurnFlowConfig, r Runtime, env Env, cands []Candidate) []Candidate {
	cands = FilterOptionMatrix(cfg, r, cands)
	cands = FilterMonsoon(cfg, env, cands)
	cands = FilterPivotal(cfg, r, cands)
	return FilterCancellation(cfg.Cancellation, env, cands)
}

// FilterOptionMatrix restricts the second actor to the classes the option
// matrix allows after the first action. Passes and free operations are
// never restricted.
func FilterOptionMatrix(cfg *ir.TurnFlowConfig, r Runtime, cands []Candidate) []Candidate {
	allowed := AllowedSecondClasses(cfg, r)
	if allowed == nil {
		return cands
	}
	return keep(cands, func(c Candidate) bool {
		if c.FreeOperation || IsPass(cfg, c.ActionID) {
			return true
		}
		if _, pivotal := PivotalSeat(cfg, c.ActionID); pivotal {
			return true
		}
		return slices.Contains(allowed, c.Class)
	})
}

// FilterMonsoon applies monsoon restrictions while the lookahead card is
// flagged. A move carrying the override parameter set to true bypasses them.
func FilterMonsoon(cfg *ir.TurnFlowConfig, env Env, cands []Candidate) []Candidate {
	m := cfg.Monsoon
	if m == nil || !env.MonsoonActive {
		return cands
	}
	return keep(cands, func(c Candidate) bool {
		if m.OverrideParam != "" {
			if b, ok := ir.AsBool(c.Params[m.OverrideParam]); ok && b {
				return true
			}
		}
		if _, pivotal := PivotalSeat(cfg, c.ActionID); pivotal && m.BlockPivotal {
			return false
		}
		for _, r := range m.Restrictions {
			if r.ActionID != c.ActionID {
				continue
			}
			if r.MaxParam == "" {
				return false
			}
			if list, ok := ir.AsList(c.Params[r.MaxParam]); ok && len(list) > r.Max {
				return false
			}
		}
		return true
	})
}

// FilterPivotal drops pivotal actions outside their window and, when
// several seats contend, keeps only the contender earliest in precedence.
// By default the window closes once the first non-pass action is taken.
func FilterPivotal(cfg *ir.TurnFlowConfig, r Runtime, cands []Candidate) []Candidate {
	p := cfg.Pivotal
	if p == nil {
		return cands
	}
	windowOpen := p.AllowAfterFirstAction || r.Card.NonPassCount == 0
	out := keep(cands, func(c Candidate) bool {
		seat, pivotal := PivotalSeat(cfg, c.ActionID)
		if !pivotal {
			return true
		}
		return windowOpen && r.Eligibility[seat] && !r.HasActed(seat)
	})

	winner := ""
	best := len(p.Precedence) + 1
	for _, c := range out {
		seat, pivotal := PivotalSeat(cfg, c.ActionID)
		if !pivotal {
			continue
		}
		rank := slices.Index(p.Precedence, seat)
		if rank < 0 {
			rank = len(p.Precedence)
		}
		if rank < best {
			best, winner = rank, seat
		}
	}
	if winner == "" {
		return out
	}
	return keep(out, func(c Candidate) bool {
		seat, pivotal := PivotalSeat(cfg, c.ActionID)
		return !pivotal || seat == winner
	})
}

// FilterCancellation removes the moves a rule cancels whenever some move
// matches that rule's winner selector.
func FilterCancellation(rules []ir.CancellationRule, env Env, cands []Candidate) []Candidate {
	for _, rule := range rules {
		present := slices.ContainsFunc(cands, func(c Candidate) bool { return Matches(rule.Winner, env, c) })
		if !present {
			continue
		}
		cands = keep(cands, func(c Candidate) bool {
			return !Matches(rule.Canceled, env, c) || Matches(rule.Winner, env, c)
		})
	}
	return cands
}

// Matches reports whether a candidate satisfies a selector. Event-card
// fields only match moves of class "event".
func Matches(sel ir.MoveSelector, env Env, c Candidate) bool {
	if sel.ActionID != "" && sel.ActionID != c.ActionID {
		return false
	}
	if sel.ActionClass != "" && sel.ActionClass != c.Class {
		return false
	}
	if sel.EventCardID != "" && (c.Class != "event" || sel.EventCardID != env.CardID) {
		return false
	}
	if len(sel.EventTags) > 0 {
		if c.Class != "event" {
			return false
		}
		for _, tag := range sel.EventTags {
			if !slices.Contains(env.CardTags, tag) {
				return false
			}
		}
	}
	for name, want := range sel.Params {
		got, ok := c.Params[name]
		if !ok || !ir.Equal(got, want) {
			return false
		}
	}
	return true
}

func keep(cands []Candidate, pred func(Candidate) bool) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}
