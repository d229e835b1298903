package turnflow

import (
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// Runtime is the mutable part of a card-driven turn order, carried inside
// the game state. Methods never modify the receiver; they return an updated
// copy so prior snapshots stay valid.
type Runtime struct {
	SeatOrder             []string        `json:"seat_order"`
	Eligibility           map[string]bool `json:"eligibility"`
	Card                  CardProgress    `json:"card"`
	PendingOverrides      []Override      `json:"pending_overrides,omitempty"`
	ActiveOverrides       []Override      `json:"active_overrides,omitempty"`
	PendingGrants         []Grant         `json:"pending_grants,omitempty"`
	ConsecutiveCoupRounds int             `json:"consecutive_coup_rounds"`
	Compound              *Compound       `json:"compound,omitempty"`
}

// CardProgress tracks who has acted on the current card.
type CardProgress struct {
	FirstEligible    string   `json:"first_eligible,omitempty"`
	SecondEligible   string   `json:"second_eligible,omitempty"`
	ActedSeats       []string `json:"acted_seats,omitempty"`
	PassedSeats      []string `json:"passed_seats,omitempty"`
	NonPassCount     int      `json:"non_pass_count"`
	FirstActionClass string   `json:"first_action_class,omitempty"`
}

// Override forces a seat's eligibility when the current card ends.
// nextTurn overrides apply to the following card only; round overrides
// stay in force until the next coup round.
type Override struct {
	Seat     string `json:"seat"`
	Eligible bool   `json:"eligible"`
	WindowID string `json:"window_id"`
	Duration string `json:"duration"`
}

// Compound records the last operation-plus-special-activity pair executed
// on the current card.
type Compound struct {
	OperationAction       string `json:"operation_action"`
	SpecialActivityAction string `json:"special_activity_action"`
	Timing                string `json:"timing"`
}

// New builds the runtime for a fresh game: every seat eligible, and the
// first two seats in order primed for the first card.
func New(cfg *ir.TurnFlowConfig) Runtime {
	r := Runtime{
		SeatOrder:   slices.Clone(cfg.Seats),
		Eligibility: make(map[string]bool, len(cfg.Seats)),
	}
	for _, s := range cfg.Seats {
		r.Eligibility[s] = true
	}
	return r.BeginCard(nil)
}

// Clone returns a deep copy.
func (r Runtime) Clone() Runtime {
	out := r
	out.SeatOrder = slices.Clone(r.SeatOrder)
	out.Eligibility = make(map[string]bool, len(r.Eligibility))
	for k, v := range r.Eligibility {
		out.Eligibility[k] = v
	}
	out.Card = r.Card.clone()
	out.PendingOverrides = slices.Clone(r.PendingOverrides)
	out.ActiveOverrides = slices.Clone(r.ActiveOverrides)
	out.PendingGrants = make([]Grant, len(r.PendingGrants))
	for i, g := range r.PendingGrants {
		out.PendingGrants[i] = g.clone()
	}
	if len(out.PendingGrants) == 0 {
		out.PendingGrants = nil
	}
	if r.Compound != nil {
		c := *r.Compound
		out.Compound = &c
	}
	return out
}

func (c CardProgress) clone() CardProgress {
	c.ActedSeats = slices.Clone(c.ActedSeats)
	c.PassedSeats = slices.Clone(c.PassedSeats)
	return c
}

// BeginCard resets card progress. order overrides the seat order for this
// card (cards may print their own faction order); nil keeps SeatOrder.
func (r Runtime) BeginCard(order []string) Runtime {
	out := r.Clone()
	out.Card = CardProgress{}
	out.Compound = nil
	candidates := out.eligibleInOrder(order)
	if len(candidates) > 0 {
		out.Card.FirstEligible = candidates[0]
	}
	if len(candidates) > 1 {
		out.Card.SecondEligible = candidates[1]
	}
	return out
}

func (r Runtime) eligibleInOrder(order []string) []string {
	if len(order) == 0 {
		order = r.SeatOrder
	}
	var out []string
	for _, s := range order {
		if r.Eligibility[s] {
			out = append(out, s)
		}
	}
	return out
}

// NextSeat returns the seat expected to act on the current card, or "" when
// nobody is left.
func (r Runtime) NextSeat() string {
	if r.Card.NonPassCount >= 2 {
		return ""
	}
	if r.Card.NonPassCount == 0 {
		return r.Card.FirstEligible
	}
	return r.Card.SecondEligible
}

// HasActed reports whether seat took a non-pass action on this card.
func (r Runtime) HasActed(seat string) bool {
	return slices.Contains(r.Card.ActedSeats, seat)
}

// HasPassed reports whether seat passed on this card.
func (r Runtime) HasPassed(seat string) bool {
	return slices.Contains(r.Card.PassedSeats, seat)
}

// RecordNonPass registers a non-pass action by seat. The first one fixes
// the class that constrains the second actor.
func (r Runtime) RecordNonPass(seat, class string) Runtime {
	out := r.Clone()
	out.Card.NonPassCount++
	out.Card.ActedSeats = append(out.Card.ActedSeats, seat)
	if out.Card.NonPassCount == 1 {
		out.Card.FirstEligible = seat
		out.Card.FirstActionClass = class
		if out.Card.SecondEligible == seat || out.Card.SecondEligible == "" {
			out.Card.SecondEligible = out.nextCandidate(seat)
		}
	}
	return out
}

// RecordPass registers a pass by seat and moves the turn on to the next
// eligible seat that has neither acted nor passed.
func (r Runtime) RecordPass(seat string) Runtime {
	out := r.Clone()
	out.Card.PassedSeats = append(out.Card.PassedSeats, seat)
	switch {
	case out.Card.NonPassCount == 0 && out.Card.FirstEligible == seat:
		out.Card.FirstEligible = out.Card.SecondEligible
		if out.Card.FirstEligible == "" || out.HasPassed(out.Card.FirstEligible) {
			out.Card.FirstEligible = out.nextCandidate(seat)
		}
		out.Card.SecondEligible = out.nextCandidate(out.Card.FirstEligible)
	case out.Card.NonPassCount == 1 && out.Card.SecondEligible == seat:
		out.Card.SecondEligible = out.nextCandidate(seat)
	}
	return out
}

// nextCandidate returns the first eligible seat after `after` in seat order
// that has neither acted nor passed on this card.
func (r Runtime) nextCandidate(after string) string {
	start := slices.Index(r.SeatOrder, after)
	for i := 1; i <= len(r.SeatOrder); i++ {
		s := r.SeatOrder[(start+i+len(r.SeatOrder))%len(r.SeatOrder)]
		if s == after || !r.Eligibility[s] || r.HasActed(s) || r.HasPassed(s) {
			continue
		}
		return s
	}
	return ""
}

// CardComplete reports whether the current card is resolved: two non-pass
// actions were taken, or no eligible seat is left to act.
func (r Runtime) CardComplete() bool {
	return r.NextSeat() == ""
}

// AllowedSecondClasses returns the action classes admissible for the second
// actor, or nil when unconstrained. The option matrix has one row per
// first-action class.
func AllowedSecondClasses(cfg *ir.TurnFlowConfig, r Runtime) []string {
	if r.Card.NonPassCount != 1 {
		return nil
	}
	for _, row := range cfg.OptionMatrix {
		if row.First == r.Card.FirstActionClass {
			return row.Second
		}
	}
	return nil
}

// AddOverride queues an eligibility override for the end of the current card.
func (r Runtime) AddOverride(o Override) Runtime {
	out := r.Clone()
	out.PendingOverrides = append(out.PendingOverrides, o)
	return out
}

// EndCard recomputes eligibility once the current card is resolved. Seats
// that acted sit out the next card; seats that sat this card out come back;
// everyone else keeps their eligibility. Overrides are applied last.
func (r Runtime) EndCard() Runtime {
	out := r.Clone()
	for _, s := range out.SeatOrder {
		switch {
		case out.HasActed(s):
			out.Eligibility[s] = false
		case !r.Eligibility[s]:
			out.Eligibility[s] = true
		}
	}

	var keep []Override
	for _, o := range out.ActiveOverrides {
		out.Eligibility[o.Seat] = o.Eligible
		keep = append(keep, o)
	}
	for _, o := range out.PendingOverrides {
		out.Eligibility[o.Seat] = o.Eligible
		if o.Duration == ir.DurationRound {
			keep = append(keep, o)
		}
	}
	out.ActiveOverrides = keep
	out.PendingOverrides = nil
	return out
}

// EndCoupRound makes every seat eligible and drops round-scoped overrides.
func (r Runtime) EndCoupRound() Runtime {
	out := r.Clone()
	for _, s := range out.SeatOrder {
		out.Eligibility[s] = true
	}
	out.ActiveOverrides = nil
	return out
}

// WithCompound records the compound action executed on this card.
func (r Runtime) WithCompound(c Compound) Runtime {
	out := r.Clone()
	out.Compound = &c
	return out
}

// WithCoupRound updates the consecutive coup-round counter. A coup card
// increments it; any other card resets it.
func (r Runtime) WithCoupRound(coup bool) Runtime {
	out := r.Clone()
	if coup {
		out.ConsecutiveCoupRounds++
	} else {
		out.ConsecutiveCoupRounds = 0
	}
	return out
}

// SeatIndex returns the player index of a seat, or -1.
func (r Runtime) SeatIndex(seat string) int {
	return slices.Index(r.SeatOrder, seat)
}
