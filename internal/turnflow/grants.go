package turnflow

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/ludeme/internal/ir"
)

// SelfSeat resolves to the seat of the active player.
const SelfSeat = "self"

// Grant is a pending free-operation entitlement.
type Grant struct {
	ID             string    `json:"grant_id"`
	Seat           string    `json:"seat"`
	ExecuteAsSeat  string    `json:"execute_as_seat,omitempty"`
	OperationClass string    `json:"operation_class"`
	ActionIDs      []string  `json:"action_ids,omitempty"`
	ZoneFilter     []string  `json:"zone_filter,omitempty"`
	RemainingUses  int       `json:"remaining_uses"`
	Sequence       *Sequence `json:"sequence,omitempty"`
}

// Sequence orders grants issued as one batch.
type Sequence struct {
	Chain string `json:"chain"`
	Step  int    `json:"step"`
}

func (g Grant) clone() Grant {
	g.ActionIDs = slices.Clone(g.ActionIDs)
	g.ZoneFilter = slices.Clone(g.ZoneFilter)
	if g.Sequence != nil {
		s := *g.Sequence
		g.Sequence = &s
	}
	return g
}

// GrantRequest is a grantFreeOperation effect with its expressions evaluated.
type GrantRequest struct {
	ID             string
	Seat           string
	ExecuteAsSeat  string
	OperationClass string
	ActionIDs      []string
	ZoneFilter     []string
	Uses           int
	HasSequence    bool
	Chain          string
	Step           int
}

// AddGrant validates req and appends a grant with a fresh id. activeSeat is
// what "self" resolves to. When the base id is taken, "#2", "#3", ... are
// appended until it is unique.
func (r Runtime) AddGrant(req GrantRequest, activeSeat string) (Runtime, Grant, error) {
	if !ir.IsOperationClass(req.OperationClass) {
		return r, Grant{}, &ValidationError{
			Field:      "operation_class",
			Message:    fmt.Sprintf("unknown operation class %q", req.OperationClass),
			Candidates: ir.OperationClasses,
		}
	}
	seat, err := r.resolveSeat("seat", req.Seat, activeSeat)
	if err != nil {
		return r, Grant{}, err
	}
	executeAs := ""
	if req.ExecuteAsSeat != "" {
		if executeAs, err = r.resolveSeat("execute_as_seat", req.ExecuteAsSeat, activeSeat); err != nil {
			return r, Grant{}, err
		}
	}
	if req.Uses < 1 {
		return r, Grant{}, &ValidationError{
			Field:   "uses",
			Message: fmt.Sprintf("uses must be a positive integer, got %d", req.Uses),
		}
	}
	if req.HasSequence && req.Step < 0 {
		return r, Grant{}, &ValidationError{
			Field:   "sequence.step",
			Message: fmt.Sprintf("sequence step must be a non-negative integer, got %d", req.Step),
		}
	}

	base := req.ID
	if base == "" {
		base = "freeOp-" + seat + "-" + req.OperationClass
	}
	g := Grant{
		ID:             r.uniqueGrantID(base),
		Seat:           seat,
		ExecuteAsSeat:  executeAs,
		OperationClass: req.OperationClass,
		ActionIDs:      slices.Clone(req.ActionIDs),
		ZoneFilter:     slices.Clone(req.ZoneFilter),
		RemainingUses:  req.Uses,
	}
	if req.HasSequence {
		g.Sequence = &Sequence{Chain: req.Chain, Step: req.Step}
	}

	out := r.Clone()
	out.PendingGrants = append(out.PendingGrants, g)
	return out, g.clone(), nil
}

func (r Runtime) resolveSeat(field, token, activeSeat string) (string, error) {
	if token == SelfSeat {
		token = activeSeat
	}
	if !slices.Contains(r.SeatOrder, token) {
		return "", &ValidationError{
			Field:      field,
			Message:    fmt.Sprintf("unknown seat %q", token),
			Candidates: append([]string{SelfSeat}, r.SeatOrder...),
		}
	}
	return token, nil
}

func (r Runtime) uniqueGrantID(base string) string {
	taken := func(id string) bool {
		return slices.ContainsFunc(r.PendingGrants, func(g Grant) bool { return g.ID == id })
	}
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		id := base + "#" + strconv.Itoa(n)
		if !taken(id) {
			return id
		}
	}
}

// Grant returns the pending grant with the given id.
func (r Runtime) Grant(id string) (Grant, bool) {
	for _, g := range r.PendingGrants {
		if g.ID == id {
			return g.clone(), true
		}
	}
	return Grant{}, false
}

// ConsumeGrant spends one use of a grant, dropping it when exhausted.
func (r Runtime) ConsumeGrant(id string) (Runtime, error) {
	i := slices.IndexFunc(r.PendingGrants, func(g Grant) bool { return g.ID == id })
	if i < 0 {
		return r, &ValidationError{Field: "grant_id", Message: fmt.Sprintf("no pending grant %q", id)}
	}
	out := r.Clone()
	out.PendingGrants[i].RemainingUses--
	if out.PendingGrants[i].RemainingUses <= 0 {
		out.PendingGrants = slices.Delete(out.PendingGrants, i, i+1)
	}
	if len(out.PendingGrants) == 0 {
		out.PendingGrants = nil
	}
	return out, nil
}

// DropGrant removes a grant regardless of its remaining uses.
func (r Runtime) DropGrant(id string) Runtime {
	out := r.Clone()
	out.PendingGrants = slices.DeleteFunc(out.PendingGrants, func(g Grant) bool { return g.ID == id })
	if len(out.PendingGrants) == 0 {
		out.PendingGrants = nil
	}
	return out
}

// UsableGrants returns the grants that may be exercised now, in queue
// order. A sequenced grant waits until every grant of its chain with a
// lower step is gone.
func (r Runtime) UsableGrants() []Grant {
	var out []Grant
	for _, g := range r.PendingGrants {
		if g.Sequence != nil && r.blockedBySequence(g) {
			continue
		}
		out = append(out, g.clone())
	}
	return out
}

func (r Runtime) blockedBySequence(g Grant) bool {
	for _, other := range r.PendingGrants {
		if other.ID == g.ID || other.Sequence == nil {
			continue
		}
		if other.Sequence.Chain == g.Sequence.Chain && other.Sequence.Step < g.Sequence.Step {
			return true
		}
	}
	return false
}

// GrantAllows reports whether a move may be executed under a grant. zones
// are the concrete zone ids the move's parameters name.
func GrantAllows(g Grant, actionID, class string, zones []string) bool {
	if class != g.OperationClass {
		return false
	}
	if len(g.ActionIDs) > 0 && !slices.Contains(g.ActionIDs, actionID) {
		return false
	}
	if len(g.ZoneFilter) > 0 {
		for _, z := range zones {
			if !slices.Contains(g.ZoneFilter, z) {
				return false
			}
		}
	}
	return true
}
