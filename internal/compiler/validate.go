package compiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/ludeme/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrMissingID             = "E200" // game id is required
	ErrInvalidPlayerRange    = "E201" // players.min/max out of range
	ErrDuplicateID           = "E202" // duplicate declaration id
	ErrUnknownZone           = "E203" // zone reference does not resolve
	ErrUnknownVariable       = "E204" // variable reference does not resolve
	ErrUnknownTokenType      = "E205" // token type reference does not resolve
	ErrUnknownLattice        = "E206" // marker lattice reference does not resolve
	ErrUnknownPhase          = "E207" // phase reference does not resolve
	ErrUnknownAction         = "E208" // action reference does not resolve
	ErrInvalidVariable       = "E209" // bad variable type, bounds or initial value
	ErrInvalidLattice        = "E210" // empty lattice or default outside states
	ErrInvalidTurnOrder      = "E211" // turn order config inconsistent
	ErrUnknownOperator       = "E212" // operator or builtin name not supported
	ErrUnknownWindow         = "E213" // eligibility override window not declared
	ErrUnknownOperationClass = "E214" // operation class not supported
	ErrUnknownEvent          = "E215" // trigger event kind not supported
	ErrInvalidTerminal       = "E216" // terminal result incomplete
	ErrUnknownSeat           = "E217" // seat reference does not resolve
	ErrInvalidLimit          = "E218" // usage limit scope or max invalid
	ErrInvalidZone           = "E219" // zone owner, ordering or visibility invalid
	ErrInvalidPhases         = "E220" // phase list empty or overlapping
)

// ValidationError represents a definition validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is the error returned when a definition fails validation.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

var (
	arithOps     = []string{"+", "-", "*", "/", "%", "min", "max"}
	compareOps   = []string{"==", "!=", "<", "<=", ">", ">="}
	aggregateOps = []string{"sum", "min", "max"}
	builtins     = []string{
		ir.BuiltinActivePlayer, ir.BuiltinActor, ir.BuiltinExecutor, ir.BuiltinTurnCount,
		ir.BuiltinPlayerCount, ir.BuiltinCurrentPhase, ir.BuiltinActiveSeat,
	}
	triggerEvents = []string{
		ir.EventPhaseEnter, ir.EventPhaseExit, ir.EventTurnStart,
		ir.EventTurnEnd, ir.EventActionResolved, ir.EventCardPlayed,
	}
)

// Validate checks every reference in a definition against its declarations.
// Returns all errors found (does not fail-fast).
func Validate(def *ir.GameDef) []ValidationError {
	v := &validator{def: def}

	if strings.TrimSpace(def.ID) == "" {
		v.add("id", ErrMissingID, "game id is required and must be non-empty")
	}
	if def.Players.Min < 1 || def.Players.Max < def.Players.Min {
		v.add("players", ErrInvalidPlayerRange, "players must satisfy 1 <= min <= max, got min=%d max=%d",
			def.Players.Min, def.Players.Max)
	}

	v.zones()
	v.tokenTypes()
	v.vars("global_vars", def.GlobalVars)
	v.vars("per_player_vars", def.PerPlayerVars)
	v.lattices("marker_lattices", def.MarkerLattices)
	v.lattices("global_marker_lattices", def.GlobalMarkerLattices)
	v.setup()
	v.phases()
	v.turnOrder()
	v.actions()
	v.profiles()
	v.triggers()
	v.terminal()

	w := &visitor{
		effect: v.effect,
		value:  v.value,
		cond:   v.cond,
		query:  v.query,
		zone:   v.zoneRef,
		varRef: v.varRef,
	}
	w.walkGame(def)
	return v.errs
}

type validator struct {
	def  *ir.GameDef
	errs []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

// unique reports duplicate ids in declaration order.
func (v *validator) unique(field string, ids []string) {
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			v.add(fmt.Sprintf("%s[%d].id", field, i), ErrDuplicateID, "duplicate id: %q", id)
		}
		seen[id] = true
	}
}

func (v *validator) zones() {
	ids := make([]string, len(v.def.Zones))
	for i, z := range v.def.Zones {
		ids[i] = z.ID
		field := fmt.Sprintf("zones[%d]", i)
		if z.ID == "" || strings.ContainsAny(z.ID, ":{}$") {
			v.add(field+".id", ErrInvalidZone, "zone id %q must be non-empty and free of ':', '{', '}' and '$'", z.ID)
		}
		if z.Owner != ir.OwnerNone && z.Owner != ir.OwnerPlayer {
			v.add(field+".owner", ErrInvalidZone, "owner must be %q or %q, got %q", ir.OwnerNone, ir.OwnerPlayer, z.Owner)
		}
		if !slices.Contains([]string{"", "public", "owner", "hidden"}, z.Visibility) {
			v.add(field+".visibility", ErrInvalidZone, "unknown visibility %q", z.Visibility)
		}
		if !slices.Contains([]string{"", "stack", "queue", "set"}, z.Ordering) {
			v.add(field+".ordering", ErrInvalidZone, "unknown ordering %q", z.Ordering)
		}
		for j, adj := range z.AdjacentTo {
			if _, ok := v.def.Zone(adj); !ok {
				v.add(fmt.Sprintf("%s.adjacent_to[%d]", field, j), ErrUnknownZone, "unknown zone %q", adj)
			}
		}
	}
	v.unique("zones", ids)
}

func (v *validator) tokenTypes() {
	ids := make([]string, len(v.def.TokenTypes))
	for i, tt := range v.def.TokenTypes {
		ids[i] = tt.ID
		for j, p := range tt.Props {
			if !slices.Contains([]string{"int", "bool", "string", "list"}, p.Type) {
				v.add(fmt.Sprintf("token_types[%d].props[%d].type", i, j), ErrInvalidVariable,
					"property %q has unsupported type %q", p.Name, p.Type)
			}
		}
	}
	v.unique("token_types", ids)
}

func (v *validator) vars(field string, vars []ir.VarDef) {
	names := make([]string, len(vars))
	for i, d := range vars {
		names[i] = d.Name
		path := fmt.Sprintf("%s[%d]", field, i)
		switch d.Type {
		case ir.VarTypeInt:
			if d.Min > d.Max {
				v.add(path, ErrInvalidVariable, "variable %q has min %d > max %d", d.Name, d.Min, d.Max)
			}
			n, ok := ir.AsInt(d.Init.Value)
			if !ok {
				v.add(path+".init", ErrInvalidVariable, "int variable %q needs an int initial value", d.Name)
			} else if n < d.Min || n > d.Max {
				v.add(path+".init", ErrInvalidVariable, "initial value %d of %q is outside [%d, %d]", n, d.Name, d.Min, d.Max)
			}
		case ir.VarTypeBoolean:
			if _, ok := ir.AsBool(d.Init.Value); !ok {
				v.add(path+".init", ErrInvalidVariable, "boolean variable %q needs a boolean initial value", d.Name)
			}
		default:
			v.add(path+".type", ErrInvalidVariable, "variable %q has unsupported type %q", d.Name, d.Type)
		}
	}
	v.unique(field, names)
}

func (v *validator) lattices(field string, lattices []ir.MarkerLattice) {
	ids := make([]string, len(lattices))
	for i, l := range lattices {
		ids[i] = l.ID
		path := fmt.Sprintf("%s[%d]", field, i)
		if len(l.States) == 0 {
			v.add(path+".states", ErrInvalidLattice, "lattice %q has no states", l.ID)
			continue
		}
		if l.StateIndex(l.Default) < 0 {
			v.add(path+".default", ErrInvalidLattice, "default %q is not a state of lattice %q", l.Default, l.ID)
		}
		seen := make(map[string]bool, len(l.States))
		for _, s := range l.States {
			if seen[s] {
				v.add(path+".states", ErrInvalidLattice, "lattice %q repeats state %q", l.ID, s)
			}
			seen[s] = true
		}
	}
	v.unique(field, ids)
}

func (v *validator) setup() {
	for i, p := range v.def.Setup {
		path := fmt.Sprintf("setup[%d]", i)
		if z, owner, err := v.def.ZoneForConcrete(p.Zone); err != nil {
			v.add(path+".zone", ErrUnknownZone, "%v", err)
		} else if z.Owner == ir.OwnerPlayer && owner >= v.def.Players.Min {
			v.add(path+".zone", ErrUnknownZone, "zone %q names player %d but games may start with %d players",
				p.Zone, owner, v.def.Players.Min)
		}
		if _, ok := v.def.TokenType(p.TokenType); !ok {
			v.add(path+".token_type", ErrUnknownTokenType, "unknown token type %q", p.TokenType)
		}
		if p.Count < 0 {
			v.add(path+".count", ErrInvalidVariable, "count must be >= 0, got %d", p.Count)
		}
	}
}

func (v *validator) phases() {
	if len(v.def.Phases) == 0 {
		v.add("phases", ErrInvalidPhases, "at least one phase is required")
	}
	v.unique("phases", v.def.Phases)
	v.unique("interrupt_phases", v.def.InterruptPhases)
	for i, p := range v.def.InterruptPhases {
		if v.def.PhaseIndex(p) >= 0 {
			v.add(fmt.Sprintf("interrupt_phases[%d]", i), ErrInvalidPhases,
				"%q is declared both as a phase and as an interrupt phase", p)
		}
	}
}

func (v *validator) phaseRef(field, phase string) {
	if !v.def.HasPhase(phase) {
		v.add(field, ErrUnknownPhase, "unknown phase %q (declared: %s)", phase,
			strings.Join(append(slices.Clone(v.def.Phases), v.def.InterruptPhases...), ", "))
	}
}

func (v *validator) actionRef(field, id string) {
	if _, ok := v.def.Action(id); !ok {
		v.add(field, ErrUnknownAction, "unknown action %q", id)
	}
}

func (v *validator) turnFlow() *ir.TurnFlowConfig {
	if v.def.TurnOrder.Type != ir.TurnOrderCardDriven {
		return nil
	}
	return v.def.TurnOrder.TurnFlow
}

func (v *validator) seatRef(field, seat string) {
	cfg := v.turnFlow()
	if cfg == nil || slices.Contains(cfg.Seats, seat) {
		return
	}
	v.add(field, ErrUnknownSeat, "unknown seat %q (seats: %s)", seat, strings.Join(cfg.Seats, ", "))
}

func (v *validator) turnOrder() {
	to := v.def.TurnOrder
	switch to.Type {
	case ir.TurnOrderRoundRobin, ir.TurnOrderSimultaneous:
	case ir.TurnOrderFixedOrder:
		if len(to.Order) == 0 {
			v.add("turn_order.order", ErrInvalidTurnOrder, "fixedOrder needs a non-empty order")
		}
		for i, p := range to.Order {
			if p < 0 || p >= v.def.Players.Min {
				v.add(fmt.Sprintf("turn_order.order[%d]", i), ErrInvalidTurnOrder,
					"player %d is outside [0, %d)", p, v.def.Players.Min)
			}
		}
	case ir.TurnOrderCardDriven:
		if to.TurnFlow == nil {
			v.add("turn_order.turn_flow", ErrInvalidTurnOrder, "cardDriven needs a turn_flow")
			break
		}
		v.cardFlow(to.TurnFlow)
	default:
		v.add("turn_order.type", ErrInvalidTurnOrder, "unknown turn order type %q", to.Type)
	}
	if to.TurnFlow != nil && to.Type != ir.TurnOrderCardDriven {
		v.add("turn_order.turn_flow", ErrInvalidTurnOrder, "turn_flow requires type %q", ir.TurnOrderCardDriven)
	}
	if to.CoupPlan != nil {
		for i, p := range to.CoupPlan.Phases {
			v.phaseRef(fmt.Sprintf("turn_order.coup_plan.phases[%d]", i), p)
		}
	}
}

func (v *validator) cardFlow(cfg *ir.TurnFlowConfig) {
	const base = "turn_order.turn_flow"
	cards := []struct{ field, zone string }{
		{"deck", cfg.Cards.Deck},
		{"played", cfg.Cards.Played},
		{"lookahead", cfg.Cards.Lookahead},
		{"discard", cfg.Cards.Discard},
	}
	for _, c := range cards {
		if c.zone == "" {
			continue
		}
		if _, _, err := v.def.ZoneForConcrete(c.zone); err != nil {
			v.add(base+".cards."+c.field, ErrUnknownZone, "%v", err)
		}
	}
	if len(cfg.Seats) < v.def.Players.Max {
		v.add(base+".seats", ErrInvalidTurnOrder, "%d seats cannot seat %d players", len(cfg.Seats), v.def.Players.Max)
	}
	v.unique(base+".seats", cfg.Seats)

	for _, seat := range sortedKeys(cfg.SeatClasses) {
		v.seatRef(base+".seat_classes."+seat, seat)
	}
	for _, id := range sortedKeys(cfg.ActionClasses) {
		v.actionRef(base+".action_classes."+id, id)
		if !knownClass(cfg.ActionClasses[id]) {
			v.add(base+".action_classes."+id, ErrUnknownOperationClass, "unknown action class %q", cfg.ActionClasses[id])
		}
	}
	for i, id := range cfg.PassActions {
		v.actionRef(fmt.Sprintf("%s.pass_actions[%d]", base, i), id)
	}
	for i, id := range cfg.FreeOnlyActions {
		v.actionRef(fmt.Sprintf("%s.free_only_actions[%d]", base, i), id)
	}
	for i, row := range cfg.OptionMatrix {
		path := fmt.Sprintf("%s.option_matrix[%d]", base, i)
		for _, class := range append([]string{row.First}, row.Second...) {
			if !knownClass(class) {
				v.add(path, ErrUnknownOperationClass, "unknown action class %q", class)
			}
		}
	}
	for i, r := range cfg.PassRewards {
		if _, ok := v.def.PlayerVar(r.Var); !ok {
			v.add(fmt.Sprintf("%s.pass_rewards[%d].var", base, i), ErrUnknownVariable, "unknown per-player variable %q", r.Var)
		}
	}
	windows := make([]string, len(cfg.OverrideWindows))
	for i, w := range cfg.OverrideWindows {
		windows[i] = w.ID
		if w.Duration != ir.DurationNextTurn && w.Duration != ir.DurationRound {
			v.add(fmt.Sprintf("%s.override_windows[%d].duration", base, i), ErrUnknownWindow,
				"duration must be %q or %q, got %q", ir.DurationNextTurn, ir.DurationRound, w.Duration)
		}
	}
	v.unique(base+".override_windows", windows)
	if cfg.Monsoon != nil {
		for i, r := range cfg.Monsoon.Restrictions {
			v.actionRef(fmt.Sprintf("%s.monsoon.restrictions[%d].action_id", base, i), r.ActionID)
		}
	}
	if cfg.Pivotal != nil {
		for _, id := range sortedKeys(cfg.Pivotal.Actions) {
			v.actionRef(base+".pivotal.actions."+id, id)
			v.seatRef(base+".pivotal.actions."+id, cfg.Pivotal.Actions[id])
		}
		for i, seat := range cfg.Pivotal.Precedence {
			v.seatRef(fmt.Sprintf("%s.pivotal.precedence[%d]", base, i), seat)
		}
	}
	for i, rule := range cfg.Cancellation {
		path := fmt.Sprintf("%s.cancellation[%d]", base, i)
		if rule.Winner.ActionID != "" {
			v.actionRef(path+".winner.action_id", rule.Winner.ActionID)
		}
		if rule.Canceled.ActionID != "" {
			v.actionRef(path+".canceled.action_id", rule.Canceled.ActionID)
		}
	}
}

func (v *validator) actions() {
	ids := make([]string, len(v.def.Actions))
	for i, a := range v.def.Actions {
		ids[i] = a.ID
		path := fmt.Sprintf("actions[%d]", i)
		if len(a.Phases) == 0 {
			v.add(path+".phases", ErrUnknownPhase, "action %q is not offered in any phase", a.ID)
		}
		for j, p := range a.Phases {
			v.phaseRef(fmt.Sprintf("%s.phases[%d]", path, j), p)
		}
		switch a.Actor {
		case "", ir.ActorActive, ir.ActorAny:
		default:
			if n, err := strconv.Atoi(a.Actor); err == nil {
				if n < 0 || n >= v.def.Players.Min {
					v.add(path+".actor", ErrInvalidPlayerRange, "actor %d is outside [0, %d)", n, v.def.Players.Min)
				}
			} else if v.turnFlow() != nil {
				v.seatRef(path+".actor", a.Actor)
			} else {
				v.add(path+".actor", ErrUnknownSeat, "actor %q is not active, any, a player index or a seat", a.Actor)
			}
		}
		params := make([]string, len(a.Params))
		for j, p := range a.Params {
			params[j] = p.Name
			if !strings.HasPrefix(p.Name, "$") {
				v.add(fmt.Sprintf("%s.params[%d].name", path, j), ErrInvalidVariable, "parameter %q must start with '$'", p.Name)
			}
		}
		v.unique(path+".params", params)
		for j, l := range a.Limits {
			if !slices.Contains([]string{ir.LimitScopeTurn, ir.LimitScopePhase, ir.LimitScopeGame}, l.Scope) {
				v.add(fmt.Sprintf("%s.limits[%d].scope", path, j), ErrInvalidLimit, "unknown limit scope %q", l.Scope)
			}
			if l.Max < 1 {
				v.add(fmt.Sprintf("%s.limits[%d].max", path, j), ErrInvalidLimit, "limit max must be >= 1, got %d", l.Max)
			}
		}
		if a.Class != "" && !knownClass(a.Class) {
			v.add(path+".class", ErrUnknownOperationClass, "unknown action class %q", a.Class)
		}
	}
	v.unique("actions", ids)
}

func (v *validator) profiles() {
	ids := make([]string, len(v.def.OperationProfiles))
	for i, op := range v.def.OperationProfiles {
		ids[i] = op.ID
		v.actionRef(fmt.Sprintf("operation_profiles[%d].action_id", i), op.ActionID)
	}
	v.unique("operation_profiles", ids)
}

func (v *validator) triggers() {
	ids := make([]string, len(v.def.Triggers))
	for i, t := range v.def.Triggers {
		ids[i] = t.ID
		path := fmt.Sprintf("triggers[%d].on", i)
		if !slices.Contains(triggerEvents, t.On.Event) {
			v.add(path+".event", ErrUnknownEvent, "unknown event %q (known: %s)", t.On.Event, strings.Join(triggerEvents, ", "))
		}
		if t.On.Phase != "" {
			v.phaseRef(path+".phase", t.On.Phase)
		}
		if t.On.Action != "" {
			v.actionRef(path+".action", t.On.Action)
		}
	}
	v.unique("triggers", ids)
}

func (v *validator) terminal() {
	for i, t := range v.def.Terminal {
		path := fmt.Sprintf("terminal[%d].result", i)
		switch t.Result.Kind {
		case ir.ResultWin:
			if t.Result.Player == nil {
				v.add(path+".player", ErrInvalidTerminal, "a win result needs a player")
			}
		case ir.ResultScore:
			if t.Result.Score == nil {
				v.add(path+".score", ErrInvalidTerminal, "a score result needs a score expression")
			}
		case ir.ResultDraw, ir.ResultLossAll:
		default:
			v.add(path+".kind", ErrInvalidTerminal, "unknown result kind %q", t.Result.Kind)
		}
	}
}

// ---- AST callbacks ----

func (v *validator) varRef(path string, t ir.VarTarget) {
	if t.Player == nil {
		v.globalVar(path, t.Var)
		return
	}
	v.playerVar(path, t.Var)
}

func (v *validator) globalVar(path, name string) {
	if _, ok := v.def.GlobalVar(name); !ok {
		v.add(path, ErrUnknownVariable, "unknown global variable %q", name)
	}
}

func (v *validator) playerVar(path, name string) {
	if _, ok := v.def.PlayerVar(name); !ok {
		v.add(path, ErrUnknownVariable, "unknown per-player variable %q", name)
	}
}

func (v *validator) lattice(path, id string) {
	if _, ok := v.def.Lattice(id); !ok {
		v.add(path, ErrUnknownLattice, "unknown marker lattice %q", id)
	}
}

func (v *validator) globalLattice(path, id string) *ir.MarkerLattice {
	l, ok := v.def.GlobalLattice(id)
	if !ok {
		v.add(path, ErrUnknownLattice, "unknown global marker lattice %q", id)
	}
	return l
}

// zoneRef checks a static zone template. Templates that substitute
// bindings are resolved at runtime only.
func (v *validator) zoneRef(path string, z ir.ZoneSel) {
	s := string(z)
	if s == "" {
		v.add(path, ErrUnknownZone, "zone is required")
		return
	}
	if strings.ContainsAny(s, "{$") {
		return
	}
	base, suffix, hasSuffix := strings.Cut(s, ":")
	zd, ok := v.def.Zone(base)
	if !ok {
		v.add(path, ErrUnknownZone, "unknown zone %q", base)
		return
	}
	owned := zd.Owner == ir.OwnerPlayer
	switch {
	case !hasSuffix:
		if owned {
			v.add(path, ErrUnknownZone, "player-owned zone %q needs an owner suffix", base)
		}
	case suffix == ir.OwnerNone:
		if owned {
			v.add(path, ErrUnknownZone, "player-owned zone %q has no %q instance", base, s)
		}
	case suffix == "active" || suffix == "actor" || suffix == "executor":
		if !owned {
			v.add(path, ErrUnknownZone, "unowned zone %q has no %q instance", base, suffix)
		}
	default:
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			v.add(path, ErrUnknownZone, "malformed zone owner in %q", s)
		} else if !owned {
			v.add(path, ErrUnknownZone, "unowned zone %q has no %q instance", base, s)
		} else if n >= v.def.Players.Max {
			v.add(path, ErrUnknownZone, "zone %q names player %d of at most %d", s, n, v.def.Players.Max)
		}
	}
}

func (v *validator) effect(path string, e ir.Effect) {
	p := path + "." + e.Kind()
	switch n := e.(type) {
	case ir.MoveToken:
		if n.Position != "" && n.Position != ir.PositionTop && n.Position != ir.PositionBottom {
			v.add(p+".position", ErrUnknownOperator, "position must be %q or %q, got %q", ir.PositionTop, ir.PositionBottom, n.Position)
		}
	case ir.CreateToken:
		tt, ok := v.def.TokenType(n.Type)
		if !ok {
			v.add(p+".type", ErrUnknownTokenType, "unknown token type %q", n.Type)
			break
		}
		for _, name := range sortedKeys(n.Props) {
			if _, ok := tt.Prop(name); !ok {
				v.add(p+".props."+name, ErrUnknownTokenType, "token type %q has no property %q", n.Type, name)
			}
		}
	case ir.SetMarker:
		v.lattice(p+".marker", n.Marker)
	case ir.ShiftMarker:
		v.lattice(p+".marker", n.Marker)
	case ir.SetGlobalMarker:
		v.globalLattice(p+".marker", n.Marker)
	case ir.ShiftGlobalMarker:
		v.globalLattice(p+".marker", n.Marker)
	case ir.FlipGlobalMarker:
		if l := v.globalLattice(p+".marker", n.Marker); l != nil {
			for _, s := range []string{n.StateA, n.StateB} {
				if l.StateIndex(s) < 0 {
					v.add(p, ErrInvalidLattice, "%q is not a state of lattice %q", s, n.Marker)
				}
			}
		}
	case ir.GotoPhaseExact:
		if v.def.PhaseIndex(n.Phase) < 0 {
			v.add(p+".phase", ErrUnknownPhase, "unknown phase %q", n.Phase)
		}
	case ir.PushInterruptPhase:
		if !v.def.IsInterruptPhase(n.Phase) {
			v.add(p+".phase", ErrUnknownPhase, "%q is not an interrupt phase", n.Phase)
		}
		if n.ResumePhase != "" {
			v.phaseRef(p+".resume_phase", n.ResumePhase)
		}
	case ir.GrantFreeOperation:
		if v.turnFlow() == nil {
			v.add(p, ErrInvalidTurnOrder, "free-operation grants need a cardDriven turn order")
			break
		}
		if !ir.IsOperationClass(n.OperationClass) {
			v.add(p+".operation_class", ErrUnknownOperationClass, "unknown operation class %q (known: %s)",
				n.OperationClass, strings.Join(ir.OperationClasses, ", "))
		}
		for _, seat := range []string{n.Seat, n.ExecuteAsSeat} {
			if seat != "" && seat != "self" && !strings.ContainsAny(seat, "{$") {
				v.seatRef(p+".seat", seat)
			}
		}
		for i, id := range n.ActionIDs {
			v.actionRef(fmt.Sprintf("%s.action_ids[%d]", p, i), id)
		}
		for i, zone := range n.ZoneFilter {
			if _, _, err := v.def.ZoneForConcrete(zone); err != nil {
				v.add(fmt.Sprintf("%s.zone_filter[%d]", p, i), ErrUnknownZone, "%v", err)
			}
		}
	case ir.SetEligibilityOverride:
		cfg := v.turnFlow()
		if cfg == nil {
			v.add(p, ErrInvalidTurnOrder, "eligibility overrides need a cardDriven turn order")
			break
		}
		if !slices.ContainsFunc(cfg.OverrideWindows, func(w ir.OverrideWindow) bool { return w.ID == n.Window }) {
			v.add(p+".window", ErrUnknownWindow, "unknown override window %q", n.Window)
		}
		if n.Seat != "self" && !strings.ContainsAny(n.Seat, "{$") {
			v.seatRef(p+".seat", n.Seat)
		}
	}
}

func (v *validator) value(path string, n ir.ValueNode) {
	switch n := n.(type) {
	case ir.GVarRef:
		v.globalVar(path, n.Var)
	case ir.PVarRef:
		v.playerVar(path, n.Var)
	case ir.MarkerState:
		v.lattice(path+".marker", n.Marker)
	case ir.GlobalMarkerState:
		v.globalLattice(path, n.Marker)
	case ir.Arith:
		if !slices.Contains(arithOps, n.Op) {
			v.add(path+".op", ErrUnknownOperator, "unknown arithmetic operator %q", n.Op)
		}
	case ir.Aggregate:
		if !slices.Contains(aggregateOps, n.Op) {
			v.add(path+".op", ErrUnknownOperator, "unknown aggregate %q", n.Op)
		}
	case ir.Builtin:
		if !slices.Contains(builtins, n.Name) {
			v.add(path, ErrUnknownOperator, "unknown builtin %q (known: %s)", n.Name, strings.Join(builtins, ", "))
		}
	}
}

func (v *validator) cond(path string, n ir.CondNode) {
	if c, ok := n.(ir.Compare); ok && !slices.Contains(compareOps, c.Op) {
		v.add(path+".op", ErrUnknownOperator, "unknown comparison %q", c.Op)
	}
}

func (v *validator) query(path string, n ir.QueryNode) {
	switch n := n.(type) {
	case ir.TokensInZone:
		for i, f := range n.Filter {
			if f.Op != "" && !slices.Contains(compareOps, f.Op) {
				v.add(fmt.Sprintf("%s.filter[%d].op", path, i), ErrUnknownOperator, "unknown comparison %q", f.Op)
			}
		}
	case ir.Zones:
		if n.Base != "" {
			if _, ok := v.def.Zone(n.Base); !ok {
				v.add(path+".base", ErrUnknownZone, "unknown zone %q", n.Base)
			}
		}
	case ir.Seats:
		if v.turnFlow() == nil {
			v.add(path, ErrInvalidTurnOrder, "seats need a cardDriven turn order")
		}
	}
}

// knownClass reports whether class may label an action under a card-driven
// turn order.
func knownClass(class string) bool {
	return ir.IsOperationClass(class) || class == "pass"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
