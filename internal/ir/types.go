package ir

import (
	"fmt"
	"strconv"
)

// GameDef is the immutable, compiler-produced definition of a game.
// The engine never mutates it; every lookup is by declared id.
type GameDef struct {
	ID                   string             `json:"id"`
	Players              PlayerRange        `json:"players"`
	Zones                []ZoneDef          `json:"zones"`
	TokenTypes           []TokenTypeDef     `json:"token_types,omitempty"`
	GlobalVars           []VarDef           `json:"global_vars,omitempty"`
	PerPlayerVars        []VarDef           `json:"per_player_vars,omitempty"`
	MarkerLattices       []MarkerLattice    `json:"marker_lattices,omitempty"`
	GlobalMarkerLattices []MarkerLattice    `json:"global_marker_lattices,omitempty"`
	Setup                []SetupPlacement   `json:"setup,omitempty"`
	SetupEffects         EffectList         `json:"setup_effects,omitempty"`
	Phases               []string           `json:"phases"`
	InterruptPhases      []string           `json:"interrupt_phases,omitempty"`
	TurnOrder            TurnOrder          `json:"turn_order"`
	Actions              []ActionDef        `json:"actions"`
	OperationProfiles    []OperationProfile `json:"operation_profiles,omitempty"`
	Triggers             []TriggerDef       `json:"triggers,omitempty"`
	Terminal             []TerminalDef      `json:"terminal,omitempty"`
}

// PlayerRange bounds the player count a definition supports.
type PlayerRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Zone owner kinds.
const (
	OwnerNone   = "none"
	OwnerPlayer = "player"
)

// ZoneDef declares a zone. Unowned zones have the single concrete id
// "<id>:none"; player-owned zones expand to "<id>:0" .. "<id>:<n-1>".
type ZoneDef struct {
	ID         string   `json:"id"`
	Owner      string   `json:"owner"`
	Visibility string   `json:"visibility,omitempty"` // public | owner | hidden
	Ordering   string   `json:"ordering,omitempty"`   // stack | queue | set
	AdjacentTo []string `json:"adjacent_to,omitempty"`
	Attributes Object   `json:"attributes,omitempty"`
}

// ConcreteZoneID builds the concrete id of a zone instance.
// owner < 0 selects the unowned instance.
func ConcreteZoneID(base string, owner int) string {
	if owner < 0 {
		return base + ":" + OwnerNone
	}
	return base + ":" + strconv.Itoa(owner)
}

// TokenTypeDef declares a token type and its property schema.
type TokenTypeDef struct {
	ID    string    `json:"id"`
	Props []PropDef `json:"props,omitempty"`
}

// PropDef declares one typed token property.
type PropDef struct {
	Name string `json:"name"`
	Type string `json:"type"` // int | bool | string | list
}

// Variable types.
const (
	VarTypeInt     = "int"
	VarTypeBoolean = "boolean"
)

// VarDef declares a typed variable. Int variables are always kept
// within [Min, Max].
type VarDef struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Init Literal `json:"init"`
	Min  int64   `json:"min,omitempty"`
	Max  int64   `json:"max,omitempty"`
}

// MarkerLattice declares an ordered set of marker states.
type MarkerLattice struct {
	ID      string   `json:"id"`
	States  []string `json:"states"`
	Default string   `json:"default"`
}

// StateIndex returns the position of state in the lattice, or -1.
func (m MarkerLattice) StateIndex(state string) int {
	for i, s := range m.States {
		if s == state {
			return i
		}
	}
	return -1
}

// SetupPlacement creates Count tokens of a type in a concrete zone
// when the initial state is built.
type SetupPlacement struct {
	Zone      string `json:"zone"`
	TokenType string `json:"token_type"`
	Count     int    `json:"count"`
	Props     Object `json:"props,omitempty"`
}

// Turn order types.
const (
	TurnOrderRoundRobin   = "roundRobin"
	TurnOrderFixedOrder   = "fixedOrder"
	TurnOrderSimultaneous = "simultaneous"
	TurnOrderCardDriven   = "cardDriven"
)

// TurnOrder is a tagged union over the supported turn-order strategies.
type TurnOrder struct {
	Type     string          `json:"type"`
	Order    []int           `json:"order,omitempty"`
	TurnFlow *TurnFlowConfig `json:"turn_flow,omitempty"`
	CoupPlan *CoupPlan       `json:"coup_plan,omitempty"`
}

// Action actor kinds.
const (
	ActorActive = "active"
	ActorAny    = "any"
)

// ActionDef declares a player action.
type ActionDef struct {
	ID       string       `json:"id"`
	Actor    string       `json:"actor,omitempty"` // active (default) | any | <player index>
	Executor *PlayerSel   `json:"executor,omitempty"`
	Phases   []string     `json:"phases"`
	Params   []ParamDef   `json:"params,omitempty"`
	Pre      *Cond        `json:"pre,omitempty"`
	Cost     EffectList   `json:"cost,omitempty"`
	Effects  EffectList   `json:"effects,omitempty"`
	Limits   []UsageLimit `json:"limits,omitempty"`
	Class    string       `json:"class,omitempty"`
}

// InPhase reports whether the action may be taken in phase.
func (a *ActionDef) InPhase(phase string) bool {
	for _, p := range a.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// ParamDef declares a move parameter and its legal domain.
type ParamDef struct {
	Name   string `json:"name"`
	Domain Query  `json:"domain"`
}

// Usage limit scopes.
const (
	LimitScopeTurn  = "turn"
	LimitScopePhase = "phase"
	LimitScopeGame  = "game"
)

// UsageLimit caps how often an action may be taken per scope.
type UsageLimit struct {
	Scope string `json:"scope"`
	Max   int    `json:"max"`
}

// OperationProfile is a multi-stage implementation of an action.
// When several profiles share an action id, the first whose applicability
// condition holds is dispatched.
type OperationProfile struct {
	ID             string       `json:"id"`
	ActionID       string       `json:"action_id"`
	Applicability  *Cond        `json:"applicability,omitempty"`
	Legality       *Cond        `json:"legality,omitempty"`
	Cost           EffectList   `json:"cost,omitempty"`
	CostValidation *Cond        `json:"cost_validation,omitempty"`
	Targeting      EffectList   `json:"targeting,omitempty"`
	Stages         []EffectList `json:"stages,omitempty"`
}

// Trigger event kinds.
const (
	EventPhaseEnter     = "phaseEnter"
	EventPhaseExit      = "phaseExit"
	EventTurnStart      = "turnStart"
	EventTurnEnd        = "turnEnd"
	EventActionResolved = "actionResolved"
	EventCardPlayed     = "cardPlayed"
)

// TriggerDef runs Effects whenever a matching lifecycle event is dispatched.
type TriggerDef struct {
	ID      string       `json:"id"`
	On      TriggerEvent `json:"on"`
	When    *Cond        `json:"when,omitempty"`
	Effects EffectList   `json:"effects"`
}

// TriggerEvent matches dispatched events. Empty Phase/Action match any.
type TriggerEvent struct {
	Event  string `json:"event"`
	Phase  string `json:"phase,omitempty"`
	Action string `json:"action,omitempty"`
}

// Terminal result kinds.
const (
	ResultWin     = "win"
	ResultDraw    = "draw"
	ResultLossAll = "lossAll"
	ResultScore   = "score"
)

// TerminalDef ends the game when its condition holds.
type TerminalDef struct {
	When   Cond           `json:"when"`
	Result TerminalResult `json:"result"`
}

// TerminalResult describes the outcome of a terminal condition.
type TerminalResult struct {
	Kind   string     `json:"kind"`
	Player *PlayerSel `json:"player,omitempty"`
	Score  *Expr      `json:"score,omitempty"`
}

// Action returns the action with the given id.
func (d *GameDef) Action(id string) (*ActionDef, bool) {
	for i := range d.Actions {
		if d.Actions[i].ID == id {
			return &d.Actions[i], true
		}
	}
	return nil, false
}

// ProfilesFor returns the operation profiles of an action in declaration order.
func (d *GameDef) ProfilesFor(actionID string) []*OperationProfile {
	var out []*OperationProfile
	for i := range d.OperationProfiles {
		if d.OperationProfiles[i].ActionID == actionID {
			out = append(out, &d.OperationProfiles[i])
		}
	}
	return out
}

// Zone returns the zone declaration with the given base id.
func (d *GameDef) Zone(base string) (*ZoneDef, bool) {
	for i := range d.Zones {
		if d.Zones[i].ID == base {
			return &d.Zones[i], true
		}
	}
	return nil, false
}

// ZoneForConcrete resolves a concrete zone id ("hand:1") to its declaration
// and owner (-1 when unowned).
func (d *GameDef) ZoneForConcrete(id string) (*ZoneDef, int, error) {
	base, suffix, ok := splitZoneID(id)
	if !ok {
		return nil, 0, fmt.Errorf("malformed zone id %q", id)
	}
	z, found := d.Zone(base)
	if !found {
		return nil, 0, fmt.Errorf("unknown zone %q", id)
	}
	if suffix == OwnerNone {
		if z.Owner == OwnerPlayer {
			return nil, 0, fmt.Errorf("zone %q is player-owned; %q has no owner", base, id)
		}
		return z, -1, nil
	}
	if z.Owner != OwnerPlayer {
		return nil, 0, fmt.Errorf("zone %q is unowned; %q names an owner", base, id)
	}
	owner, err := strconv.Atoi(suffix)
	if err != nil || owner < 0 {
		return nil, 0, fmt.Errorf("malformed zone owner in %q", id)
	}
	return z, owner, nil
}

// ConcreteZones lists every concrete zone id in declaration order,
// expanding player-owned zones in player order.
func (d *GameDef) ConcreteZones(playerCount int) []string {
	var out []string
	for _, z := range d.Zones {
		if z.Owner == OwnerPlayer {
			for p := 0; p < playerCount; p++ {
				out = append(out, ConcreteZoneID(z.ID, p))
			}
			continue
		}
		out = append(out, ConcreteZoneID(z.ID, -1))
	}
	return out
}

func splitZoneID(id string) (base, suffix string, ok bool) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == ':' {
			return id[:i], id[i+1:], i > 0 && i < len(id)-1
		}
	}
	return "", "", false
}

// TokenType returns the token type with the given id.
func (d *GameDef) TokenType(id string) (*TokenTypeDef, bool) {
	for i := range d.TokenTypes {
		if d.TokenTypes[i].ID == id {
			return &d.TokenTypes[i], true
		}
	}
	return nil, false
}

// Prop returns the declared property with the given name.
func (t *TokenTypeDef) Prop(name string) (*PropDef, bool) {
	for i := range t.Props {
		if t.Props[i].Name == name {
			return &t.Props[i], true
		}
	}
	return nil, false
}

// GlobalVar returns the global variable declaration with the given name.
func (d *GameDef) GlobalVar(name string) (*VarDef, bool) {
	return findVar(d.GlobalVars, name)
}

// PlayerVar returns the per-player variable declaration with the given name.
func (d *GameDef) PlayerVar(name string) (*VarDef, bool) {
	return findVar(d.PerPlayerVars, name)
}

func findVar(vars []VarDef, name string) (*VarDef, bool) {
	for i := range vars {
		if vars[i].Name == name {
			return &vars[i], true
		}
	}
	return nil, false
}

// Lattice returns the per-space marker lattice with the given id.
func (d *GameDef) Lattice(id string) (*MarkerLattice, bool) {
	return findLattice(d.MarkerLattices, id)
}

// GlobalLattice returns the global marker lattice with the given id.
func (d *GameDef) GlobalLattice(id string) (*MarkerLattice, bool) {
	return findLattice(d.GlobalMarkerLattices, id)
}

func findLattice(lattices []MarkerLattice, id string) (*MarkerLattice, bool) {
	for i := range lattices {
		if lattices[i].ID == id {
			return &lattices[i], true
		}
	}
	return nil, false
}

// PhaseIndex returns the index of a phase in the ordered phase list, or -1.
// Interrupt phases are not part of the ordered list.
func (d *GameDef) PhaseIndex(id string) int {
	for i, p := range d.Phases {
		if p == id {
			return i
		}
	}
	return -1
}

// IsInterruptPhase reports whether id is a declared interrupt phase.
func (d *GameDef) IsInterruptPhase(id string) bool {
	for _, p := range d.InterruptPhases {
		if p == id {
			return true
		}
	}
	return false
}

// HasPhase reports whether id names any declared phase.
func (d *GameDef) HasPhase(id string) bool {
	return d.PhaseIndex(id) >= 0 || d.IsInterruptPhase(id)
}
