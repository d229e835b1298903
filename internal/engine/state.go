package engine

import (
	"maps"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/turnflow"
)

// GameState is an immutable-by-convention snapshot of a game.
//
// Every mutation goes through a with* method that copies the receiver and
// only the map or slice it touches; everything else is shared with the
// previous snapshot. Nothing ever writes into a map or slice reachable from
// a published state, so retained snapshots stay valid.
type GameState struct {
	GlobalVars       ir.Object                    `json:"global_vars"`
	PlayerVars       []ir.Object                  `json:"player_vars"`
	Zones            map[string][]Token           `json:"zones"`
	Markers          map[string]map[string]string `json:"markers,omitempty"`
	GlobalMarkers    map[string]string            `json:"global_markers,omitempty"`
	Revealed         map[string][]int             `json:"revealed,omitempty"`
	ActivePlayer     int                          `json:"active_player"`
	CurrentPhase     string                       `json:"current_phase"`
	TurnCount        int                          `json:"turn_count"`
	RNG              RNGState                     `json:"rng"`
	Usage            map[string]Usage             `json:"usage,omitempty"`
	TurnOrder        TurnOrderState               `json:"turn_order"`
	InterruptStack   []InterruptFrame             `json:"interrupt_stack,omitempty"`
	PlayerCount      int                          `json:"player_count"`
	NextTokenOrdinal int                          `json:"next_token_ordinal"`
}

// Token is a game piece. Its id is unique within a state.
type Token struct {
	ID    string    `json:"id"`
	Type  string    `json:"type"`
	Props ir.Object `json:"props,omitempty"`
}

// Usage counts how often an action was taken.
type Usage struct {
	Turn  int `json:"turn"`
	Phase int `json:"phase"`
	Game  int `json:"game"`
}

// RevealedToAll marks a zone revealed to every player.
const RevealedToAll = -1

// TurnOrderState mirrors the definition's turn-order type.
type TurnOrderState struct {
	Type string `json:"type"`

	// Position indexes the fixedOrder order list.
	Position int `json:"position,omitempty"`

	// Submitted lists the players that acted in the current simultaneous phase.
	Submitted []int `json:"submitted,omitempty"`

	CardDriven *turnflow.Runtime `json:"card_driven,omitempty"`
}

// InterruptFrame is one entry of the interrupt phase stack.
type InterruptFrame struct {
	Phase           string         `json:"phase"`
	ResumePhase     string         `json:"resume_phase"`
	SavedPhaseUsage map[string]int `json:"saved_phase_usage,omitempty"`
}

func (s *GameState) clone() *GameState {
	c := *s
	return &c
}

// ---- variables ----

func (s *GameState) withGlobalVar(name string, v ir.Value) *GameState {
	c := s.clone()
	c.GlobalVars = maps.Clone(s.GlobalVars)
	if c.GlobalVars == nil {
		c.GlobalVars = ir.Object{}
	}
	c.GlobalVars[name] = v
	return c
}

func (s *GameState) withPlayerVar(player int, name string, v ir.Value) *GameState {
	c := s.clone()
	c.PlayerVars = slices.Clone(s.PlayerVars)
	row := maps.Clone(s.PlayerVars[player])
	if row == nil {
		row = ir.Object{}
	}
	row[name] = v
	c.PlayerVars[player] = row
	return c
}

// ---- zones and tokens ----

// ZoneTokens returns the tokens of a concrete zone, top first.
// The slice is shared; callers must not modify it.
func (s *GameState) ZoneTokens(zone string) []Token {
	return s.Zones[zone]
}

func (s *GameState) withZone(zone string, tokens []Token) *GameState {
	c := s.clone()
	c.Zones = maps.Clone(s.Zones)
	if c.Zones == nil {
		c.Zones = map[string][]Token{}
	}
	if tokens == nil {
		tokens = []Token{}
	}
	c.Zones[zone] = tokens
	return c
}

// FindToken locates a token by id. Zones are scanned in sorted order.
func (s *GameState) FindToken(id string) (Token, string, int, bool) {
	for _, zone := range slices.Sorted(maps.Keys(s.Zones)) {
		for i, t := range s.Zones[zone] {
			if t.ID == id {
				return t, zone, i, true
			}
		}
	}
	return Token{}, "", -1, false
}

// ---- markers ----

func (s *GameState) marker(space, marker string) (string, bool) {
	m, ok := s.Markers[space][marker]
	return m, ok
}

func (s *GameState) withMarker(space, marker, state string) *GameState {
	c := s.clone()
	c.Markers = maps.Clone(s.Markers)
	if c.Markers == nil {
		c.Markers = map[string]map[string]string{}
	}
	row := maps.Clone(s.Markers[space])
	if row == nil {
		row = map[string]string{}
	}
	row[marker] = state
	c.Markers[space] = row
	return c
}

func (s *GameState) withGlobalMarker(marker, state string) *GameState {
	c := s.clone()
	c.GlobalMarkers = maps.Clone(s.GlobalMarkers)
	if c.GlobalMarkers == nil {
		c.GlobalMarkers = map[string]string{}
	}
	c.GlobalMarkers[marker] = state
	return c
}

func (s *GameState) withRevealed(zone string, observers []int) *GameState {
	c := s.clone()
	c.Revealed = maps.Clone(s.Revealed)
	if c.Revealed == nil {
		c.Revealed = map[string][]int{}
	}
	c.Revealed[zone] = observers
	return c
}

// ---- usage ----

func (s *GameState) usage(actionID string) Usage {
	return s.Usage[actionID]
}

func (s *GameState) withUsageIncrement(actionID string) *GameState {
	c := s.clone()
	c.Usage = maps.Clone(s.Usage)
	if c.Usage == nil {
		c.Usage = map[string]Usage{}
	}
	u := c.Usage[actionID]
	u.Turn++
	u.Phase++
	u.Game++
	c.Usage[actionID] = u
	return c
}

// phaseUsage extracts per-phase counters, keyed by action id.
func (s *GameState) phaseUsage() map[string]int {
	out := map[string]int{}
	for id, u := range s.Usage {
		if u.Phase != 0 {
			out[id] = u.Phase
		}
	}
	return out
}

// withPhaseUsage replaces every per-phase counter with saved (nil resets).
func (s *GameState) withPhaseUsage(saved map[string]int) *GameState {
	c := s.clone()
	c.Usage = make(map[string]Usage, len(s.Usage))
	for id, u := range s.Usage {
		u.Phase = saved[id]
		c.Usage[id] = u
	}
	for id, n := range saved {
		if _, ok := c.Usage[id]; !ok {
			c.Usage[id] = Usage{Phase: n}
		}
	}
	return c
}

func (s *GameState) withTurnUsageReset() *GameState {
	c := s.clone()
	c.Usage = make(map[string]Usage, len(s.Usage))
	for id, u := range s.Usage {
		u.Turn = 0
		c.Usage[id] = u
	}
	return c
}

// ---- turn order ----

// CardRuntime returns the card-driven runtime, or nil for other turn orders.
func (s *GameState) CardRuntime() *turnflow.Runtime {
	return s.TurnOrder.CardDriven
}

func (s *GameState) withCardRuntime(r turnflow.Runtime) *GameState {
	c := s.clone()
	c.TurnOrder.CardDriven = &r
	return c
}

func (s *GameState) withInterruptStack(stack []InterruptFrame) *GameState {
	c := s.clone()
	c.InterruptStack = stack
	return c
}
