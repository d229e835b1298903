package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/turnflow"
)

// InitialState builds the opening state of a game: variables at their
// initial values, empty zones, setup placements and setup effects, then the
// first turn. Card-driven games deal the played and lookahead cards before
// the first turn opens.
//
// The same definition, seed and player count always produce the same state.
func InitialState(def *ir.GameDef, seed int64, playerCount int) (*GameState, error) {
	if playerCount < def.Players.Min || playerCount > def.Players.Max {
		return nil, fmt.Errorf("initial state: %d players outside [%d, %d]", playerCount, def.Players.Min, def.Players.Max)
	}
	if len(def.Phases) == 0 {
		return nil, &DefinitionError{Kind: "phase", Ref: def.ID, Message: "no phases declared"}
	}

	st := &GameState{
		GlobalVars:  ir.Object{},
		PlayerVars:  make([]ir.Object, playerCount),
		Zones:       map[string][]Token{},
		RNG:         NewRNG(seed),
		TurnOrder:   TurnOrderState{Type: def.TurnOrder.Type},
		PlayerCount: playerCount,
	}
	for _, v := range def.GlobalVars {
		st.GlobalVars[v.Name] = initialValue(v)
	}
	for p := range playerCount {
		st.PlayerVars[p] = ir.Object{}
		for _, v := range def.PerPlayerVars {
			st.PlayerVars[p][v.Name] = initialValue(v)
		}
	}
	for _, z := range def.ConcreteZones(playerCount) {
		st.Zones[z] = []Token{}
	}

	switch def.TurnOrder.Type {
	case ir.TurnOrderRoundRobin, ir.TurnOrderSimultaneous:
	case ir.TurnOrderFixedOrder:
		order := def.TurnOrder.Order
		if len(order) == 0 || slices.ContainsFunc(order, func(p int) bool { return p < 0 || p >= playerCount }) {
			return nil, fmt.Errorf("initial state: fixed order %v does not fit %d players", order, playerCount)
		}
		st.ActivePlayer = order[0]
	case ir.TurnOrderCardDriven:
		cfg := def.TurnOrder.TurnFlow
		if cfg == nil {
			return nil, &DefinitionError{Kind: "turnOrder", Ref: def.ID, Message: "cardDriven without a turn flow"}
		}
		if len(cfg.Seats) != playerCount {
			return nil, fmt.Errorf("initial state: %d seats for %d players", len(cfg.Seats), playerCount)
		}
		rt := turnflow.New(cfg)
		st.TurnOrder.CardDriven = &rt
	default:
		return nil, &DefinitionError{Kind: "turnOrder", Ref: def.TurnOrder.Type}
	}

	x := newExecutor(def, modeCommit, nil, nil, NewPhaseBudget(DefaultPhaseTransitionBudget))
	e := env{actor: st.ActivePlayer, executor: st.ActivePlayer, b: Bindings{}}
	st, err := x.placeSetup(st)
	if err != nil {
		return nil, fmt.Errorf("initial state: setup: %w", err)
	}
	if st, _, err = x.runList(st, e, def.SetupEffects); err != nil {
		return nil, fmt.Errorf("initial state: setup effects: %w", err)
	}

	phase := def.Phases[0]
	var extra []lifecycleEvent
	if st.CardRuntime() != nil {
		cards := def.TurnOrder.TurnFlow.Cards
		if st, err = x.shiftCard(st, cards.Deck, cards.Played); err != nil {
			return nil, fmt.Errorf("initial state: deal: %w", err)
		}
		if st, err = x.shiftCard(st, cards.Deck, cards.Lookahead); err != nil {
			return nil, fmt.Errorf("initial state: deal: %w", err)
		}
		if st, phase, err = x.beginCard(st); err != nil {
			return nil, fmt.Errorf("initial state: deal: %w", err)
		}
		extra = append(extra, cardPlayedEvent(phase))
	}
	if st, err = x.openTurn(st, e, phase, extra...); err != nil {
		return nil, fmt.Errorf("initial state: first turn: %w", err)
	}
	if st, err = x.autoAdvance(x.refreshActive(st), e); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	st = x.refreshActive(st)
	slog.Debug("initial state built",
		"game", def.ID,
		"players", playerCount,
		"phase", st.CurrentPhase,
		"active", st.ActivePlayer,
	)
	return st, nil
}

func initialValue(v ir.VarDef) ir.Value {
	switch v.Type {
	case ir.VarTypeBoolean:
		b, _ := ir.AsBool(v.Init.Value)
		return ir.Bool(b)
	default:
		n, _ := ir.AsInt(v.Init.Value)
		return ir.Int(clamp(n, v.Min, v.Max))
	}
}

// placeSetup creates the setup tokens in declaration order.
func (x *executor) placeSetup(st *GameState) (*GameState, error) {
	for i, sp := range x.def.Setup {
		tt, ok := x.def.TokenType(sp.TokenType)
		if !ok {
			return nil, &DefinitionError{Kind: "tokenType", Ref: sp.TokenType}
		}
		zone, err := x.resolveZone(st, env{b: Bindings{}}, ir.ZoneSel(sp.Zone))
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		for _, name := range slices.Sorted(maps.Keys(sp.Props)) {
			pd, ok := tt.Prop(name)
			if !ok {
				return nil, &DefinitionError{Kind: "prop", Ref: name, Message: "not declared on token type " + tt.ID}
			}
			if err := checkPropType(pd, sp.Props[name]); err != nil {
				return nil, fmt.Errorf("setup[%d]: %w", i, err)
			}
		}
		pos, err := x.placement(zone, "")
		if err != nil {
			return nil, err
		}
		toks := make([]Token, sp.Count)
		for j := range toks {
			toks[j] = Token{
				ID:    fmt.Sprintf("%s#%d", sp.TokenType, st.NextTokenOrdinal+j),
				Type:  sp.TokenType,
				Props: maps.Clone(sp.Props),
			}
		}
		st = st.withZone(zone, insertTokens(st.ZoneTokens(zone), toks, pos))
		st.NextTokenOrdinal += sp.Count
	}
	return st, nil
}
