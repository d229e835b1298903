package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AST nodes decode from objects with exactly one key naming the node kind:
//
//	{"addVar": {"var": "aid", "delta": 3}}
//
// Unknown kinds and unknown fields are errors.

// UnmarshalJSON decodes a value expression. Bare scalars and arrays are
// literals; a string starting with "$" reads a binding.
func (e *Expr) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		kind, body, err := singleKey(data, "value expression")
		if err != nil {
			return err
		}
		node, err := decodeValueNode(kind, body)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		e.Node = node
		return nil
	}
	v, err := UnmarshalValue(data)
	if err != nil {
		return fmt.Errorf("value expression: %w", err)
	}
	if s, ok := v.(Str); ok && strings.HasPrefix(string(s), "$") {
		e.Node = BindingRef{Name: string(s)}
		return nil
	}
	e.Node = Lit{Value: v}
	return nil
}

func decodeValueNode(kind string, body json.RawMessage) (ValueNode, error) {
	switch kind {
	case "lit":
		v, err := UnmarshalValue(body)
		return Lit{Value: v}, err
	case "gvar":
		var name string
		err := json.Unmarshal(body, &name)
		return GVarRef{Var: name}, err
	case "pvar":
		return strict[PVarRef](body)
	case "binding":
		var name string
		err := json.Unmarshal(body, &name)
		return BindingRef{Name: name}, err
	case "zoneCount":
		var zone ZoneSel
		err := json.Unmarshal(body, &zone)
		return ZoneCount{Zone: zone}, err
	case "tokenProp":
		return strict[TokenProp](body)
	case "tokenZone":
		var token Expr
		err := json.Unmarshal(body, &token)
		return TokenZone{Token: token}, err
	case "count":
		var q Query
		err := json.Unmarshal(body, &q)
		return Count{Query: q}, err
	case "aggregate":
		return strict[Aggregate](body)
	case "arith":
		return strict[Arith](body)
	case "if":
		return strict[IfValue](body)
	case "marker":
		return strict[MarkerState](body)
	case "globalMarker":
		var name string
		err := json.Unmarshal(body, &name)
		return GlobalMarkerState{Marker: name}, err
	case "zoneAttr":
		return strict[ZoneAttr](body)
	case "builtin":
		var name string
		err := json.Unmarshal(body, &name)
		return Builtin{Name: name}, err
	case "list":
		var items []Expr
		err := json.Unmarshal(body, &items)
		return ListOf{Items: items}, err
	default:
		return nil, fmt.Errorf("unknown value expression kind %q", kind)
	}
}

// UnmarshalJSON decodes a condition. Bare booleans are constants.
func (c *Cond) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		c.Node = BoolLit{Value: true}
		return nil
	case "false":
		c.Node = BoolLit{Value: false}
		return nil
	}
	kind, body, err := singleKey(data, "condition")
	if err != nil {
		return err
	}
	node, err := decodeCondNode(kind, body)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	c.Node = node
	return nil
}

func decodeCondNode(kind string, body json.RawMessage) (CondNode, error) {
	switch kind {
	case "and":
		var items []Cond
		err := json.Unmarshal(body, &items)
		return And{Items: items}, err
	case "or":
		var items []Cond
		err := json.Unmarshal(body, &items)
		return Or{Items: items}, err
	case "not":
		var item Cond
		err := json.Unmarshal(body, &item)
		return Not{Item: item}, err
	case "cmp":
		return strict[Compare](body)
	case "in":
		return strict[In](body)
	case "adjacent":
		return strict[Adjacent](body)
	case "exists":
		var q Query
		err := json.Unmarshal(body, &q)
		return Exists{Query: q}, err
	default:
		return nil, fmt.Errorf("unknown condition kind %q", kind)
	}
}

// UnmarshalJSON decodes a query. A bare array is an enum literal.
func (q *Query) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		v, err := UnmarshalValue(data)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		q.Node = Enums{Values: v.(List)}
		return nil
	}
	kind, body, err := singleKey(data, "query")
	if err != nil {
		return err
	}
	node, err := decodeQueryNode(kind, body)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	q.Node = node
	return nil
}

func decodeQueryNode(kind string, body json.RawMessage) (QueryNode, error) {
	switch kind {
	case "tokensInZone":
		return strict[TokensInZone](body)
	case "intsInRange":
		return strict[IntsInRange](body)
	case "enums":
		var values List
		err := json.Unmarshal(body, &values)
		return Enums{Values: values}, err
	case "players":
		return Players{}, nil
	case "seats":
		return Seats{}, nil
	case "zones":
		return strict[Zones](body)
	case "adjacentZones":
		var zone ZoneSel
		err := json.Unmarshal(body, &zone)
		return AdjacentZones{Zone: zone}, err
	case "binding":
		var name string
		err := json.Unmarshal(body, &name)
		return BindingQuery{Name: name}, err
	case "concat":
		var items []Query
		err := json.Unmarshal(body, &items)
		return Concat{Items: items}, err
	case "filter":
		return strict[Filter](body)
	default:
		return nil, fmt.Errorf("unknown query kind %q", kind)
	}
}

// UnmarshalJSON decodes an effect program.
func (l *EffectList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("effect list: %w", err)
	}
	out := make(EffectList, 0, len(raws))
	for i, raw := range raws {
		eff, err := DecodeEffect(raw)
		if err != nil {
			return fmt.Errorf("effects[%d]: %w", i, err)
		}
		out = append(out, eff)
	}
	*l = out
	return nil
}

// DecodeEffect decodes a single effect node.
func DecodeEffect(data []byte) (Effect, error) {
	kind, body, err := singleKey(bytes.TrimSpace(data), "effect")
	if err != nil {
		return nil, err
	}
	eff, err := decodeEffectNode(kind, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return eff, nil
}

func decodeEffectNode(kind string, body json.RawMessage) (Effect, error) {
	switch kind {
	case KindSetVar:
		return strict[SetVar](body)
	case KindAddVar:
		return strict[AddVar](body)
	case KindTransferVar:
		return strict[TransferVar](body)
	case KindMoveToken:
		return strict[MoveToken](body)
	case KindMoveAll:
		return strict[MoveAll](body)
	case KindMoveTokenAdjacent:
		return strict[MoveTokenAdjacent](body)
	case KindDraw:
		return strict[Draw](body)
	case KindReveal:
		return strict[Reveal](body)
	case KindShuffle:
		return strict[Shuffle](body)
	case KindCreateToken:
		return strict[CreateToken](body)
	case KindDestroyToken:
		return strict[DestroyToken](body)
	case KindSetTokenProp:
		return strict[SetTokenProp](body)
	case KindSetMarker:
		return strict[SetMarker](body)
	case KindShiftMarker:
		return strict[ShiftMarker](body)
	case KindSetGlobalMarker:
		return strict[SetGlobalMarker](body)
	case KindFlipGlobalMarker:
		return strict[FlipGlobalMarker](body)
	case KindShiftGlobalMarker:
		return strict[ShiftGlobalMarker](body)
	case KindIf:
		return strict[If](body)
	case KindForEach:
		return strict[ForEach](body)
	case KindReduce:
		return strict[Reduce](body)
	case KindLet:
		return strict[Let](body)
	case KindBindValue:
		return strict[BindValue](body)
	case KindEvaluateSubset:
		return strict[EvaluateSubset](body)
	case KindRemoveByPriority:
		return strict[RemoveByPriority](body)
	case KindRollRandom:
		return strict[RollRandom](body)
	case KindChooseOne:
		return strict[ChooseOne](body)
	case KindChooseN:
		return strict[ChooseN](body)
	case KindGrantFreeOperation:
		return strict[GrantFreeOperation](body)
	case KindSetEligibility:
		return strict[SetEligibilityOverride](body)
	case KindGotoPhaseExact:
		return strict[GotoPhaseExact](body)
	case KindAdvancePhase:
		return AdvancePhase{}, nil
	case KindPushInterruptPhase:
		return strict[PushInterruptPhase](body)
	case KindPopInterruptPhase:
		return PopInterruptPhase{}, nil
	default:
		return nil, fmt.Errorf("unknown effect kind %q", kind)
	}
}

// UnmarshalJSON decodes a player selector.
func (p *PlayerSel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case PlayerActive, PlayerActor, PlayerExecutor:
			*p = PlayerSel{Kind: s}
			return nil
		}
		if strings.HasPrefix(s, "$") {
			*p = PlayerSel{Kind: PlayerExpr, Expr: BindingExpr(s)}
			return nil
		}
		return fmt.Errorf("unknown player selector %q", s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			return fmt.Errorf("player index %d is negative", n)
		}
		*p = PlayerSel{Kind: PlayerIndex, Index: n}
		return nil
	}
	var e Expr
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("player selector: %w", err)
	}
	*p = PlayerSel{Kind: PlayerExpr, Expr: e}
	return nil
}

// UnmarshalJSON decodes a literal scalar.
func (l *Literal) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalValue(data)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

// UnmarshalJSON decodes a list of values.
func (l *List) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalValue(data)
	if err != nil {
		return err
	}
	list, ok := v.(List)
	if !ok {
		return fmt.Errorf("expected list, got %s", Kind(v))
	}
	*l = list
	return nil
}

// UnmarshalJSON decodes an object of values.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalValue(data)
	if err != nil {
		return err
	}
	obj, ok := v.(Object)
	if !ok {
		return fmt.Errorf("expected object, got %s", Kind(v))
	}
	*o = obj
	return nil
}

func singleKey(data []byte, family string) (string, json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("%s: %w", family, err)
	}
	if len(m) != 1 {
		keys := make(Object, len(m))
		for k := range m {
			keys[k] = nil
		}
		return "", nil, fmt.Errorf("%s node must have exactly one key, got %v", family, keys.SortedKeys())
	}
	for k, v := range m {
		return k, v, nil
	}
	return "", nil, nil
}

// strict decodes a node body rejecting unknown fields.
func strict[T any](body []byte) (T, error) {
	var out T
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	err := dec.Decode(&out)
	return out, err
}
