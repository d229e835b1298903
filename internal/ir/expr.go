package ir

// Expression ASTs. Each family is a closed sum type: a sealed node interface
// plus a wrapper struct (Expr, Cond, Query) that carries the node and knows how
// to decode it. Evaluators switch exhaustively on the node and treat an unknown
// variant as an internal error.

// ValueNode is a node of the value-expression AST.
type ValueNode interface {
	valueNode()
}

// CondNode is a node of the condition AST.
type CondNode interface {
	condNode()
}

// QueryNode is a node of the query AST.
type QueryNode interface {
	queryNode()
}

// Expr wraps a value expression.
type Expr struct {
	Node ValueNode
}

// Cond wraps a condition.
type Cond struct {
	Node CondNode
}

// Query wraps a query.
type Query struct {
	Node QueryNode
}

// LitExpr builds an Expr holding a literal.
func LitExpr(v Value) Expr { return Expr{Node: Lit{Value: v}} }

// BindingExpr builds an Expr reading a binding.
func BindingExpr(name string) Expr { return Expr{Node: BindingRef{Name: name}} }

// ---- value nodes ----

// Lit is a literal value.
type Lit struct {
	Value Value
}

// GVarRef reads a global variable.
type GVarRef struct {
	Var string
}

// PVarRef reads a per-player variable.
type PVarRef struct {
	Player PlayerSel `json:"player"`
	Var    string    `json:"var"`
}

// BindingRef reads a binding from the evaluation environment.
type BindingRef struct {
	Name string
}

// ZoneCount counts the tokens in a zone.
type ZoneCount struct {
	Zone ZoneSel
}

// TokenProp reads a property of a token.
type TokenProp struct {
	Token Expr   `json:"token"`
	Prop  string `json:"prop"`
}

// TokenZone yields the concrete zone id a token currently sits in.
type TokenZone struct {
	Token Expr
}

// Count counts the items of a query.
type Count struct {
	Query Query
}

// Aggregate folds Value over the items of Over, each bound to Bind.
// Op is sum, min or max. An empty query aggregates to 0.
type Aggregate struct {
	Op    string `json:"op"`
	Over  Query  `json:"over"`
	Bind  string `json:"bind"`
	Value Expr   `json:"value"`
}

// Arith applies a binary integer operator: + - * / % min max.
// Division truncates toward zero; division by zero is a runtime error.
type Arith struct {
	Op    string `json:"op"`
	Left  Expr   `json:"left"`
	Right Expr   `json:"right"`
}

// IfValue selects between two expressions.
type IfValue struct {
	When Cond `json:"when"`
	Then Expr `json:"then"`
	Else Expr `json:"else"`
}

// MarkerState reads a per-space marker.
type MarkerState struct {
	Space  ZoneSel `json:"space"`
	Marker string  `json:"marker"`
}

// GlobalMarkerState reads a global marker.
type GlobalMarkerState struct {
	Marker string
}

// ZoneAttr reads a declared attribute of a zone.
type ZoneAttr struct {
	Zone ZoneSel `json:"zone"`
	Attr string  `json:"attr"`
}

// Builtin names.
const (
	BuiltinActivePlayer = "activePlayer"
	BuiltinActor        = "actor"
	BuiltinExecutor     = "executor"
	BuiltinTurnCount    = "turnCount"
	BuiltinPlayerCount  = "playerCount"
	BuiltinCurrentPhase = "currentPhase"
	BuiltinActiveSeat   = "activeSeat"
)

// Builtin reads a piece of engine state by name.
type Builtin struct {
	Name string
}

// ListOf builds a list from expressions.
type ListOf struct {
	Items []Expr
}

func (Lit) valueNode()               {}
func (GVarRef) valueNode()           {}
func (PVarRef) valueNode()           {}
func (BindingRef) valueNode()        {}
func (ZoneCount) valueNode()         {}
func (TokenProp) valueNode()         {}
func (TokenZone) valueNode()         {}
func (Count) valueNode()             {}
func (Aggregate) valueNode()         {}
func (Arith) valueNode()             {}
func (IfValue) valueNode()           {}
func (MarkerState) valueNode()       {}
func (GlobalMarkerState) valueNode() {}
func (ZoneAttr) valueNode()          {}
func (Builtin) valueNode()           {}
func (ListOf) valueNode()            {}

// ---- condition nodes ----

// BoolLit is a constant condition.
type BoolLit struct {
	Value bool
}

// And holds when every operand holds. An empty And holds.
type And struct {
	Items []Cond
}

// Or holds when any operand holds. An empty Or does not hold.
type Or struct {
	Items []Cond
}

// Not negates a condition.
type Not struct {
	Item Cond
}

// Compare compares two values with ==, !=, <, <=, > or >=.
// Ordering operators require ints.
type Compare struct {
	Op    string `json:"op"`
	Left  Expr   `json:"left"`
	Right Expr   `json:"right"`
}

// In holds when Item is a member of Set.
type In struct {
	Item Expr  `json:"item"`
	Set  Query `json:"set"`
}

// Adjacent holds when two zones are declared adjacent.
type Adjacent struct {
	A ZoneSel `json:"a"`
	B ZoneSel `json:"b"`
}

// Exists holds when a query is non-empty.
type Exists struct {
	Query Query
}

func (BoolLit) condNode()  {}
func (And) condNode()      {}
func (Or) condNode()       {}
func (Not) condNode()      {}
func (Compare) condNode()  {}
func (In) condNode()       {}
func (Adjacent) condNode() {}
func (Exists) condNode()   {}

// ---- query nodes ----

// PropFilter restricts tokens by a property comparison.
type PropFilter struct {
	Prop  string `json:"prop"`
	Op    string `json:"op,omitempty"` // defaults to ==
	Value Expr   `json:"value"`
}

// TokensInZone yields token ids in zone order.
type TokensInZone struct {
	Zone   ZoneSel      `json:"zone"`
	Filter []PropFilter `json:"filter,omitempty"`
}

// IntsInRange yields Min..Max inclusive. An inverted range is empty.
type IntsInRange struct {
	Min Expr `json:"min"`
	Max Expr `json:"max"`
}

// Enums yields literal values in declaration order.
type Enums struct {
	Values List
}

// Players yields every player index in ascending order.
type Players struct{}

// Seats yields the card-driven seat order.
type Seats struct{}

// Zones yields concrete zone ids in declaration order, optionally restricted
// to one base id and to those satisfying Where with the zone bound to Bind.
type Zones struct {
	Base  string `json:"base,omitempty"`
	Bind  string `json:"bind,omitempty"`
	Where *Cond  `json:"where,omitempty"`
}

// AdjacentZones yields the declared neighbours of a zone.
type AdjacentZones struct {
	Zone ZoneSel
}

// BindingQuery yields the items of a list binding, or a scalar as a singleton.
type BindingQuery struct {
	Name string
}

// Concat yields the items of each query in turn.
type Concat struct {
	Items []Query
}

// Filter keeps the items of Query for which Where holds with the item bound.
type Filter struct {
	Query Query  `json:"query"`
	Bind  string `json:"bind"`
	Where Cond   `json:"where"`
}

func (TokensInZone) queryNode()  {}
func (IntsInRange) queryNode()   {}
func (Enums) queryNode()         {}
func (Players) queryNode()       {}
func (Seats) queryNode()         {}
func (Zones) queryNode()         {}
func (AdjacentZones) queryNode() {}
func (BindingQuery) queryNode()  {}
func (Concat) queryNode()        {}
func (Filter) queryNode()        {}

// ---- selectors ----

// Player selector kinds.
const (
	PlayerActive   = "active"
	PlayerActor    = "actor"
	PlayerExecutor = "executor"
	PlayerIndex    = "index"
	PlayerExpr     = "expr"
)

// PlayerSel picks one player. It decodes from "active", "actor", "executor",
// a player index, or any value expression yielding an index.
type PlayerSel struct {
	Kind  string
	Index int
	Expr  Expr
}

// ZoneSel is a zone template. It resolves to a concrete zone id after
// substituting {$binding} references and the owner suffixes ":active",
// ":actor" and ":executor". A template that is exactly "$name" reads the
// zone id from a binding.
type ZoneSel string

// Literal is a scalar declared in the definition, such as a variable's
// initial value.
type Literal struct {
	Value Value
}
