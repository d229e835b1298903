package ir

// Effect is a node of the closed effect AST.
type Effect interface {
	Kind() string
}

// EffectList is an ordered effect program.
type EffectList []Effect

// Effect kinds.
const (
	KindSetVar             = "setVar"
	KindAddVar             = "addVar"
	KindTransferVar        = "transferVar"
	KindMoveToken          = "moveToken"
	KindMoveAll            = "moveAll"
	KindMoveTokenAdjacent  = "moveTokenAdjacent"
	KindDraw               = "draw"
	KindReveal             = "reveal"
	KindShuffle            = "shuffle"
	KindCreateToken        = "createToken"
	KindDestroyToken       = "destroyToken"
	KindSetTokenProp       = "setTokenProp"
	KindSetMarker          = "setMarker"
	KindShiftMarker        = "shiftMarker"
	KindSetGlobalMarker    = "setGlobalMarker"
	KindFlipGlobalMarker   = "flipGlobalMarker"
	KindShiftGlobalMarker  = "shiftGlobalMarker"
	KindIf                 = "if"
	KindForEach            = "forEach"
	KindReduce             = "reduce"
	KindLet                = "let"
	KindBindValue          = "bindValue"
	KindEvaluateSubset     = "evaluateSubset"
	KindRemoveByPriority   = "removeByPriority"
	KindRollRandom         = "rollRandom"
	KindChooseOne          = "chooseOne"
	KindChooseN            = "chooseN"
	KindGrantFreeOperation = "grantFreeOperation"
	KindSetEligibility     = "setEligibilityOverride"
	KindGotoPhaseExact     = "gotoPhaseExact"
	KindAdvancePhase       = "advancePhase"
	KindPushInterruptPhase = "pushInterruptPhase"
	KindPopInterruptPhase  = "popInterruptPhase"
)

// VarTarget names a variable cell. A nil Player selects the global variable.
type VarTarget struct {
	Var    string     `json:"var"`
	Player *PlayerSel `json:"player,omitempty"`
}

// ---- variable family ----

type SetVar struct {
	VarTarget
	Value Expr `json:"value"`
}

type AddVar struct {
	VarTarget
	Delta Expr `json:"delta"`
}

// TransferVar moves an amount between two int cells. The realized amount is
// exposed to later siblings through ActualBind.
type TransferVar struct {
	From       VarTarget `json:"from"`
	To         VarTarget `json:"to"`
	Amount     Expr      `json:"amount"`
	Min        *Expr     `json:"min,omitempty"`
	Max        *Expr     `json:"max,omitempty"`
	ActualBind string    `json:"actual_bind,omitempty"`
}

// ---- token and zone family ----

// Token positions.
const (
	PositionTop    = "top"
	PositionBottom = "bottom"
)

type MoveToken struct {
	Token    Expr    `json:"token"`
	From     ZoneSel `json:"from,omitempty"`
	To       ZoneSel `json:"to"`
	Position string  `json:"position,omitempty"`
}

type MoveAll struct {
	From   ZoneSel      `json:"from"`
	To     ZoneSel      `json:"to"`
	Filter []PropFilter `json:"filter,omitempty"`
}

// MoveTokenAdjacent moves a token to a zone that must be adjacent to the
// token's current zone.
type MoveTokenAdjacent struct {
	Token Expr    `json:"token"`
	To    ZoneSel `json:"to"`
}

// Draw moves up to Count tokens from the top of From to the top of To.
type Draw struct {
	From  ZoneSel `json:"from"`
	To    ZoneSel `json:"to"`
	Count Expr    `json:"count"`
}

// Reveal makes a zone visible to one player, or to everyone when To is nil.
type Reveal struct {
	Zone ZoneSel    `json:"zone"`
	To   *PlayerSel `json:"to,omitempty"`
}

type Shuffle struct {
	Zone ZoneSel `json:"zone"`
}

type CreateToken struct {
	Type  string          `json:"type"`
	Zone  ZoneSel         `json:"zone"`
	Props map[string]Expr `json:"props,omitempty"`
	Bind  string          `json:"bind,omitempty"`
}

type DestroyToken struct {
	Token Expr `json:"token"`
}

type SetTokenProp struct {
	Token Expr   `json:"token"`
	Prop  string `json:"prop"`
	Value Expr   `json:"value"`
}

// ---- marker family ----

type SetMarker struct {
	Space  ZoneSel `json:"space"`
	Marker string  `json:"marker"`
	State  Expr    `json:"state"`
}

type ShiftMarker struct {
	Space  ZoneSel `json:"space"`
	Marker string  `json:"marker"`
	Delta  Expr    `json:"delta"`
}

type SetGlobalMarker struct {
	Marker string `json:"marker"`
	State  Expr   `json:"state"`
}

// FlipGlobalMarker toggles a global marker between two states.
type FlipGlobalMarker struct {
	Marker string `json:"marker"`
	StateA string `json:"state_a"`
	StateB string `json:"state_b"`
}

type ShiftGlobalMarker struct {
	Marker string `json:"marker"`
	Delta  Expr   `json:"delta"`
}

// ---- control flow ----

type If struct {
	When Cond       `json:"when"`
	Then EffectList `json:"then"`
	Else EffectList `json:"else,omitempty"`
}

// ForEach runs Effects once per item of Over. Iteration stops after Limit
// items (default DefaultForEachLimit). The number of iterations is bound to
// CountBind for the In continuation.
type ForEach struct {
	Bind      string     `json:"bind"`
	Over      Query      `json:"over"`
	Effects   EffectList `json:"effects"`
	Limit     *Expr      `json:"limit,omitempty"`
	CountBind string     `json:"count_bind,omitempty"`
	In        EffectList `json:"in,omitempty"`
}

// DefaultForEachLimit caps forEach iterations when no limit is given.
const DefaultForEachLimit = 100

// Reduce folds Next over the items of Over starting from Initial.
type Reduce struct {
	ItemBind   string     `json:"item_bind"`
	AccBind    string     `json:"acc_bind"`
	Over       Query      `json:"over"`
	Initial    Expr       `json:"initial"`
	Next       Expr       `json:"next"`
	ResultBind string     `json:"result_bind"`
	In         EffectList `json:"in,omitempty"`
}

type Let struct {
	Bind  string     `json:"bind"`
	Value Expr       `json:"value"`
	In    EffectList `json:"in"`
}

// BindValue binds a value for later siblings in the same list.
type BindValue struct {
	Bind  string `json:"bind"`
	Value Expr   `json:"value"`
}

// EvaluateSubset searches every SubsetSize-combination of Source for the
// candidate maximising Score after running Compute in a sandbox.
type EvaluateSubset struct {
	Source         Query      `json:"source"`
	SubsetSize     Expr       `json:"subset_size"`
	SubsetBind     string     `json:"subset_bind"`
	Compute        EffectList `json:"compute,omitempty"`
	Score          Expr       `json:"score"`
	ResultBind     string     `json:"result_bind"`
	BestSubsetBind string     `json:"best_subset_bind,omitempty"`
	In             EffectList `json:"in,omitempty"`
}

// PriorityGroup is one tier of a removeByPriority allocation.
type PriorityGroup struct {
	Bind      string     `json:"bind"`
	Over      Query      `json:"over"`
	Effects   EffectList `json:"effects,omitempty"`
	CountBind string     `json:"count_bind,omitempty"`
}

// RemoveByPriority spends Budget across Groups in order, running each
// group's Effects once per selected item.
type RemoveByPriority struct {
	Budget        Expr            `json:"budget"`
	Groups        []PriorityGroup `json:"groups"`
	RemainingBind string          `json:"remaining_bind,omitempty"`
	In            EffectList      `json:"in,omitempty"`
}

// RollRandom draws a uniform integer in [Min, Max] and binds it for In.
type RollRandom struct {
	Bind string     `json:"bind"`
	Min  Expr       `json:"min"`
	Max  Expr       `json:"max"`
	In   EffectList `json:"in"`
}

// ---- decisions ----

// ChooseOne reads a pre-supplied move parameter. Bind may be a template
// such as "$target@{$space}".
type ChooseOne struct {
	ID      string `json:"id"`
	Bind    string `json:"bind"`
	Options Query  `json:"options"`
}

// ChooseN reads a pre-supplied list parameter. Either N or Min/Max bound
// its cardinality.
type ChooseN struct {
	ID      string `json:"id"`
	Bind    string `json:"bind"`
	Options Query  `json:"options"`
	N       *Expr  `json:"n,omitempty"`
	Min     *Expr  `json:"min,omitempty"`
	Max     *Expr  `json:"max,omitempty"`
}

// ---- turn flow ----

// GrantSequence orders grants within a chain.
type GrantSequence struct {
	Chain string `json:"chain"`
	Step  Expr   `json:"step"`
}

// GrantFreeOperation queues a free-operation grant for a seat.
type GrantFreeOperation struct {
	ID             string         `json:"id,omitempty"`
	Seat           string         `json:"seat"`
	ExecuteAsSeat  string         `json:"execute_as_seat,omitempty"`
	OperationClass string         `json:"operation_class"`
	ActionIDs      []string       `json:"action_ids,omitempty"`
	ZoneFilter     []string       `json:"zone_filter,omitempty"`
	Uses           *Expr          `json:"uses,omitempty"`
	Sequence       *GrantSequence `json:"sequence,omitempty"`
}

// SetEligibilityOverride queues an eligibility override applied at card end.
type SetEligibilityOverride struct {
	Seat     string `json:"seat"`
	Eligible bool   `json:"eligible"`
	Window   string `json:"window"`
}

type GotoPhaseExact struct {
	Phase string `json:"phase"`
}

type AdvancePhase struct{}

type PushInterruptPhase struct {
	Phase       string `json:"phase"`
	ResumePhase string `json:"resume_phase"`
}

type PopInterruptPhase struct{}

func (SetVar) Kind() string                 { return KindSetVar }
func (AddVar) Kind() string                 { return KindAddVar }
func (TransferVar) Kind() string            { return KindTransferVar }
func (MoveToken) Kind() string              { return KindMoveToken }
func (MoveAll) Kind() string                { return KindMoveAll }
func (MoveTokenAdjacent) Kind() string      { return KindMoveTokenAdjacent }
func (Draw) Kind() string                   { return KindDraw }
func (Reveal) Kind() string                 { return KindReveal }
func (Shuffle) Kind() string                { return KindShuffle }
func (CreateToken) Kind() string            { return KindCreateToken }
func (DestroyToken) Kind() string           { return KindDestroyToken }
func (SetTokenProp) Kind() string           { return KindSetTokenProp }
func (SetMarker) Kind() string              { return KindSetMarker }
func (ShiftMarker) Kind() string            { return KindShiftMarker }
func (SetGlobalMarker) Kind() string        { return KindSetGlobalMarker }
func (FlipGlobalMarker) Kind() string       { return KindFlipGlobalMarker }
func (ShiftGlobalMarker) Kind() string      { return KindShiftGlobalMarker }
func (If) Kind() string                     { return KindIf }
func (ForEach) Kind() string                { return KindForEach }
func (Reduce) Kind() string                 { return KindReduce }
func (Let) Kind() string                    { return KindLet }
func (BindValue) Kind() string              { return KindBindValue }
func (EvaluateSubset) Kind() string         { return KindEvaluateSubset }
func (RemoveByPriority) Kind() string       { return KindRemoveByPriority }
func (RollRandom) Kind() string             { return KindRollRandom }
func (ChooseOne) Kind() string              { return KindChooseOne }
func (ChooseN) Kind() string                { return KindChooseN }
func (GrantFreeOperation) Kind() string     { return KindGrantFreeOperation }
func (SetEligibilityOverride) Kind() string { return KindSetEligibility }
func (GotoPhaseExact) Kind() string         { return KindGotoPhaseExact }
func (AdvancePhase) Kind() string           { return KindAdvancePhase }
func (PushInterruptPhase) Kind() string     { return KindPushInterruptPhase }
func (PopInterruptPhase) Kind() string      { return KindPopInterruptPhase }
