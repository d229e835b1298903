package ir

// TurnFlowConfig configures a card-driven turn order.
type TurnFlowConfig struct {
	Cards CardLifecycle `json:"cards"`

	// Seats lists seat ids in order; seat i is played by player i.
	Seats []string `json:"seats"`

	// SeatClasses maps a seat to its faction class (pass rewards).
	SeatClasses map[string]string `json:"seat_classes,omitempty"`

	// ActionClasses maps an action id to its action class. Moves may also
	// carry an explicit class.
	ActionClasses map[string]string `json:"action_classes,omitempty"`

	// PassActions are the action ids that count as passing.
	PassActions []string `json:"pass_actions,omitempty"`

	// FreeOnlyActions are only ever offered through free-operation grants.
	FreeOnlyActions []string `json:"free_only_actions,omitempty"`

	OptionMatrix    []OptionMatrixRow  `json:"option_matrix,omitempty"`
	PassRewards     []PassReward       `json:"pass_rewards,omitempty"`
	OverrideWindows []OverrideWindow   `json:"override_windows,omitempty"`
	Monsoon         *MonsoonConfig     `json:"monsoon,omitempty"`
	Pivotal         *PivotalConfig     `json:"pivotal,omitempty"`
	Cancellation    []CancellationRule `json:"cancellation,omitempty"`
}

// CardLifecycle names the concrete zones cards move through.
type CardLifecycle struct {
	Deck      string `json:"deck"`
	Played    string `json:"played"`
	Lookahead string `json:"lookahead"`
	Discard   string `json:"discard"`
}

// OptionMatrixRow restricts the second eligible seat's action classes once
// the first eligible seat took an action of class First.
type OptionMatrixRow struct {
	First  string   `json:"first"`
	Second []string `json:"second"`
}

// PassReward adds Amount to a per-player variable of a seat of the given
// class whenever it passes.
type PassReward struct {
	SeatClass string `json:"seat_class"`
	Var       string `json:"var"`
	Amount    int64  `json:"amount"`
}

// Override window durations.
const (
	DurationNextTurn = "nextTurn"
	DurationRound    = "round"
)

// OverrideWindow declares an eligibility override window.
type OverrideWindow struct {
	ID       string `json:"id"`
	Duration string `json:"duration"`
}

// MonsoonConfig suppresses or caps actions while the lookahead card carries
// Flag. A move may bypass the restriction by setting OverrideParam to true.
type MonsoonConfig struct {
	Flag          string               `json:"flag"`
	Restrictions  []MonsoonRestriction `json:"restrictions,omitempty"`
	BlockPivotal  bool                 `json:"block_pivotal,omitempty"`
	OverrideParam string               `json:"override_param,omitempty"`
}

// MonsoonRestriction forbids an action outright, or when MaxParam is set,
// caps the size of that list parameter at Max.
type MonsoonRestriction struct {
	ActionID string `json:"action_id"`
	MaxParam string `json:"max_param,omitempty"`
	Max      int    `json:"max,omitempty"`
}

// PivotalConfig configures pivotal actions. Each pivotal action belongs to
// one seat; when several are admissible at once, only the contender earliest
// in Precedence survives.
type PivotalConfig struct {
	Actions               map[string]string `json:"actions"`
	Precedence            []string          `json:"precedence,omitempty"`
	AllowAfterFirstAction bool              `json:"allow_after_first_action,omitempty"`
}

// CancellationRule removes every move matching Canceled while some move
// matches Winner.
type CancellationRule struct {
	Winner   MoveSelector `json:"winner"`
	Canceled MoveSelector `json:"canceled"`
}

// MoveSelector matches candidate moves. Empty fields match anything.
type MoveSelector struct {
	ActionID    string   `json:"action_id,omitempty"`
	ActionClass string   `json:"action_class,omitempty"`
	EventCardID string   `json:"event_card_id,omitempty"`
	EventTags   []string `json:"event_tags,omitempty"`
	Params      Object   `json:"params,omitempty"`
}

// CoupPlan diverts play into coup phases when a coup card is played.
type CoupPlan struct {
	Phases               []string `json:"phases"`
	MaxConsecutiveRounds int      `json:"max_consecutive_rounds"`
}

// Operation classes accepted by free-operation grants.
var OperationClasses = []string{"operation", "specialActivity", "event", "limitedOperation", "pivotal"}

// IsOperationClass reports whether class is a known operation class.
func IsOperationClass(class string) bool {
	for _, c := range OperationClasses {
		if c == class {
			return true
		}
	}
	return false
}
