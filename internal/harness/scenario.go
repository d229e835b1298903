package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted match and what must hold after it.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Game is the path of the definition (.json, .yaml, .cue or a CUE
	// directory). Relative paths are resolved against the scenario file.
	Game string `yaml:"game"`

	// Seed initializes the match RNG.
	Seed int64 `yaml:"seed"`

	// Players is the player count. Zero means the definition's minimum.
	Players int `yaml:"players,omitempty"`

	// Moves are applied in order.
	Moves []MoveStep `yaml:"moves"`

	// Expect is checked against the final state and the collected trace.
	Expect []Expectation `yaml:"expect"`
}

// MoveStep is one scripted move.
type MoveStep struct {
	Action        string         `yaml:"action"`
	Params        map[string]any `yaml:"params,omitempty"`
	FreeOperation bool           `yaml:"free_operation,omitempty"`
	ActionClass   string         `yaml:"action_class,omitempty"`
	Compound      *CompoundStep  `yaml:"compound,omitempty"`

	// ExpectError makes the step pass only when the move is rejected:
	// "illegal", "runtime", "definition", or an effect error code such as
	// "SUBSET_CAP_EXCEEDED". A rejected move leaves the state unchanged.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// CompoundStep attaches a special activity to an operation step.
type CompoundStep struct {
	SpecialActivity MoveStep `yaml:"special_activity"`
	Timing          string   `yaml:"timing"`
}

// Expectation validates the final state or the trace.
type Expectation struct {
	// Type is one of the Expect* constants.
	Type string `yaml:"type"`

	// Name is the variable name (var, playerVar).
	Name string `yaml:"name,omitempty"`

	// Player is the player index (playerVar, activePlayer).
	Player *int `yaml:"player,omitempty"`

	// Value is the expected variable value (var, playerVar).
	Value any `yaml:"value,omitempty"`

	// Zone is a concrete zone id such as "hand:0" (zoneCount).
	Zone string `yaml:"zone,omitempty"`

	// Count is the expected token count (zoneCount).
	Count *int `yaml:"count,omitempty"`

	// Phase is the expected current phase (phase).
	Phase string `yaml:"phase,omitempty"`

	// Kind is the trace event kind (traceContains) or outcome kind (outcome).
	Kind string `yaml:"kind,omitempty"`

	// Fields are matched as a subset of the event's fields (traceContains).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Move is the partial move handed to LegalChoices (choice).
	Move *MoveStep `yaml:"move,omitempty"`

	// Result is "pending", "complete" or "illegal" (choice). Defaults to
	// pending.
	Result string `yaml:"result,omitempty"`

	// Decision is the expected pending decision id (choice, optional).
	Decision string `yaml:"decision,omitempty"`

	// Options are the expected pending options, in order (choice, optional).
	Options []any `yaml:"options,omitempty"`

	// Winner is the expected winner (outcome, optional).
	Winner *int `yaml:"winner,omitempty"`
}

// Expectation type constants.
const (
	ExpectVar           = "var"
	ExpectPlayerVar     = "playerVar"
	ExpectZoneCount     = "zoneCount"
	ExpectPhase         = "phase"
	ExpectActivePlayer  = "activePlayer"
	ExpectTraceContains = "traceContains"
	ExpectChoice        = "choice"
	ExpectOutcome       = "outcome"
)

// Choice results.
const (
	ChoicePending  = "pending"
	ChoiceComplete = "complete"
	ChoiceIllegal  = "illegal"
)

// ScenarioNotFoundError is returned when a scenario references a game
// definition that doesn't exist.
type ScenarioNotFoundError struct {
	Scenario     string
	GamePath     string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario %q references game %q which does not exist (resolved to: %s)",
		e.Scenario,
		e.GamePath,
		e.ResolvedPath,
	)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the game path relative to the scenario BEFORE validation
	if scenario.Game != "" && !filepath.IsAbs(scenario.Game) {
		resolved := filepath.Join(filepath.Dir(path), scenario.Game)
		if _, err := os.Stat(resolved); os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{
				Scenario:     scenario.Name,
				GamePath:     scenario.Game,
				ResolvedPath: resolved,
			}
		}
		scenario.Game = resolved
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files (.yaml, .yml) under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find scenarios: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Game == "" {
		return fmt.Errorf("game is required")
	}

	if _, err := os.Stat(s.Game); os.IsNotExist(err) {
		return &ScenarioNotFoundError{Scenario: s.Name, GamePath: s.Game, ResolvedPath: s.Game}
	}

	if s.Players < 0 {
		return fmt.Errorf("players must be non-negative")
	}

	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}

	for i, step := range s.Moves {
		if err := validateStep(fmt.Sprintf("moves[%d]", i), step); err != nil {
			return err
		}
	}

	for i, exp := range s.Expect {
		if err := validateExpectation(i, &exp); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(path string, step MoveStep) error {
	if step.Action == "" {
		return fmt.Errorf("%s: action is required", path)
	}
	if step.Compound != nil {
		if step.Compound.Timing != "before" && step.Compound.Timing != "after" {
			return fmt.Errorf("%s.compound: timing must be before or after, got %q", path, step.Compound.Timing)
		}
		if err := validateStep(path+".compound.special_activity", step.Compound.SpecialActivity); err != nil {
			return err
		}
	}
	return nil
}

// validateExpectation validates a single expectation based on its type.
func validateExpectation(index int, e *Expectation) error {
	if e.Type == "" {
		return fmt.Errorf("expect[%d]: type is required", index)
	}

	switch e.Type {
	case ExpectVar:
		if e.Name == "" || e.Value == nil {
			return fmt.Errorf("expect[%d]: name and value are required for var", index)
		}
	case ExpectPlayerVar:
		if e.Name == "" || e.Value == nil || e.Player == nil {
			return fmt.Errorf("expect[%d]: name, player and value are required for playerVar", index)
		}
	case ExpectZoneCount:
		if e.Zone == "" || e.Count == nil {
			return fmt.Errorf("expect[%d]: zone and count are required for zoneCount", index)
		}
	case ExpectPhase:
		if e.Phase == "" {
			return fmt.Errorf("expect[%d]: phase is required for phase", index)
		}
	case ExpectActivePlayer:
		if e.Player == nil {
			return fmt.Errorf("expect[%d]: player is required for activePlayer", index)
		}
	case ExpectTraceContains:
		if e.Kind == "" {
			return fmt.Errorf("expect[%d]: kind is required for traceContains", index)
		}
	case ExpectChoice:
		if e.Move == nil || e.Move.Action == "" {
			return fmt.Errorf("expect[%d]: move.action is required for choice", index)
		}
		switch e.Result {
		case "", ChoicePending, ChoiceComplete, ChoiceIllegal:
		default:
			return fmt.Errorf("expect[%d]: unknown choice result %q", index, e.Result)
		}
	case ExpectOutcome:
		if e.Kind == "" {
			return fmt.Errorf("expect[%d]: kind is required for outcome", index)
		}
	default:
		return fmt.Errorf("expect[%d]: unknown expectation type %q", index, e.Type)
	}

	return nil
}
