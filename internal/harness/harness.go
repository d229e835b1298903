package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ludeme/internal/compiler"
	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/store"
	"github.com/roach88/ludeme/internal/testutil"
)

// Harness runs one scenario against one definition.
type Harness struct {
	def     *ir.GameDef
	defHash string
	store   *store.Store
	opts    []engine.ApplyOption
}

// Run loads the scenario's game, validates it and executes the scenario.
func Run(scenario *Scenario, opts ...engine.ApplyOption) (*Result, error) {
	def, defHash, err := loadGame(scenario)
	if err != nil {
		return nil, err
	}
	return RunDef(scenario, def, defHash, opts...)
}

func loadGame(scenario *Scenario) (*ir.GameDef, string, error) {
	def, err := compiler.LoadValid(scenario.Game)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load game: %w", err)
	}
	defHash, err := compiler.SourceDigest(scenario.Game)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load game: %w", err)
	}
	return def, defHash, nil
}

// RunDef executes a scenario against an already loaded definition.
//
// Each run uses a fresh in-memory match log with match ids named after the
// scenario. Execution flow:
//  1. Open the match (initial state, seq 0 snapshot)
//  2. Apply each move; rejected moves must match their expect_error
//  3. Replay the match log and compare the final digest
//  4. Evaluate expectations against the final state and trace
//
// Scripted moves that misbehave and failed expectations are reported in
// Result.Errors. The returned error is for infrastructure failures only.
func RunDef(scenario *Scenario, def *ir.GameDef, defHash string, opts ...engine.ApplyOption) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithMatchIDGenerator(testutil.NewSequentialMatchIDs(scenario.Name)),
		store.WithSnapshotInterval(1),
		store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{def: def, defHash: defHash, store: st, opts: opts}
	ctx := context.Background()

	result := NewResult()
	if err := h.play(ctx, scenario, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateExpectations(def, result, scenario.Expect, opts...) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) play(ctx context.Context, scenario *Scenario, result *Result) error {
	players := scenario.Players
	if players == 0 {
		players = h.def.Players.Min
	}

	m, state, err := h.store.OpenMatch(ctx, h.def, h.defHash, scenario.Seed, players)
	if err != nil {
		return fmt.Errorf("failed to open match: %w", err)
	}
	result.MatchID = m.ID
	result.InitialDigest, err = engine.StateDigest(state)
	if err != nil {
		return err
	}

	for i, step := range scenario.Moves {
		move, err := buildMove(step)
		if err != nil {
			result.AddError(fmt.Sprintf("moves[%d]: %v", i, err))
			break
		}

		applied, err := engine.ApplyMove(h.def, state, move, h.opts...)
		if step.ExpectError != "" {
			if err == nil {
				result.AddError(fmt.Sprintf("moves[%d]: expected a %s error, move %s was accepted", i, step.ExpectError, step.Action))
				break
			}
			if !errorMatches(err, step.ExpectError) {
				result.AddError(fmt.Sprintf("moves[%d]: expected a %s error, got: %v", i, step.ExpectError, err))
				break
			}
			result.Moves = append(result.Moves, MoveTrace{Step: i, Move: move, Rejected: err.Error()})
			continue
		}
		if err != nil {
			result.AddError(fmt.Sprintf("moves[%d]: %s rejected: %v", i, step.Action, err))
			break
		}

		rec, err := h.store.AppendMove(ctx, m.ID, move, applied.State)
		if err != nil {
			return fmt.Errorf("failed to record move %d: %w", i, err)
		}
		result.Moves = append(result.Moves, MoveTrace{
			Step:   i,
			Seq:    rec.Seq,
			Move:   move,
			Events: applied.Trace.Events,
			Digest: rec.StateDigest,
		})
		state = applied.State

		if applied.Outcome != nil {
			if err := h.store.RecordOutcome(ctx, m.ID, rec.Seq, *applied.Outcome, state); err != nil {
				return fmt.Errorf("failed to record outcome: %w", err)
			}
		}
	}

	result.State = state
	result.Digest, err = engine.StateDigest(state)
	if err != nil {
		return err
	}
	result.Outcome, err = engine.TerminalResult(h.def, state)
	if err != nil {
		return fmt.Errorf("failed to evaluate terminal conditions: %w", err)
	}

	replayed, err := h.store.ReplayMatch(ctx, h.def, h.defHash, m.ID, h.opts...)
	switch {
	case err != nil:
		result.AddError(fmt.Sprintf("replay: %v", err))
	case replayed.Digest != result.Digest:
		result.AddError(fmt.Sprintf("replay: final digest %s, played %s", replayed.Digest, result.Digest))
	}
	return nil
}

// buildMove converts a scripted step into an engine move.
func buildMove(step MoveStep) (engine.Move, error) {
	move := engine.Move{
		ActionID:      step.Action,
		FreeOperation: step.FreeOperation,
		ActionClass:   step.ActionClass,
	}
	if len(step.Params) > 0 {
		move.Params = make(ir.Object, len(step.Params))
		for name, raw := range step.Params {
			v, err := ir.FromAny(raw)
			if err != nil {
				return engine.Move{}, fmt.Errorf("param %s: %w", name, err)
			}
			move.Params[name] = v
		}
	}
	if step.Compound != nil {
		sa, err := buildMove(step.Compound.SpecialActivity)
		if err != nil {
			return engine.Move{}, fmt.Errorf("special activity: %w", err)
		}
		move.Compound = &engine.CompoundMove{SpecialActivity: sa, Timing: step.Compound.Timing}
	}
	return move, nil
}

// errorMatches reports whether err is of the scripted class, or an effect
// runtime error with the scripted code.
func errorMatches(err error, want string) bool {
	switch want {
	case "illegal":
		return engine.IsIllegalMoveError(err)
	case "runtime":
		return engine.IsEffectRuntimeError(err)
	case "definition":
		return engine.IsDefinitionError(err)
	}
	var re *engine.EffectRuntimeError
	return errors.As(err, &re) && string(re.Code) == want
}

// DeterminismError reports a run whose trace differs from the first run.
type DeterminismError struct {
	Scenario string
	Run      int
	Want     []byte
	Got      []byte
}

func (e *DeterminismError) Error() string {
	return fmt.Sprintf("scenario %q is not deterministic: run %d trace differs from run 1", e.Scenario, e.Run)
}

// CheckDeterminism runs a scenario runs times and requires every run to
// produce a byte-identical canonical trace and final state.
func CheckDeterminism(scenario *Scenario, runs int, opts ...engine.ApplyOption) error {
	def, defHash, err := loadGame(scenario)
	if err != nil {
		return err
	}

	var first []byte
	for run := 1; run <= runs; run++ {
		result, err := RunDef(scenario, def, defHash, opts...)
		if err != nil {
			return err
		}
		trace, err := GoldenTrace(scenario.Name, result)
		if err != nil {
			return err
		}
		if first == nil {
			first = trace
			continue
		}
		if !bytes.Equal(first, trace) {
			return &DeterminismError{Scenario: scenario.Name, Run: run, Want: first, Got: trace}
		}
	}
	return nil
}
