package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// GoldenFixtureDir is where RunWithGolden keeps golden traces by default.
const GoldenFixtureDir = "testdata/golden"

// GoldenTrace encodes a run as canonical JSON: the initial digest, every
// move with its trace events and resulting digest, and the outcome.
// Two runs of the same scenario must encode to the same bytes.
func GoldenTrace(scenarioName string, result *Result) ([]byte, error) {
	moves := make(ir.List, len(result.Moves))
	for i, m := range result.Moves {
		obj, err := m.Object()
		if err != nil {
			return nil, err
		}
		moves[i] = obj
	}

	snapshot := ir.Object{
		"scenario": ir.Str(scenarioName),
		"initial":  ir.Str(result.InitialDigest),
		"moves":    moves,
		"final":    ir.Str(result.Digest),
	}
	if result.Outcome != nil {
		snapshot["outcome"] = outcomeObject(*result.Outcome)
	}
	return ir.MarshalCanonical(snapshot)
}

func outcomeObject(o engine.Outcome) ir.Object {
	out := ir.Object{
		"kind":     ir.Str(o.Kind),
		"terminal": ir.Int(o.Terminal),
	}
	if o.Winner != nil {
		out["winner"] = ir.Int(*o.Winner)
	}
	if len(o.Scores) > 0 {
		scores := make(ir.List, len(o.Scores))
		for i, s := range o.Scores {
			scores[i] = ir.Int(s)
		}
		out["scores"] = scores
	}
	return out
}

// RunWithGolden executes a scenario and compares its canonical trace against
// a golden file named after the scenario, in testdata/golden by default.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result, opts...); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	traceJSON, err := GoldenTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := newGoldie(t, opts)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

// UpdateGolden writes the result's trace as the golden file.
func UpdateGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	traceJSON, err := GoldenTrace(scenarioName, result)
	if err != nil {
		return err
	}
	return newGoldie(t, opts).Update(t, scenarioName, traceJSON)
}

func newGoldie(t *testing.T, opts []goldie.Option) *goldie.Goldie {
	all := append([]goldie.Option{
		goldie.WithFixtureDir(GoldenFixtureDir),
		goldie.WithNameSuffix(".golden"),
	}, opts...)
	return goldie.New(t, all...)
}
