package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// AssertionError is returned when an expectation fails.
// It includes the trace kinds to help debug the failure.
type AssertionError struct {
	Type     string   // Expectation type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Kinds    []string // Trace event kinds for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Kinds) > 0 {
		fmt.Fprintf(&buf, "\nTrace kinds: %s\n", strings.Join(e.Kinds, ", "))
	}

	return buf.String()
}

// EvaluateExpectations checks every expectation against a result and
// returns one message per failure, in declaration order. opts are the
// options the scenario was played with; choice expectations walk with them.
func EvaluateExpectations(def *ir.GameDef, result *Result, expectations []Expectation, opts ...engine.ApplyOption) []string {
	var errs []string
	for i, exp := range expectations {
		if err := evaluate(def, result, exp, opts); err != nil {
			errs = append(errs, fmt.Sprintf("expect[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(def *ir.GameDef, result *Result, e Expectation, opts []engine.ApplyOption) error {
	st := result.State
	if st == nil {
		return fmt.Errorf("no final state")
	}

	switch e.Type {
	case ExpectVar:
		got, ok := st.GlobalVars[e.Name]
		if !ok {
			return fail(result, e, fmt.Sprintf("%s = %v", e.Name, e.Value), "no such global variable")
		}
		return compareValue(result, e, e.Name, got)

	case ExpectPlayerVar:
		p := *e.Player
		if p < 0 || p >= len(st.PlayerVars) {
			return fail(result, e, fmt.Sprintf("player %d", p), fmt.Sprintf("%d players", len(st.PlayerVars)))
		}
		got, ok := st.PlayerVars[p][e.Name]
		if !ok {
			return fail(result, e, fmt.Sprintf("%s[%d] = %v", e.Name, p, e.Value), "no such per-player variable")
		}
		return compareValue(result, e, fmt.Sprintf("%s[%d]", e.Name, p), got)

	case ExpectZoneCount:
		tokens, ok := st.Zones[e.Zone]
		if !ok {
			return fail(result, e, fmt.Sprintf("zone %s", e.Zone), "no such zone")
		}
		if len(tokens) != *e.Count {
			return fail(result, e, fmt.Sprintf("%d tokens in %s", *e.Count, e.Zone), fmt.Sprintf("%d tokens", len(tokens)))
		}

	case ExpectPhase:
		if st.CurrentPhase != e.Phase {
			return fail(result, e, e.Phase, st.CurrentPhase)
		}

	case ExpectActivePlayer:
		if st.ActivePlayer != *e.Player {
			return fail(result, e, fmt.Sprintf("player %d", *e.Player), fmt.Sprintf("player %d", st.ActivePlayer))
		}

	case ExpectTraceContains:
		return assertTraceContains(result, e)

	case ExpectChoice:
		return assertChoice(def, result, e, opts)

	case ExpectOutcome:
		return assertOutcome(result, e)

	default:
		return fmt.Errorf("unknown expectation type %q", e.Type)
	}
	return nil
}

func compareValue(result *Result, e Expectation, name string, got ir.Value) error {
	want, err := ir.FromAny(e.Value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !ir.Equal(want, got) {
		return fail(result, e, fmt.Sprintf("%s = %s", name, show(want)), show(got))
	}
	return nil
}

// assertTraceContains checks that some event has the kind and carries every
// listed field with an equal value (subset match).
func assertTraceContains(result *Result, e Expectation) error {
	want := make(ir.Object, len(e.Fields))
	for k, raw := range e.Fields {
		v, err := ir.FromAny(raw)
		if err != nil {
			return fmt.Errorf("fields.%s: %w", k, err)
		}
		want[k] = v
	}

	for _, ev := range result.Events() {
		if ev.Kind == e.Kind && matchFields(ev.Fields, want) {
			return nil
		}
	}

	expected := e.Kind
	if len(want) > 0 {
		expected += " with " + show(want)
	}
	return fail(result, e, expected, "not found in trace")
}

func matchFields(actual, expected ir.Object) bool {
	for k, v := range expected {
		got, ok := actual[k]
		if !ok || !ir.Equal(got, v) {
			return false
		}
	}
	return true
}

// assertChoice asks LegalChoices about a partial move in the final state.
func assertChoice(def *ir.GameDef, result *Result, e Expectation, opts []engine.ApplyOption) error {
	partial, err := buildMove(*e.Move)
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	req, err := engine.LegalChoices(def, result.State, partial, opts...)
	if err != nil {
		return fail(result, e, "a choice request", err.Error())
	}

	want := e.Result
	if want == "" {
		want = ChoicePending
	}

	switch r := req.(type) {
	case engine.Complete:
		if want != ChoiceComplete {
			return fail(result, e, want, ChoiceComplete)
		}
	case engine.Illegal:
		if want != ChoiceIllegal {
			return fail(result, e, want, fmt.Sprintf("%s (%s)", ChoiceIllegal, r.Reason))
		}
	case engine.Pending:
		if want != ChoicePending {
			return fail(result, e, want, fmt.Sprintf("%s on %s", ChoicePending, r.DecisionID))
		}
		if e.Decision != "" && r.DecisionID != e.Decision {
			return fail(result, e, "decision "+e.Decision, "decision "+r.DecisionID)
		}
		if e.Options != nil {
			opts, err := ir.FromAny(e.Options)
			if err != nil {
				return fmt.Errorf("options: %w", err)
			}
			if !ir.Equal(opts, r.Options) {
				return fail(result, e, "options "+show(opts), "options "+show(r.Options))
			}
		}
	default:
		return fmt.Errorf("unexpected choice request %T", req)
	}
	return nil
}

func assertOutcome(result *Result, e Expectation) error {
	o := result.Outcome
	if o == nil {
		return fail(result, e, e.Kind, "game not over")
	}
	if o.Kind != e.Kind {
		return fail(result, e, e.Kind, o.Kind)
	}
	if e.Winner != nil && (o.Winner == nil || *o.Winner != *e.Winner) {
		got := "no winner"
		if o.Winner != nil {
			got = fmt.Sprintf("winner %d", *o.Winner)
		}
		return fail(result, e, fmt.Sprintf("winner %d", *e.Winner), got)
	}
	return nil
}

func fail(result *Result, e Expectation, expected, actual string) error {
	var kinds []string
	for _, ev := range result.Events() {
		kinds = append(kinds, ev.Kind)
	}
	return &AssertionError{
		Type:     e.Type,
		Expected: expected,
		Actual:   actual,
		Kinds:    slices.Compact(kinds),
	}
}

// show renders a value as canonical JSON for messages.
func show(v ir.Value) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
