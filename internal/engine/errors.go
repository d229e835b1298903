package engine

import (
	"errors"
	"fmt"
	"strings"
)

// EffectRuntimeError reports an effect whose preconditions do not hold at
// evaluation time: an unknown variable, a value of the wrong shape, an
// out-of-range step, a backward phase transition, a turn-order mismatch.
//
// It is never recovered from inside the engine. The move that caused it
// produces no state.
type EffectRuntimeError struct {
	// Code identifies the error category.
	Code EffectErrorCode

	// Effect is the kind of the effect being applied, when known.
	Effect string

	// Field names the offending field of the effect or expression.
	Field string

	// Message is a human-readable description.
	Message string

	// Candidates lists acceptable values, when there is a closed set.
	Candidates []string
}

// EffectErrorCode categorizes effect runtime errors.
type EffectErrorCode string

const (
	ErrCodeUnknownVariable      EffectErrorCode = "UNKNOWN_VARIABLE"
	ErrCodeTypeMismatch         EffectErrorCode = "TYPE_MISMATCH"
	ErrCodeUnknownZone          EffectErrorCode = "UNKNOWN_ZONE"
	ErrCodeUnknownToken         EffectErrorCode = "UNKNOWN_TOKEN"
	ErrCodeUnknownTokenType     EffectErrorCode = "UNKNOWN_TOKEN_TYPE"
	ErrCodeUnknownProp          EffectErrorCode = "UNKNOWN_PROP"
	ErrCodeUnknownMarker        EffectErrorCode = "UNKNOWN_MARKER"
	ErrCodeInvalidMarkerState   EffectErrorCode = "INVALID_MARKER_STATE"
	ErrCodeUnknownPlayer        EffectErrorCode = "UNKNOWN_PLAYER"
	ErrCodeUnboundBinding       EffectErrorCode = "UNBOUND_BINDING"
	ErrCodeOutOfRange           EffectErrorCode = "OUT_OF_RANGE"
	ErrCodeDivisionByZero       EffectErrorCode = "DIVISION_BY_ZERO"
	ErrCodeNotAdjacent          EffectErrorCode = "NOT_ADJACENT"
	ErrCodeTokenNotInZone       EffectErrorCode = "TOKEN_NOT_IN_ZONE"
	ErrCodeUnknownPhase         EffectErrorCode = "UNKNOWN_PHASE"
	ErrCodePhaseBackward        EffectErrorCode = "PHASE_BACKWARD"
	ErrCodePhaseUnresolved      EffectErrorCode = "PHASE_INDEX_UNRESOLVED"
	ErrCodeInterruptStackEmpty  EffectErrorCode = "INTERRUPT_STACK_EMPTY"
	ErrCodeTurnOrderMismatch    EffectErrorCode = "TURN_ORDER_MISMATCH"
	ErrCodeInvalidGrant         EffectErrorCode = "INVALID_GRANT"
	ErrCodeUnknownWindow        EffectErrorCode = "UNKNOWN_WINDOW"
	ErrCodeSubsetCapExceeded    EffectErrorCode = "SUBSET_CAP_EXCEEDED"
	ErrCodeSubsetSizeOutOfRange EffectErrorCode = "SUBSET_SIZE_OUT_OF_RANGE"
	ErrCodeQueryCapExceeded     EffectErrorCode = "QUERY_CAP_EXCEEDED"
	ErrCodeDecisionInSandbox    EffectErrorCode = "DECISION_IN_SANDBOX"
	ErrCodeMissingDecision      EffectErrorCode = "MISSING_DECISION"
	ErrCodeInternal             EffectErrorCode = "INTERNAL"
)

// Error implements the error interface.
func (e *EffectRuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if e.Effect != "" {
		b.WriteString(e.Effect)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	} else if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " (candidates: %s)", strings.Join(e.Candidates, ", "))
	}
	return b.String()
}

func runtimeErr(code EffectErrorCode, field, format string, args ...any) *EffectRuntimeError {
	return &EffectRuntimeError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// withEffect stamps the effect kind onto an effect runtime error raised by
// an evaluator below it. Errors that already name an effect keep it.
func withEffect(err error, kind string) error {
	var re *EffectRuntimeError
	if errors.As(err, &re) && re.Effect == "" {
		re.Effect = kind
	}
	return err
}

// IsEffectRuntimeError returns true if err is or wraps an EffectRuntimeError.
func IsEffectRuntimeError(err error) bool {
	var re *EffectRuntimeError
	return errors.As(err, &re)
}

// IsSubsetCapError returns true if err reports an evaluateSubset search
// exceeding MaxSubsetCombinations.
func IsSubsetCapError(err error) bool {
	var re *EffectRuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeSubsetCapExceeded
	}
	return false
}

// DefinitionError reports a GameDef reference that does not resolve. The
// compiler should have caught it; the engine fails on first use.
type DefinitionError struct {
	Kind    string // action, zone, globalVar, playerVar, lattice, phase, ...
	Ref     string
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("definition error: %s %q: %s", e.Kind, e.Ref, e.Message)
	}
	return fmt.Sprintf("definition error: unknown %s %q", e.Kind, e.Ref)
}

// IsDefinitionError returns true if err is or wraps a DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// IllegalMoveError is returned by ApplyMove for a move that is not legal
// in the given state.
type IllegalMoveError struct {
	ActionID string
	Reason   string

	// Err is the decision failure behind the rejection, if any.
	Err error
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %q: %s", e.ActionID, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error {
	return e.Err
}

// IsIllegalMoveError returns true if err is or wraps an IllegalMoveError.
func IsIllegalMoveError(err error) bool {
	var ie *IllegalMoveError
	return errors.As(err, &ie)
}

// ChoiceValidationError reports a supplied decision value outside its
// legal domain or with the wrong cardinality. It is a caller bug, distinct
// from the Illegal choice outcome.
type ChoiceValidationError struct {
	DecisionID string
	Message    string
}

func (e *ChoiceValidationError) Error() string {
	return fmt.Sprintf("invalid value for decision %q: %s", e.DecisionID, e.Message)
}

// IsChoiceValidationError returns true if err is or wraps a ChoiceValidationError.
func IsChoiceValidationError(err error) bool {
	var ce *ChoiceValidationError
	return errors.As(err, &ce)
}

// pendingDecision unwinds a discovery walk at the first unresolved decision.
// It never escapes the package.
type pendingDecision struct {
	request Pending
}

func (p *pendingDecision) Error() string {
	return fmt.Sprintf("decision %q pending", p.request.DecisionID)
}
