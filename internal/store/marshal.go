package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// marshalMove converts a move to canonical JSON TEXT for storage.
// Returns the move object too, for computing its digest.
func marshalMove(m engine.Move) (string, ir.Object, error) {
	obj, err := m.Object()
	if err != nil {
		return "", nil, fmt.Errorf("marshal move: %w", err)
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", nil, fmt.Errorf("marshal move: %w", err)
	}
	return string(data), obj, nil
}

// unmarshalMove parses a stored move.
func unmarshalMove(data string) (engine.Move, error) {
	m, err := engine.ParseMove([]byte(data))
	if err != nil {
		return engine.Move{}, fmt.Errorf("unmarshal move: %w", err)
	}
	return m, nil
}

// marshalState converts a state to canonical JSON TEXT and its digest.
func marshalState(st *engine.GameState) (string, string, error) {
	data, err := engine.SerializeGameState(st)
	if err != nil {
		return "", "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), ir.StateDigest(data), nil
}

// unmarshalState parses a stored state and checks it against its digest.
func unmarshalState(data, digest string) (*engine.GameState, error) {
	if got := ir.StateDigest([]byte(data)); got != digest {
		return nil, fmt.Errorf("unmarshal state: digest %s does not match stored %s", got, digest)
	}
	st, err := engine.DeserializeGameState([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}

// marshalOutcome converts an Outcome to JSON TEXT.
// Outcome is a struct (not an ir.Value), so it goes through json.Encoder
// with HTML escaping disabled; struct field order keeps output stable.
func marshalOutcome(o engine.Outcome) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o); err != nil {
		return "", fmt.Errorf("marshal outcome: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalOutcome parses JSON TEXT to an Outcome.
func unmarshalOutcome(data string) (engine.Outcome, error) {
	var o engine.Outcome
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return engine.Outcome{}, fmt.Errorf("unmarshal outcome: %w", err)
	}
	return o, nil
}
