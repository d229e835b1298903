package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/ludeme/internal/ir"
)

// SerializeGameState encodes a state as RFC 8785 canonical JSON. Equal
// states always encode to the same bytes, so the encoding can be hashed
// with ir.StateDigest.
func SerializeGameState(state *GameState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	v, err := ir.FromAny(dropNulls(raw))
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	return ir.MarshalCanonical(v)
}

// dropNulls removes null object members; an absent member decodes the same.
func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if item == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(item)
		}
	case []any:
		for i, item := range t {
			t[i] = dropNulls(item)
		}
	}
	return v
}

// DeserializeGameState decodes a state written by SerializeGameState.
func DeserializeGameState(data []byte) (*GameState, error) {
	var st GameState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("deserialize state: %w", err)
	}
	if st.Zones == nil {
		st.Zones = map[string][]Token{}
	}
	if st.GlobalVars == nil {
		st.GlobalVars = ir.Object{}
	}
	for i, row := range st.PlayerVars {
		if row == nil {
			st.PlayerVars[i] = ir.Object{}
		}
	}
	return &st, nil
}

// StateDigest returns the content digest of a state's canonical encoding.
func StateDigest(state *GameState) (string, error) {
	data, err := SerializeGameState(state)
	if err != nil {
		return "", err
	}
	return ir.StateDigest(data), nil
}
