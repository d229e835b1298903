package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ludeme/internal/ir"
)

// CompileGame turns a CUE value holding a game definition into a GameDef.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must be concrete. It is exported to JSON and decoded with the
// same strict rules as a JSON document:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	def, err := CompileGame(v.LookupPath(cue.ParsePath("game")))
func CompileGame(v cue.Value) (*ir.GameDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	if err := rejectFloats(v); err != nil {
		return nil, err
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return DecodeGame(data)
}

// DecodeGame decodes a JSON game definition. Unknown fields are errors.
func DecodeGame(data []byte) (*ir.GameDef, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var def ir.GameDef
	if err := dec.Decode(&def); err != nil {
		return nil, &CompileError{Field: "game", Message: err.Error()}
	}
	if def.ID == "" {
		return nil, &CompileError{Field: "id", Message: "game id is required"}
	}
	return &def, nil
}

// rejectFloats walks a concrete value and fails on the first float.
// Floats are forbidden everywhere in a definition.
func rejectFloats(v cue.Value) error {
	switch v.Kind() {
	case cue.FloatKind:
		return &CompileError{
			Field:   v.Path().String(),
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			if err := rejectFloats(iter.Value()); err != nil {
				return err
			}
		}
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			if err := rejectFloats(iter.Value()); err != nil {
				return err
			}
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
