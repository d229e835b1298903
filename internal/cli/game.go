package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/ludeme/internal/compiler"
	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// game is a validated definition and the digest of its source.
type game struct {
	Path string
	Def  *ir.GameDef
	Hash string
}

// loadGame loads and validates a definition. Failures are reported through
// f and returned as an ExitError.
func loadGame(f *OutputFormatter, path string) (*game, error) {
	def, err := compiler.LoadValid(path)
	if err != nil {
		return nil, gameFailure(f, err)
	}
	hash, err := compiler.SourceDigest(path)
	if err != nil {
		return nil, gameFailure(f, err)
	}
	f.VerboseLog("Loaded %s (%s) from %s", def.ID, hash, path)
	return &game{Path: path, Def: def, Hash: hash}, nil
}

func gameFailure(f *OutputFormatter, err error) error {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}
	var invalid compiler.ValidationErrors
	if errors.As(err, &invalid) {
		return f.Fail(ExitFailure, compiler.ErrCodeInvalid,
			fmt.Sprintf("definition failed validation with %d error(s)", len(invalid)), err)
	}
	return f.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
}

// readState decodes a serialized game state from a file, or from stdin
// when path is "-".
func readState(f *OutputFormatter, path string, stdin io.Reader) (*engine.GameState, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to read state %s", path), err)
	}
	st, err := engine.DeserializeGameState(data)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("invalid state %s", path), err)
	}
	return st, nil
}

// parseMove decodes a move given inline as JSON, or read from a file
// when the argument starts with "@".
func parseMove(f *OutputFormatter, arg string) (engine.Move, error) {
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return engine.Move{}, f.Fail(ExitCommandError, ErrCodeMove, fmt.Sprintf("failed to read move %s", path), err)
		}
	}
	move, err := engine.ParseMove(data)
	if err != nil {
		return engine.Move{}, f.Fail(ExitCommandError, ErrCodeMove, "invalid move", err)
	}
	return move, nil
}

// moveFailure classifies an ApplyMove error.
func moveFailure(f *OutputFormatter, move engine.Move, err error) error {
	switch {
	case engine.IsIllegalMoveError(err):
		return f.Fail(ExitFailure, ErrCodeIllegalMove, fmt.Sprintf("move %s rejected", move.ActionID), err)
	case engine.IsEffectRuntimeError(err), engine.IsDefinitionError(err):
		return f.Fail(ExitFailure, ErrCodeRuntime, fmt.Sprintf("move %s failed", move.ActionID), err)
	default:
		return f.Fail(ExitCommandError, compiler.ErrCodeGeneric, fmt.Sprintf("move %s failed", move.ActionID), err)
	}
}

// writeOutput writes data to path, or returns false when path is empty.
func writeOutput(path string, data []byte) (bool, error) {
	if path == "" {
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
