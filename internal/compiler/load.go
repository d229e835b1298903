package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ludeme/internal/ir"
)

// Load error codes - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeFormat      = "E008" // Unsupported file extension
	ErrCodeDecode      = "E009" // Document does not decode into a game
	ErrCodeInvalid     = "E010" // Definition failed validation
)

// LoadError represents an error that occurred while loading a definition.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Line    int       // YAML line if available
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a game definition from a .json, .yaml, .yml or .cue file, or
// from a directory of CUE files. A CUE source may hold the definition at
// its root or under a top-level "game" field.
func Load(path string) (*ir.GameDef, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("game definition not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadValid loads a definition and rejects it unless Validate reports no
// errors.
func LoadValid(path string) (*ir.GameDef, error) {
	def, err := Load(path)
	if err != nil {
		return nil, err
	}
	if errs := Validate(def); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return def, nil
}

// LoadFile reads a single definition file, dispatching on its extension.
func LoadFile(path string) (*ir.GameDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decode(DecodeGame(data))
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		return compileRoot(v)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported definition format %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path))}
	}
}

// LoadDir builds the CUE package in dir and compiles its game.
func LoadDir(dir string) (*ir.GameDef, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return compileRoot(value)
}

// compileRoot compiles the "game" field when present, the root otherwise.
func compileRoot(v cue.Value) (*ir.GameDef, error) {
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	if game := v.LookupPath(cue.ParsePath("game")); game.Exists() {
		v = game
	}
	return decode(CompileGame(v))
}

// decodeYAML converts a YAML document to JSON and decodes it. Floats are
// rejected with their line before conversion.
func decodeYAML(data []byte) (*ir.GameDef, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if n := findFloat(&node); n != nil {
		return nil, &LoadError{
			Code:    ErrCodeDecode,
			Message: fmt.Sprintf("float value %s is forbidden - use int instead", n.Value),
			Line:    n.Line,
		}
	}
	var doc any
	if err := node.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("decoding YAML: %v", err)}
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("converting YAML to JSON: %v", err)}
	}
	return decode(DecodeGame(jsonData))
}

func findFloat(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!float" {
		return n
	}
	for _, c := range n.Content {
		if f := findFloat(c); f != nil {
			return f
		}
	}
	return nil
}

// decode converts compiler errors to load errors with position info.
func decode(def *ir.GameDef, err error) (*ir.GameDef, error) {
	if err == nil {
		return def, nil
	}
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return nil, &LoadError{
			Code:    ErrCodeDecode,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// SourceDigest returns the content address of the definition at path: the
// file bytes, or for a directory every CUE file name and content in walk
// order. Matches store it to refuse replay against an edited definition.
func SourceDigest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("game definition not found: %s", path)}
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		return ir.GameDefDigest(data), nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return "", &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	var doc bytes.Buffer
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", f, err)}
		}
		rel, _ := filepath.Rel(path, f)
		doc.WriteString(filepath.ToSlash(rel))
		doc.WriteByte(0)
		doc.Write(data)
		doc.WriteByte(0)
	}
	return ir.GameDefDigest(doc.Bytes()), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
