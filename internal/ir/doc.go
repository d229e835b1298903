// Package ir defines the compiled game definition consumed by the engine:
// runtime values, the GameDef data model, and the closed effect, condition,
// value and query ASTs, together with their JSON decoding.
//
// This package imports nothing internal. Every other package builds on it.
//
// Key design constraints:
//   - NO float values anywhere - numbers are int64
//   - AST node kinds are closed; decoding rejects unknown kinds
//   - Canonical JSON (RFC 8785) is the only serialization used for digests
package ir
