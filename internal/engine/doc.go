// Package engine executes games described by an ir.GameDef.
//
// The engine is a pure function of its inputs: InitialState builds the
// opening state from a definition, a seed and a player count; ApplyMove
// takes a state and a move and returns the next state together with a
// trace of everything that changed. Nothing is shared between calls.
//
// ARCHITECTURE:
//
// One Traversal, Two Modes:
// Effects, conditions, values and queries are evaluated by a single
// executor. In commit mode every decision reads its value from the move's
// parameters. In discover mode the first unresolved decision stops the walk
// and is reported as pending. LegalChoices and LegalMoves use discover mode,
// ApplyMove uses commit mode, so both see identical option domains.
//
// Move Application Flow:
//  1. Admission: actor, phase, usage limits, free-operation grant
//  2. Declared parameters, precondition, operation profile or plain effects
//  3. actionResolved triggers
//  4. Turn-order bookkeeping (simultaneous submission, card-driven flow)
//  5. Auto-advance past phases with no legal move
//  6. Terminal check
//
// Snapshots:
// GameState is copy-on-write. A failing effect returns an error and no
// state; the input state is never modified.
//
// DETERMINISM:
//
// Randomness comes only from the PCG state carried in GameState. Map
// iteration never decides order: zones, keys and triggers are visited in
// sorted or declaration order. Phase transitions per move are bounded by a
// PhaseBudget and exhaustion skips the transition. An evaluateSubset search
// past MaxSubsetCombinations fails the move.
package engine
