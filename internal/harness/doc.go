// Package harness runs scripted matches against a game definition and
// checks the result.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: nim_opening
//	description: "Taking two stones hands the turn over"
//	game: ../games/nim.json
//	seed: 42
//	players: 2
//	moves:
//	  - action: take
//	    params: { $n: 2 }
//	  - action: take
//	    params: { $n: 9 }
//	    expect_error: illegal
//	expect:
//	  - type: var
//	    name: left
//	    value: 5
//	  - type: activePlayer
//	    player: 1
//	  - type: traceContains
//	    kind: tokenMove
//	    fields: { to: "hand:0" }
//
// The game path is resolved relative to the scenario file.
//
// # Expectation Types
//
//   - var: a global variable holds value
//   - playerVar: a per-player variable of player holds value
//   - zoneCount: a concrete zone holds count tokens
//   - phase: the current phase
//   - activePlayer: the active player index
//   - traceContains: some trace event has kind and (subset) fields
//   - choice: LegalChoices for a partial move is pending with options, or
//     complete, or illegal
//   - outcome: the match ended with kind (and winner)
//
// # Deterministic Testing
//
// Every run records its moves in an in-memory match log with sequential
// match ids, then replays the log and compares state digests. The trace of
// a run encodes to canonical JSON, so repeated runs can be compared byte
// for byte (CheckDeterminism) or against a golden file (RunWithGolden).
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/nim_opening.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
