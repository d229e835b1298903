// Package store provides SQLite-backed durable storage for match logs.
//
// A match log is append-only:
//   - Matches: the definition digest, seed and player count a match started with
//   - Moves: every committed move with the digest of the state it produced
//   - Snapshots: canonical states at seq 0 and every few moves after
//   - Outcomes: how the match ended, once it has
//
// # Ordering
//
// All ordering uses the seq INTEGER (the move's position in its match),
// NEVER timestamps. Reads use ORDER BY seq ASC so two replays of the same
// database see the same sequence.
//
// # Replay
//
// A stored match can always be rebuilt from its definition, seed and move
// list. ReplayMatch does exactly that and compares every resulting state
// digest with the stored one; ResumeMatch starts from the latest snapshot
// instead of the beginning.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Move ids and state digests are computed via internal/ir/hash.go using
// RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
