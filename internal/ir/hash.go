package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainState   = "ludeme/state/v1"
	DomainGameDef = "ludeme/gamedef/v1"
	DomainMove    = "ludeme/move/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest returns the content address of a canonical state snapshot.
// The input must already be canonical JSON (see engine.SerializeGameState).
func StateDigest(canonical []byte) string {
	return hashWithDomain(DomainState, canonical)
}

// GameDefDigest returns the content address of a raw GameDef document.
// Stored with every match so replay can refuse a changed definition.
func GameDefDigest(document []byte) string {
	return hashWithDomain(DomainGameDef, document)
}

// MoveDigest computes the content address of a move record at a position
// in a match log.
func MoveDigest(matchID string, seq int64, move Object) (string, error) {
	canonical, err := MarshalCanonical(Object{
		"match_id": Str(matchID),
		"seq":      Int(seq),
		"move":     move,
	})
	if err != nil {
		return "", fmt.Errorf("MoveDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMove, canonical), nil
}
