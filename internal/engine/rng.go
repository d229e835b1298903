package engine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// RNG algorithm identity recorded in every state.
const (
	RNGAlgorithm = "pcg"
	RNGVersion   = 1
)

// RNGState is the complete state of the game's random stream: a PCG
// generator's two 64-bit words. It is a plain value so snapshots, sandboxes
// and serialized states all carry their own copy.
type RNGState struct {
	Alg     string
	Version int
	Words   [2]uint64
}

// NewRNG seeds a stream from a game seed.
func NewRNG(seed int64) RNGState {
	return RNGState{
		Alg:     RNGAlgorithm,
		Version: RNGVersion,
		Words:   [2]uint64{uint64(seed), uint64(seed) ^ 0x9e3779b97f4a7c15},
	}
}

func (r RNGState) source() *rand.PCG {
	return rand.NewPCG(r.Words[0], r.Words[1])
}

func capture(p *rand.PCG) RNGState {
	data, err := p.MarshalBinary()
	if err != nil || len(data) != 20 {
		panic(fmt.Sprintf("pcg state encoding changed: %v", err))
	}
	return RNGState{
		Alg:     RNGAlgorithm,
		Version: RNGVersion,
		Words:   [2]uint64{binary.BigEndian.Uint64(data[4:12]), binary.BigEndian.Uint64(data[12:20])},
	}
}

// Roll draws a uniform integer in [lo, hi] and returns the advanced stream.
func (r RNGState) Roll(lo, hi int64) (int64, RNGState, error) {
	if lo > hi {
		return 0, r, fmt.Errorf("empty range [%d, %d]", lo, hi)
	}
	span := uint64(hi - lo)
	if span == ^uint64(0) {
		return 0, r, fmt.Errorf("range [%d, %d] too wide", lo, hi)
	}
	src := r.source()
	n := rand.New(src).Uint64N(span + 1)
	return lo + int64(n), capture(src), nil
}

// Permute returns a shuffled permutation of 0..n-1 and the advanced stream.
func (r RNGState) Permute(n int) ([]int, RNGState) {
	src := r.source()
	perm := rand.New(src).Perm(n)
	return perm, capture(src)
}

type rngJSON struct {
	Alg     string    `json:"alg"`
	Version int       `json:"version"`
	Words   [2]string `json:"words"`
}

// MarshalJSON writes the words as decimal strings; they exceed int64.
func (r RNGState) MarshalJSON() ([]byte, error) {
	return json.Marshal(rngJSON{
		Alg:     r.Alg,
		Version: r.Version,
		Words:   [2]string{strconv.FormatUint(r.Words[0], 10), strconv.FormatUint(r.Words[1], 10)},
	})
}

// UnmarshalJSON restores a stream written by MarshalJSON.
func (r *RNGState) UnmarshalJSON(data []byte) error {
	var raw rngJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Alg != RNGAlgorithm || raw.Version != RNGVersion {
		return fmt.Errorf("unsupported rng %s v%d", raw.Alg, raw.Version)
	}
	for i, w := range raw.Words {
		n, err := strconv.ParseUint(w, 10, 64)
		if err != nil {
			return fmt.Errorf("rng word %d: %w", i, err)
		}
		r.Words[i] = n
	}
	r.Alg, r.Version = raw.Alg, raw.Version
	return nil
}
