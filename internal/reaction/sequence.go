// Package reaction implements the reaction game itself: the shared symbol
// sequence, the per-round session with its two cursors, and the two tasks
// that drive a round (presentation and input matching).
//
// The package has no transport or rendering dependencies. Displays are
// reached through small interfaces so the platform layer decides how a lit
// button looks.
package reaction

import "math/rand/v2"

// AlphabetSize is the number of distinct symbols (one per button).
const AlphabetSize = 4

// DefaultLength is the default number of symbols in a round.
const DefaultLength = 300

// sequenceStream selects the PCG stream. Both peers must use the same value.
const sequenceStream uint64 = 0x5245414354494f4e // "REACTION"

// Symbol is one element of the sequence, in [0, AlphabetSize).
type Symbol uint8

// Sequence is an immutable list of symbols shared by both peers.
type Sequence []Symbol

// Generate produces length symbols from seed.
//
// The generator is PCG-DXSM seeded with (seed, sequenceStream); each symbol is
// the top two bits of one 64-bit output. Any implementation of that algorithm
// yields the same sequence, which is what lets two peers agree on a round
// without transmitting it.
func Generate(seed uint32, length int) Sequence {
	if length <= 0 {
		return Sequence{}
	}

	src := rand.NewPCG(uint64(seed), sequenceStream)
	seq := make(Sequence, length)
	for i := range seq {
		seq[i] = Symbol(src.Uint64() >> 62)
	}
	return seq
}

// Equal reports whether two sequences hold the same symbols.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the sequence as digits, e.g. "0312".
func (s Sequence) String() string {
	b := make([]byte, len(s))
	for i, sym := range s {
		b[i] = '0' + byte(sym)
	}
	return string(b)
}
