package duel

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrEmptySeedRange is returned when a seed range holds no values.
var ErrEmptySeedRange = errors.New("duel: empty seed range")

// SeedRange bounds locally generated seeds to [Min, Max).
type SeedRange struct {
	Min uint32
	Max uint32
}

// DefaultSeedRange returns the standard [10000, 100000) range.
func DefaultSeedRange() SeedRange {
	return SeedRange{Min: 10_000, Max: 100_000}
}

// NewSeed draws a seed from the range using crypto/rand.
func (r SeedRange) NewSeed() (uint32, error) {
	if r.Max <= r.Min {
		return 0, ErrEmptySeedRange
	}

	var b [4]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return r.Min + binary.LittleEndian.Uint32(b[:])%(r.Max-r.Min), nil
}

// SharedSeed combines both peers' seeds. Addition wraps and is
// commutative, so both peers derive the same value.
func SharedSeed(local, remote uint32) uint32 {
	return local + remote
}

// SeedExchange tracks the local seed and the first seed received from the peer.
type SeedExchange struct {
	local  uint32
	remote uint32
	have   bool
}

// NewSeedExchange creates an exchange around a locally generated seed.
func NewSeedExchange(local uint32) *SeedExchange {
	return &SeedExchange{local: local}
}

// Message returns the message announcing the local seed.
func (x *SeedExchange) Message() SeedMessage {
	return SeedMessage{Seed: x.local}
}

// Local returns the local seed.
func (x *SeedExchange) Local() uint32 {
	return x.local
}

// Receive records the peer's seed. Only the first seed counts; first
// reports whether this call completed the exchange.
func (x *SeedExchange) Receive(msg SeedMessage) (shared uint32, first bool) {
	if x.have {
		return SharedSeed(x.local, x.remote), false
	}
	x.remote = msg.Seed
	x.have = true
	return SharedSeed(x.local, x.remote), true
}

// Shared returns the shared seed once the peer's seed is known.
func (x *SeedExchange) Shared() (uint32, bool) {
	if !x.have {
		return 0, false
	}
	return SharedSeed(x.local, x.remote), true
}
