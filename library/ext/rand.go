package ext

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"golang.org/x/exp/constraints"
)

// NewRand returns a generator seeded from the system entropy source.
// Each caller gets its own instance, so it is safe to use under a caller-held lock.
func NewRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

func IsHit(v int) bool {
	return rand.IntN(100) < v
}

func RandFloat[T constraints.Float](min T, max T) T {
	if max <= min {
		return min
	}
	return T(rand.Float64())*(max-min) + min
}

// RandInt returns a value in [min, max).
func RandInt[T constraints.Integer](min T, max T) T {
	if max <= min {
		return min
	}
	return T(rand.Int64N(int64(max-min))) + min
}
