package shock

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"
)

// seedFunc returns a seed from process entropy (override for deterministic tests).
var seedFunc = func() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// SetSeedFunc overrides the entropy seed provider (use only in tests).
func SetSeedFunc(f func() uint64) { seedFunc = f }

// splitmix64 scrambles an iteration index into a well-distributed stream id.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Priority returns a deterministic pseudo-random rank for iteration i under seed.
// Reservoir sampling uses it so that the retained sample does not depend on
// which worker processed an iteration.
func Priority(seed uint64, i int) uint64 {
	return splitmix64(seed ^ splitmix64(uint64(i)))
}
