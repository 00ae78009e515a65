// Package randutil builds math/rand/v2 generators from a single int64 seed.
package randutil

import rand "math/rand/v2"

// New returns a PCG-backed *rand.Rand derived from seed. rand.NewPCG takes
// two 64-bit words, so the seed is expanded by chaining a splitmix64
// finalizer: the first word feeds the second. Equal seeds always yield equal
// sequences, which the shuffle and room-id paths rely on for reproducibility.
func New(seed int64) *rand.Rand {
	hi := splitmix(uint64(seed))
	lo := splitmix(hi)
	return rand.New(rand.NewPCG(hi, lo))
}

// splitmix is the splitmix64 output function, constants per the reference.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
