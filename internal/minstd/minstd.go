// Package minstd implements the minimal standard linear congruential
// generator (Park-Miller with multiplier 48271, modulus 2^31-1). The selector
// case generator depends on its exact sequence so that generated conformance
// cases are reproducible across suite versions and platforms.
package minstd

const (
	multiplier = 48271
	modulus    = 2147483647 // 2^31 - 1
)

// Min and Max bound the values produced by Next.
const (
	Min = 1
	Max = modulus - 1
)

// Range is the span of producible values, used for probability thresholds.
const Range = Max - Min

// Rand is a minstd generator. The zero value is invalid; use New.
type Rand struct {
	state uint64
}

// New returns a generator seeded with seed. Seeds that are congruent to 0
// mod 2^31-1 would lock the generator at zero, so they are mapped to 1.
func New(seed uint32) *Rand {
	s := uint64(seed) % modulus
	if s == 0 {
		s = 1
	}
	return &Rand{state: s}
}

// Next advances the generator and returns a value in [Min, Max].
func (r *Rand) Next() uint32 {
	r.state = r.state * multiplier % modulus
	return uint32(r.state)
}

// Uintn returns a value in [0, n) by modulo reduction. The slight bias is
// acceptable here: case generation needs determinism, not uniformity.
func (r *Rand) Uintn(n uint32) uint32 {
	return r.Next() % n
}

// Discard advances the generator n steps.
func (r *Rand) Discard(n int) {
	for i := 0; i < n; i++ {
		r.Next()
	}
}
