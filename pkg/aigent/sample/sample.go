// Package sample draws uniform random samples without replacement.
package sample

import "math/rand/v2"

// DefaultSize is the number of example posts kept in a profile.
const DefaultSize = 10

// RandomElements returns min(n, len(items)) distinct elements of items in
// random order, using a partial Fisher–Yates shuffle over a copy. items is
// not modified. A nil rng uses the global source.
func RandomElements[T any](items []T, n int, rng *rand.Rand) []T {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return []T{}
	}

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	pool := make([]T, len(items))
	copy(pool, items)
	for i := 0; i < n; i++ {
		j := i + intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n]
}

// NewSource returns a generator seeded for reproducible samples.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
