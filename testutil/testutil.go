// Package testutil provides deterministic random helpers for tests.
package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/listgo/core"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// PermutedIDs returns the ids 1..n in pseudo-random order.
func (r *RNG) PermutedIDs(n int) []core.ItemID {
	perm := r.Perm(n)
	ids := make([]core.ItemID, n)
	for i, p := range perm {
		ids[i] = core.ItemID(p + 1)
	}
	return ids
}

// SampleIDs returns k distinct ids drawn from 1..n in pseudo-random order.
func (r *RNG) SampleIDs(n, k int) []core.ItemID {
	if k > n {
		k = n
	}
	return r.PermutedIDs(n)[:k]
}
