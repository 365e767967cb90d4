// Package random owns the seeded sources every sampler of a run draws from.
package random

import (
	"math/rand/v2"
)

const (
	DefaultSeed = 42

	// Stream selectors keep the two PCG sequences apart for the same seed.
	streamGeneral = 0x9e3779b97f4a7c15
	streamDist    = 0xbf58476d1ce4e5b9
)

// Source holds a general purpose generator and a separate stream handed to
// distribution samplers. Reseed updates both in place, so every component
// holding the Source follows the new seed.
type Source struct {
	seed    int64
	general *rand.PCG
	dist    *rand.PCG
	rnd     *rand.Rand
}

func New(seed int64) *Source {
	s := &Source{
		general: rand.NewPCG(0, 0),
		dist:    rand.NewPCG(0, 0),
	}
	s.rnd = rand.New(s.general)
	s.Reseed(seed)

	return s
}

func (s *Source) Reseed(seed int64) {
	s.seed = seed
	s.general.Seed(uint64(seed), streamGeneral)
	s.dist.Seed(uint64(seed), streamDist)
}

func (s *Source) Seed() int64 {
	return s.seed
}

// Rand returns the general purpose generator.
func (s *Source) Rand() *rand.Rand {
	return s.rnd
}

// Dist returns the stream used by distribution samplers.
func (s *Source) Dist() rand.Source {
	return s.dist
}

// Shuffle permutes ids in place.
func (s *Source) Shuffle(ids []int) {
	s.rnd.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// Pick returns a random element of ids. ids must not be empty.
func (s *Source) Pick(ids []int) int {
	return ids[s.rnd.IntN(len(ids))]
}
