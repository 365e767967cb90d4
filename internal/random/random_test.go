package random

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func draw(s *Source, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = s.Rand().Uint64()
	}

	return out
}

func TestReseed(t *testing.T) {
	s := New(7)
	first := draw(s, 16)

	s.Reseed(7)
	require.Equal(t, first, draw(s, 16))
	require.Equal(t, int64(7), s.Seed())

	s.Reseed(8)
	require.NotEqual(t, first, draw(s, 16))
}

func TestStreamsAreIndependent(t *testing.T) {
	s := New(DefaultSeed)
	general := s.Rand().Uint64()
	dist := s.Dist().Uint64()

	require.NotEqual(t, general, dist)
}

func TestShuffleDeterministic(t *testing.T) {
	ids := func() []int { return []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9} }

	a, b := ids(), ids()
	New(3).Shuffle(a)
	New(3).Shuffle(b)

	require.Equal(t, a, b)
	require.ElementsMatch(t, ids(), a)
}
