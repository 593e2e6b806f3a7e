package clockrand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonotonicNanosNeverDecreases(t *testing.T) {
	// §8 invariant 8.
	c := NewClock()
	first := c.MonotonicNanos()
	second := c.MonotonicNanos()
	require.GreaterOrEqual(t, second, first)
}

func TestDeterministicClockAdvancesOnlyViaSleep(t *testing.T) {
	c := NewDeterministicClock()
	require.Equal(t, int64(0), c.NowUnixMilli())
	c.Sleep(5 * time.Second)
	require.Equal(t, int64(5000), c.NowUnixMilli())
}

func TestSeededRandomIsReproducible(t *testing.T) {
	r1 := NewSeededRandom(42)
	r2 := NewSeededRandom(42)
	for i := 0; i < 8; i++ {
		require.Equal(t, r1.Float64(), r2.Float64())
	}
}

func TestRandomBytesRespectsRequestedLength(t *testing.T) {
	r := NewSeededRandom(1)
	b := r.Bytes(32)
	require.Len(t, b, 32)
	require.Nil(t, r.Bytes(0))
	require.Nil(t, r.Bytes(-1))
}

func TestLoadSeedParsesEnvVar(t *testing.T) {
	t.Setenv(SeedEnvVar, "123")
	seed, ok := LoadSeed()
	require.True(t, ok)
	require.Equal(t, int64(123), seed)

	t.Setenv(SeedEnvVar, "")
	_, ok = LoadSeed()
	require.False(t, ok)
}
