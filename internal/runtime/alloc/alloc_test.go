package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocBumpsPointerAndTracksLiveCount(t *testing.T) {
	b := NewDefault(1024)
	p1, ok := b.Alloc(32)
	require.True(t, ok)
	require.Equal(t, int32(DefaultHeapStart), p1)

	p2, ok := b.Alloc(16)
	require.True(t, ok)
	require.Equal(t, p1+32, p2)
	require.Equal(t, 2, b.LiveCount())
}

func TestAllocFailsWhenCapacityExhausted(t *testing.T) {
	b := NewDefault(16)
	_, ok := b.Alloc(32)
	require.False(t, ok)
}

func TestFreeRequiresMatchingSize(t *testing.T) {
	b := NewDefault(1024)
	p, _ := b.Alloc(32)
	b.Free(p, 16) // size mismatch: no-op
	require.Equal(t, 1, b.LiveCount())
	b.Free(p, 32)
	require.Equal(t, 0, b.LiveCount())
}

func TestAllocateFillFreeLeavesZeroActiveAllocations(t *testing.T) {
	// §8 scenario S3.
	b := NewDefault(4096)
	buf, ok := b.Alloc(1024)
	require.True(t, ok)
	require.Equal(t, 1, b.LiveCount())
	b.Free(buf, 1024)
	require.Equal(t, 0, b.LiveCount())
}

func TestDebugTableRecordsTag(t *testing.T) {
	b := NewDefault(1024)
	p, ok := b.AllocTagged(8, "record:Point")
	require.True(t, ok)
	table := b.DebugTable()
	require.Len(t, table, 1)
	require.Equal(t, p, table[0].Ptr)
	require.Equal(t, "record:Point", table[0].Tag)
}

func TestReallocLeavesOriginalValidOnFailure(t *testing.T) {
	b := NewDefault(64)
	p, _ := b.Alloc(32)
	_, ok := b.Realloc(p, 32, 128) // exceeds capacity
	require.False(t, ok)
	require.Equal(t, 1, b.LiveCount(), "failed realloc must not free the original")
}
