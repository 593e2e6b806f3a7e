package host

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/hostabi"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(Config{HeapCapacity: 4096, Deterministic: true, Seed: 1, PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(rt.Release)
	return rt
}

func TestMessageRoundTrip(t *testing.T) {
	// §8 scenario S4.
	rt := newTestRuntime(t)
	a := rt.NewSpirit("A")
	b := rt.NewSpirit("B")

	mem := hostabi.Memory{Bytes: make([]byte, 4096)}
	copy(mem.Bytes[0:1], "B")
	copy(mem.Bytes[16:20], "ping")

	code := a.Host.Send(mem, 0, 1, 16, 4)
	require.Equal(t, int32(hostabi.Ok), code)

	n := b.Host.Recv(mem, 0, 100, 1024)
	require.Greater(t, n, int32(0))
	msg, ok := hostabi.DecodeMessage(mem.Bytes[100 : 100+n])
	require.True(t, ok)
	require.Equal(t, "A", msg.Sender)
	require.Equal(t, "ping", string(msg.Payload))
}

func TestBufferTooSmallThenRetrySucceeds(t *testing.T) {
	// §8 scenario S5.
	rt := newTestRuntime(t)
	a := rt.NewSpirit("A")
	b := rt.NewSpirit("B")

	mem := hostabi.Memory{Bytes: make([]byte, 4096)}
	copy(mem.Bytes[0:1], "B")
	copy(mem.Bytes[16:20], "ping")
	require.Equal(t, int32(hostabi.Ok), a.Host.Send(mem, 0, 1, 16, 4))

	n := b.Host.Recv(mem, 0, 100, 8)
	require.Equal(t, int32(-2), n)
	require.Equal(t, int32(1), b.Host.Pending())

	n = b.Host.Recv(mem, 0, 100, 1024)
	require.Greater(t, n, int32(0))
	require.Equal(t, int32(0), b.Host.Pending())
}

func TestAllocateFillFreeReportsZeroLiveAllocations(t *testing.T) {
	// §8 scenario S3.
	rt := newTestRuntime(t)
	a := rt.NewSpirit("A")
	mem := hostabi.Memory{Bytes: make([]byte, 1<<20)}

	ptr := a.Host.AllocMem(1024)
	require.NotEqual(t, int32(0), ptr)
	require.Equal(t, hostabi.Ok, a.Host.RandomBytes(mem, ptr, 32))
	a.Host.FreeMem(ptr, 1024)
	require.Equal(t, 0, a.LiveAllocations())
}

func TestGuestSubscriptionReceivesEffectAsMessage(t *testing.T) {
	rt := newTestRuntime(t)
	a := rt.NewSpirit("A")
	mem := hostabi.Memory{Bytes: make([]byte, 4096)}
	copy(mem.Bytes[0:4], "chat")

	subID := a.Host.Subscribe(mem, 0, 4)
	require.GreaterOrEqual(t, subID, int32(1))

	copy(mem.Bytes[100:], `{"effect_type":"chat","payload":{"text":"hi"}}`)
	code := rt.effects.Emit(mem.Bytes[100 : 100+len(`{"effect_type":"chat","payload":{"text":"hi"}}`)])
	require.Equal(t, hostabi.Ok, code)

	require.Equal(t, int32(1), a.Host.Pending())
	n := a.Host.Recv(mem, 0, 200, 1024)
	require.Greater(t, n, int32(0))
	msg, ok := hostabi.DecodeMessage(mem.Bytes[200 : 200+n])
	require.True(t, ok)
	require.Equal(t, hostabi.PayloadStructured, msg.PayloadType)
}

func TestMonotonicNowNeverDecreases(t *testing.T) {
	rt := newTestRuntime(t)
	a := rt.NewSpirit("A")
	first := a.Host.MonotonicNow()
	second := a.Host.MonotonicNow()
	require.GreaterOrEqual(t, second, first)
}
