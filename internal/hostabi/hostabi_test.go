package hostabi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryReadStringRejectsOutOfBoundsAndInvalidUTF8(t *testing.T) {
	mem := Memory{Bytes: make([]byte, 16)}
	copy(mem.Bytes[0:5], "hello")
	s, ok := mem.ReadString(0, 5)
	require.True(t, ok)
	require.Equal(t, "hello", s)

	_, ok = mem.ReadString(10, 100)
	require.False(t, ok, "span extending past memory size must fail, not panic")

	mem.Bytes[6] = 0xFF
	mem.Bytes[7] = 0xFE
	_, ok = mem.ReadString(6, 2)
	require.False(t, ok, "invalid UTF-8 must be rejected, not silently decoded")
}

func TestMemoryWriteBytesRejectsOutOfBounds(t *testing.T) {
	mem := Memory{Bytes: make([]byte, 4)}
	require.True(t, mem.WriteBytes(0, []byte{1, 2, 3, 4}))
	require.False(t, mem.WriteBytes(2, []byte{1, 2, 3}), "write extending past capacity must fail")
}

func TestMessageEncodeDecodeRoundTrips(t *testing.T) {
	m := Message{Sender: "A", TimestampMs: 1234, PayloadType: PayloadText, Payload: []byte("ping")}
	wire, err := m.Encode()
	require.NoError(t, err)
	require.Equal(t, int(m.WireSize()), len(wire))

	decoded, ok := DecodeMessage(wire)
	require.True(t, ok)
	require.Equal(t, m, decoded)
}

func TestMessageEncodeRejectsOversizedSenderAndPayload(t *testing.T) {
	big := make([]byte, MaxSenderLen+1)
	_, err := Message{Sender: string(big)}.Encode()
	require.Error(t, err)

	_, err = Message{Payload: make([]byte, MaxPayloadLen+1)}.Encode()
	require.Error(t, err)
}

// fakeBroker and friends let primitives.go's Host methods be exercised
// without internal/runtime/broker, keeping this package's tests from
// depending on its sibling (broker depends on hostabi, not vice versa).
type fakeAlloc struct {
	nextPtr int32
}

func (a *fakeAlloc) Alloc(size int32) (int32, bool) {
	if size <= 0 {
		return 0, false
	}
	p := a.nextPtr
	a.nextPtr += size
	return p, true
}
func (a *fakeAlloc) Free(ptr, size int32)                    {}
func (a *fakeAlloc) Realloc(ptr, old, n int32) (int32, bool) { return a.Alloc(n) }

type fakeBroker struct {
	inbox []Message
}

func (b *fakeBroker) Send(sender, target string, msg Message) ResultCode {
	b.inbox = append(b.inbox, msg)
	return Ok
}
func (b *fakeBroker) Broadcast(sender string, msg Message) (ResultCode, int) {
	b.inbox = append(b.inbox, msg)
	return Ok, 1
}
func (b *fakeBroker) Peek(receiver string) (Message, bool) {
	if len(b.inbox) == 0 {
		return Message{}, false
	}
	return b.inbox[0], true
}
func (b *fakeBroker) Pop(receiver string) {
	if len(b.inbox) > 0 {
		b.inbox = b.inbox[1:]
	}
}
func (b *fakeBroker) Pending(receiver string) int32 { return int32(len(b.inbox)) }

type fakeClock struct{ t int64 }

func (c *fakeClock) NowUnixMilli() int64   { return c.t }
func (c *fakeClock) MonotonicNanos() int64 { c.t++; return c.t }
func (c *fakeClock) Sleep(d time.Duration) {}

type fakeRandom struct{}

func (fakeRandom) Float64() float64     { return 0.5 }
func (fakeRandom) Bytes(n int32) []byte { return make([]byte, n) }

func newTestHost() (*Host, *fakeBroker) {
	broker := &fakeBroker{}
	return &Host{
		SpiritID: "A",
		Alloc:    &fakeAlloc{nextPtr: 0x10000},
		Broker:   broker,
		Clock:    &fakeClock{t: 1000},
		Random:   fakeRandom{},
	}, broker
}

func TestSendThenRecvRoundTripsThroughGuestMemory(t *testing.T) {
	h, _ := newTestHost()
	mem := Memory{Bytes: make([]byte, 4096)}
	copy(mem.Bytes[0:1], "B")

	code := h.Send(mem, 0, 1, 0, 0)
	require.Equal(t, int32(Ok), code)

	n := h.Recv(mem, 0, 100, 1024)
	require.Greater(t, n, int32(0))
	msg, ok := DecodeMessage(mem.Bytes[100 : 100+n])
	require.True(t, ok)
	require.Equal(t, "A", msg.Sender)
}

func TestRecvReturnsBufferTooSmallWithoutDequeuing(t *testing.T) {
	h, broker := newTestHost()
	mem := Memory{Bytes: make([]byte, 4096)}
	broker.inbox = append(broker.inbox, Message{Sender: "A", Payload: []byte("ping")})

	n := h.Recv(mem, 0, 0, 4)
	require.Equal(t, int32(-2), n)
	require.Equal(t, int32(1), h.Pending())

	n = h.Recv(mem, 0, 0, 1024)
	require.Greater(t, n, int32(0))
	require.Equal(t, int32(0), h.Pending())
}

func TestAssertFailureReturnsSpiritPanic(t *testing.T) {
	h, _ := newTestHost()
	mem := Memory{Bytes: make([]byte, 64)}
	copy(mem.Bytes[0:4], "oops")

	require.NoError(t, h.Assert(mem, 1, 0, 4))
	err := h.Assert(mem, 0, 0, 4)
	require.Error(t, err)
	var sp *SpiritPanic
	require.ErrorAs(t, err, &sp)
	require.Equal(t, "oops", sp.Message)
}

func TestAllocZeroOrNegativeSizeReturnsZeroWithoutConsultingAllocator(t *testing.T) {
	h, _ := newTestHost()
	require.Equal(t, int32(0), h.AllocMem(0))
	require.Equal(t, int32(0), h.AllocMem(-1))
	require.NotEqual(t, int32(0), h.AllocMem(16))
}
