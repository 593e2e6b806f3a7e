package broker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/hostabi"
)

func TestSendToUnregisteredTargetIsNotFound(t *testing.T) {
	br := New()
	br.Register("A")
	code := br.Send("A", "B", hostabi.Message{Payload: []byte("hi")})
	require.Equal(t, hostabi.NotFound, code)
}

func TestFIFODeliveryPerReceiver(t *testing.T) {
	// §8 invariant 6: send(B, m1) before send(B, m2) without an
	// intervening panic means B's recv calls yield m1 strictly before m2.
	br := New()
	br.Register("A")
	br.Register("B")

	require.Equal(t, hostabi.Ok, br.Send("A", "B", hostabi.Message{Payload: []byte("m1")}))
	require.Equal(t, hostabi.Ok, br.Send("A", "B", hostabi.Message{Payload: []byte("m2")}))

	first, ok := br.Peek("B")
	require.True(t, ok)
	require.Equal(t, "m1", string(first.Payload))
	br.Pop("B")

	second, ok := br.Peek("B")
	require.True(t, ok)
	require.Equal(t, "m2", string(second.Payload))
}

func TestFIFOHoldsAcrossMultipleSenders(t *testing.T) {
	br := New()
	br.Register("A")
	br.Register("B")
	br.Register("C")

	require.Equal(t, hostabi.Ok, br.Send("A", "C", hostabi.Message{Payload: []byte("fromA")}))
	require.Equal(t, hostabi.Ok, br.Send("B", "C", hostabi.Message{Payload: []byte("fromB")}))

	first, _ := br.Peek("C")
	require.Equal(t, "A", first.Sender)
	br.Pop("C")
	second, _ := br.Peek("C")
	require.Equal(t, "B", second.Sender)
}

func TestBroadcastSkipsSenderAndSucceedsWithNoReceivers(t *testing.T) {
	br := New()
	br.Register("A")
	code, n := br.Broadcast("A", hostabi.Message{Payload: []byte("hi")})
	require.Equal(t, hostabi.Ok, code)
	require.Equal(t, 0, n, "A must not receive its own broadcast")

	br.Register("B")
	br.Register("C")
	code, n = br.Broadcast("A", hostabi.Message{Payload: []byte("hi")})
	require.Equal(t, hostabi.Ok, code)
	require.Equal(t, 2, n)
}

func TestUnregisterDrainsInbox(t *testing.T) {
	br := New()
	br.Register("A")
	br.Register("B")
	br.Send("A", "B", hostabi.Message{Payload: []byte("x")})
	br.Unregister("B")
	require.Equal(t, int32(0), br.Pending("B"))
	code := br.Send("A", "B", hostabi.Message{Payload: []byte("y")})
	require.Equal(t, hostabi.NotFound, code, "sending to a torn-down spirit must fail, not silently resurrect its inbox")
}

func TestMessageIDsAreUnique(t *testing.T) {
	require.NotEqual(t, NewMessageID(), NewMessageID())
}
