package effectbus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/hostabi"
)

func TestSubscribeReturnsAscendingIDs(t *testing.T) {
	b := New(nil)
	id1 := b.Subscribe("chat")
	id2 := b.Subscribe("*")
	require.Equal(t, int32(1), id1)
	require.Equal(t, int32(2), id2)
}

func TestEmitRejectsMissingEffectType(t *testing.T) {
	b := New(nil)
	code := b.Emit([]byte(`{"payload":{}}`))
	require.Equal(t, hostabi.InvalidArg, code)
}

func TestEmitDispatchesInSubscriptionIDOrder(t *testing.T) {
	b := New(nil)
	var order []int32
	b.SubscribeHandler("chat", func(e Event) hostabi.ResultCode {
		order = append(order, 1)
		return hostabi.Ok
	})
	b.SubscribeHandler("*", func(e Event) hostabi.ResultCode {
		order = append(order, 2)
		return hostabi.Ok
	})

	code := b.Emit([]byte(`{"effect_type":"chat","payload":{"text":"hi"}}`))
	require.Equal(t, hostabi.Ok, code)
	require.Equal(t, []int32{1, 2}, order)
}

func TestEmitSkipsNonMatchingChannels(t *testing.T) {
	b := New(nil)
	called := false
	b.SubscribeHandler("other", func(e Event) hostabi.ResultCode {
		called = true
		return hostabi.Ok
	})
	b.Emit([]byte(`{"effect_type":"chat"}`))
	require.False(t, called)
}

func TestSubscriberPanicIsCaughtAndDispatchContinues(t *testing.T) {
	b := New(nil)
	ranSecond := false
	b.SubscribeHandler("chat", func(e Event) hostabi.ResultCode {
		panic("boom")
	})
	b.SubscribeHandler("chat", func(e Event) hostabi.ResultCode {
		ranSecond = true
		return hostabi.Ok
	})
	code := b.Emit([]byte(`{"effect_type":"chat"}`))
	require.True(t, ranSecond, "a panicking subscriber must not block the rest of dispatch")
	require.Equal(t, hostabi.Error, code)
}

func TestNormalizeEnvelopeRoundTrips(t *testing.T) {
	doc, err := NormalizeEnvelope(Event{EffectType: "chat", Payload: `{"text":"hi"}`, TimestampMs: 42})
	require.NoError(t, err)
	require.Contains(t, string(doc), `"chat"`)
	require.Contains(t, string(doc), `"text":"hi"`)
}
