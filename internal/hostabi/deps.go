package hostabi

import "time"

// Allocator is the guest-memory allocator a Host delegates vudo_alloc/
// vudo_free/vudo_realloc to (internal/runtime/alloc implements this).
type Allocator interface {
	Alloc(size int32) (ptr int32, ok bool)
	Free(ptr, size int32)
	Realloc(ptr, oldSize, newSize int32) (newPtr int32, ok bool)
}

// Broker is the per-spirit FIFO message service vudo_send/vudo_recv/
// vudo_pending/vudo_broadcast delegate to (internal/runtime/broker).
type Broker interface {
	Send(sender, target string, msg Message) ResultCode
	Broadcast(sender string, msg Message) (ResultCode, int)
	// Peek returns the next queued message for receiver without
	// dequeuing it, so Recv can check its wire size and implement the buffer-too-small
	// contract (§8 invariant 7) before committing to a pop.
	Peek(receiver string) (Message, bool)
	Pop(receiver string)
	Pending(receiver string) int32
}

// Clock is the wall-clock and monotonic time source vudo_now/
// vudo_monotonic_now delegate to (internal/runtime/clockrand).
type Clock interface {
	NowUnixMilli() int64
	MonotonicNanos() int64
	Sleep(d time.Duration)
}

// Random is the entropy source vudo_random/vudo_random_bytes delegate to
// (internal/runtime/clockrand).
type Random interface {
	Float64() float64
	Bytes(n int32) []byte
}

// EffectBus is the subscription/dispatch service vudo_emit_effect/
// vudo_subscribe delegate to (internal/runtime/effectbus).
type EffectBus interface {
	Emit(payloadJSON []byte) ResultCode
	Subscribe(channel string) int32
}

// Debugger receives vudo_breakpoint/vudo_assert/vudo_panic notifications.
// The default implementation logs; a driver attaching a real debugger can
// supply its own.
type Debugger interface {
	Breakpoint()
	AssertFailed(message string)
}
