package hostabi

import (
	"fmt"

	"github.com/vudoc/vudoc/internal/diagnostics"
)

// Host implements all 22 vudo_* import functions (§4.6) in terms of the
// pluggable services above. internal/runtime/host.New assembles the
// concrete Alloc/Broker/Clock/Random/Effects/Debug, one Host per spirit
// instance (SpiritID is this instance's broker/sender identity).
type Host struct {
	SpiritID string
	Alloc    Allocator
	Broker   Broker
	Clock    Clock
	Random   Random
	Effects  EffectBus
	Debug    Debugger
	Log      *diagnostics.Logger
}

func (h *Host) logInvalid(primitive string, reason string) {
	if h.Log != nil {
		h.Log.Warn("%s: %s", primitive, reason)
	}
}

// Print implements vudo_print (#1): write UTF-8 to stdout, no newline.
func (h *Host) Print(mem Memory, ptr, length int32) ResultCode {
	s, ok := mem.ReadString(ptr, length)
	if !ok {
		h.logInvalid("vudo_print", "invalid pointer or non-UTF-8 payload")
		return InvalidArg
	}
	fmt.Print(s)
	return Ok
}

// Println implements vudo_println (#2).
func (h *Host) Println(mem Memory, ptr, length int32) ResultCode {
	s, ok := mem.ReadString(ptr, length)
	if !ok {
		h.logInvalid("vudo_println", "invalid pointer or non-UTF-8 payload")
		return InvalidArg
	}
	fmt.Println(s)
	return Ok
}

// LogMsg implements vudo_log (#3): level out of {0..3} normalizes to Info.
func (h *Host) LogMsg(mem Memory, level, ptr, length int32) ResultCode {
	s, ok := mem.ReadString(ptr, length)
	if !ok {
		h.logInvalid("vudo_log", "invalid pointer or non-UTF-8 payload")
		return InvalidArg
	}
	lvl := diagnostics.NormalizeLevel(level)
	if h.Log != nil {
		h.Log.Log(lvl, "%s", s)
	}
	return Ok
}

// ErrorLog implements vudo_error (#4): shorthand for vudo_log(3, ...).
func (h *Host) ErrorLog(mem Memory, ptr, length int32) ResultCode {
	return h.LogMsg(mem, int32(diagnostics.LevelError), ptr, length)
}

// AllocMem implements vudo_alloc (#5): size ≤ 0 returns 0 without consulting
// the allocator, matching §4.6's stated degenerate case.
func (h *Host) AllocMem(size int32) int32 {
	if size <= 0 {
		return 0
	}
	ptr, ok := h.Alloc.Alloc(size)
	if !ok {
		h.logInvalid("vudo_alloc", fmt.Sprintf("out of memory for size %d", size))
		return 0
	}
	return ptr
}

// FreeMem implements vudo_free (#6): ptr=0 is a documented no-op.
func (h *Host) FreeMem(ptr, size int32) {
	if ptr == 0 {
		return
	}
	h.Alloc.Free(ptr, size)
}

// ReallocMem implements vudo_realloc (#7): new=0 behaves as free; on failure
// the original allocation is left untouched and 0 is returned.
func (h *Host) ReallocMem(ptr, oldSize, newSize int32) int32 {
	if newSize == 0 {
		h.Alloc.Free(ptr, oldSize)
		return 0
	}
	newPtr, ok := h.Alloc.Realloc(ptr, oldSize, newSize)
	if !ok {
		h.logInvalid("vudo_realloc", fmt.Sprintf("failed growing %d -> %d bytes", oldSize, newSize))
		return 0
	}
	return newPtr
}

// Now implements vudo_now (#8): Unix-epoch milliseconds.
func (h *Host) Now() int64 { return h.Clock.NowUnixMilli() }

// Sleep implements vudo_sleep (#9): negative is a no-op, zero is a
// yield-only (no real delay).
func (h *Host) Sleep(ms int32) {
	if ms <= 0 {
		return
	}
	h.Clock.Sleep(msToDuration(ms))
}

// MonotonicNow implements vudo_monotonic_now (#10): non-decreasing
// nanoseconds (§8 invariant 8).
func (h *Host) MonotonicNow() int64 { return h.Clock.MonotonicNanos() }

// Send implements vudo_send (#11).
func (h *Host) Send(mem Memory, targetPtr, targetLen, payloadPtr, payloadLen int32) int32 {
	target, ok := mem.ReadString(targetPtr, targetLen)
	if !ok {
		h.logInvalid("vudo_send", "invalid target pointer or non-UTF-8 target")
		return int32(InvalidArg)
	}
	payload, ok := mem.ReadBytes(payloadPtr, payloadLen)
	if !ok {
		h.logInvalid("vudo_send", "invalid payload pointer")
		return int32(InvalidArg)
	}
	msg := Message{Sender: h.SpiritID, TimestampMs: uint64(h.Clock.NowUnixMilli()), PayloadType: PayloadBinary, Payload: payload}
	return int32(h.Broker.Send(h.SpiritID, target, msg))
}

// Recv implements vudo_recv (#12): peeks the wire size first; returns -2
// without popping when the guest buffer is too small, otherwise pops,
// serialises into the guest buffer, and returns the byte count.
func (h *Host) Recv(mem Memory, timeoutMs, outPtr, cap int32) int32 {
	msg, ok := h.Broker.Peek(h.SpiritID)
	if !ok {
		if timeoutMs > 0 {
			h.Clock.Sleep(msToDuration(timeoutMs))
			msg, ok = h.Broker.Peek(h.SpiritID)
		}
		if !ok {
			return 0
		}
	}
	size := msg.WireSize()
	if size > cap {
		// vudo_recv's own too-small code is -2, not the BufferTooSmall
		// result code; the message stays queued.
		return -2
	}
	wire, err := msg.Encode()
	if err != nil {
		h.logInvalid("vudo_recv", err.Error())
		return int32(Error)
	}
	if !mem.WriteBytes(outPtr, wire) {
		h.logInvalid("vudo_recv", "output pointer out of bounds")
		return int32(InvalidArg)
	}
	h.Broker.Pop(h.SpiritID)
	return int32(len(wire))
}

// Pending implements vudo_pending (#13).
func (h *Host) Pending() int32 { return h.Broker.Pending(h.SpiritID) }

// Broadcast implements vudo_broadcast (#14): no receivers still succeeds.
func (h *Host) Broadcast(mem Memory, payloadPtr, payloadLen int32) int32 {
	payload, ok := mem.ReadBytes(payloadPtr, payloadLen)
	if !ok {
		h.logInvalid("vudo_broadcast", "invalid payload pointer")
		return int32(InvalidArg)
	}
	msg := Message{Sender: h.SpiritID, TimestampMs: uint64(h.Clock.NowUnixMilli()), PayloadType: PayloadBinary, Payload: payload}
	code, _ := h.Broker.Broadcast(h.SpiritID, msg)
	return int32(code)
}

// FreeMessage implements vudo_free_message (#15). The broker's Peek/Pop
// already own message lifetime; a host-allocated message handed to the
// guest via Recv lives in guest memory it already owns, so this is the
// counterpart that would release any host-side bookkeeping keyed by id
// (reserved for a future host-side message registry; currently a no-op
// that logs nothing, since Recv copies rather than lending a host pointer).
func (h *Host) FreeMessage(id int32) {}

// RandomF64 implements vudo_random (#16): uniform in [0,1).
func (h *Host) RandomF64() float64 { return h.Random.Float64() }

// RandomBytes implements vudo_random_bytes (#17).
func (h *Host) RandomBytes(mem Memory, ptr, length int32) ResultCode {
	if length < 0 {
		return InvalidArg
	}
	b := h.Random.Bytes(length)
	if !mem.WriteBytes(ptr, b) {
		h.logInvalid("vudo_random_bytes", "output pointer out of bounds")
		return InvalidArg
	}
	return Ok
}

// EmitEffect implements vudo_emit_effect (#18).
func (h *Host) EmitEffect(mem Memory, _ int32, payloadPtr, payloadLen int32) int32 {
	payload, ok := mem.ReadBytes(payloadPtr, payloadLen)
	if !ok {
		h.logInvalid("vudo_emit_effect", "invalid payload pointer")
		return int32(InvalidArg)
	}
	return int32(h.Effects.Emit(payload))
}

// Subscribe implements vudo_subscribe (#19).
func (h *Host) Subscribe(mem Memory, chanPtr, chanLen int32) int32 {
	ch, ok := mem.ReadString(chanPtr, chanLen)
	if !ok {
		h.logInvalid("vudo_subscribe", "invalid channel pointer or non-UTF-8 channel")
		return int32(InvalidArg)
	}
	return h.Effects.Subscribe(ch)
}

// Breakpoint implements vudo_breakpoint (#20): no-op in release, routed to
// the debug hook when one is attached.
func (h *Host) Breakpoint() {
	if h.Debug != nil {
		h.Debug.Breakpoint()
	}
}

// Assert implements vudo_assert (#21): cond=0 panics with message.
func (h *Host) Assert(mem Memory, cond, msgPtr, msgLen int32) error {
	if cond != 0 {
		return nil
	}
	s, ok := mem.ReadString(msgPtr, msgLen)
	if !ok {
		s = "assertion failed (message unreadable)"
	}
	if h.Debug != nil {
		h.Debug.AssertFailed(s)
	}
	return &SpiritPanic{Message: s}
}

// Panic implements vudo_panic (#22): terminates the spirit, never returns.
func (h *Host) Panic(mem Memory, ptr, length int32) error {
	s, ok := mem.ReadString(ptr, length)
	if !ok {
		s = "panic (message unreadable)"
	}
	return &SpiritPanic{Message: s}
}
