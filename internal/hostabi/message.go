package hostabi

import (
	"encoding/binary"
	"fmt"
)

// PayloadType is the message wire format's payload discriminant (§4.6).
type PayloadType uint8

const (
	PayloadText       PayloadType = 0
	PayloadBinary     PayloadType = 1
	PayloadStructured PayloadType = 2
)

// MaxSenderLen and MaxPayloadLen are the wire format's hard constraints
// (§4.6): `sender_len ≤ 256`, `payload_len ≤ 1_048_576`.
const (
	MaxSenderLen  = 256
	MaxPayloadLen = 1 << 20
)

// Message is the host-side decoded form of the little-endian wire format:
//
//	[sender_len: u32][sender_bytes: N][timestamp_ms: u64]
//	[payload_type: u8][payload_len: u32][payload_bytes: M]
type Message struct {
	Sender      string
	TimestampMs uint64
	PayloadType PayloadType
	Payload     []byte
}

// Encode serialises m into the wire format, or an error if a constraint is
// violated (the caller is expected to have validated these already when the
// message was enqueued; Encode re-checks because recv is the boundary that
// actually touches guest memory).
func (m Message) Encode() ([]byte, error) {
	if len(m.Sender) > MaxSenderLen {
		return nil, fmt.Errorf("hostabi: sender %q exceeds %d bytes", m.Sender, MaxSenderLen)
	}
	if len(m.Payload) > MaxPayloadLen {
		return nil, fmt.Errorf("hostabi: payload of %d bytes exceeds %d", len(m.Payload), MaxPayloadLen)
	}
	out := make([]byte, 0, 4+len(m.Sender)+8+1+4+len(m.Payload))
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(m.Sender)))
	out = append(out, u32[:]...)
	out = append(out, m.Sender...)
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], m.TimestampMs)
	out = append(out, u64[:]...)
	out = append(out, byte(m.PayloadType))
	binary.LittleEndian.PutUint32(u32[:], uint32(len(m.Payload)))
	out = append(out, u32[:]...)
	out = append(out, m.Payload...)
	return out, nil
}

// WireSize returns Encode's output length without allocating it, so recv
// can compare against the guest's buffer capacity before serialising.
func (m Message) WireSize() int32 {
	return int32(4 + len(m.Sender) + 8 + 1 + 4 + len(m.Payload))
}

// DecodeMessage parses the wire format back into a Message, for tests and
// for any host-side inspection of a guest-written buffer.
func DecodeMessage(b []byte) (Message, bool) {
	if len(b) < 4 {
		return Message{}, false
	}
	senderLen := binary.LittleEndian.Uint32(b[0:4])
	off := 4
	if senderLen > MaxSenderLen || uint64(off)+uint64(senderLen)+8+1+4 > uint64(len(b)) {
		return Message{}, false
	}
	sender := string(b[off : off+int(senderLen)])
	off += int(senderLen)
	ts := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	pt := PayloadType(b[off])
	off++
	payloadLen := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	if payloadLen > MaxPayloadLen || uint64(off)+uint64(payloadLen) > uint64(len(b)) {
		return Message{}, false
	}
	payload := make([]byte, payloadLen)
	copy(payload, b[off:off+int(payloadLen)])
	return Message{Sender: sender, TimestampMs: ts, PayloadType: pt, Payload: payload}, true
}
