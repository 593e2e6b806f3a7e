package hostabi

import (
	"encoding/binary"
	"unicode/utf8"
)

// Memory is a bounds-checked, UTF-8-decoding view over one guest instance's
// linear memory. Every primitive in this package reads guest pointers and
// lengths exclusively through a Memory value — never by indexing a raw
// []byte directly — so a malicious or buggy guest pointer is reported as
// InvalidArg and logged instead of panicking the host process (§4.6: "the
// host must not trust guest-supplied pointers or lengths").
//
// Bytes is not owned by Memory; it is the slice backing a wasm instance's
// exported "memory", and its length can grow between calls (wasm memory.grow
// reallocates), so Memory never caches Size() across calls.
type Memory struct {
	Bytes []byte
}

func (m Memory) inBounds(ptr, length int64) bool {
	if ptr < 0 || length < 0 {
		return false
	}
	end := ptr + length
	return end >= ptr && end <= int64(len(m.Bytes))
}

// ReadBytes returns a copy of length bytes starting at ptr, or a
// BufferTooSmall-flavored failure via the bool when the span falls outside
// current memory.
func (m Memory) ReadBytes(ptr, length int32) ([]byte, bool) {
	p, l := int64(ptr), int64(length)
	if !m.inBounds(p, l) {
		return nil, false
	}
	out := make([]byte, l)
	copy(out, m.Bytes[p:p+l])
	return out, true
}

// WriteBytes copies data into the guest at ptr; false if it would not fit.
func (m Memory) WriteBytes(ptr int32, data []byte) bool {
	if !m.inBounds(int64(ptr), int64(len(data))) {
		return false
	}
	copy(m.Bytes[ptr:int(ptr)+len(data)], data)
	return true
}

// ReadString reads length bytes at ptr and validates them as UTF-8, per
// §4.6's "all strings are UTF-8 ... the host validates UTF-8 before
// decoding; invalid UTF-8 ... produces a logged error and the operation
// fails (result InvalidArg)".
func (m Memory) ReadString(ptr, length int32) (string, bool) {
	b, ok := m.ReadBytes(ptr, length)
	if !ok {
		return "", false
	}
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func (m Memory) ReadU32(ptr int32) (uint32, bool) {
	b, ok := m.ReadBytes(ptr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (m Memory) WriteU32(ptr int32, v uint32) bool {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return m.WriteBytes(ptr, b[:])
}

func (m Memory) WriteU64(ptr int32, v uint64) bool {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return m.WriteBytes(ptr, b[:])
}

// Size returns the current memory length in bytes.
func (m Memory) Size() int32 { return int32(len(m.Bytes)) }
