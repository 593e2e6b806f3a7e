package wasm

// appendULEB128 appends n encoded as unsigned LEB128, the integer encoding
// every WebAssembly binary section length, count, and index uses.
func appendULEB128(buf []byte, n uint64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if n == 0 {
			return buf
		}
	}
}

// appendSLEB128 appends n encoded as signed LEB128, used for i32.const and
// i64.const immediates.
func appendSLEB128(buf []byte, n int64) []byte {
	more := true
	for more {
		b := byte(n & 0x7f)
		n >>= 7
		signBitSet := b&0x40 != 0
		if (n == 0 && !signBitSet) || (n == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// appendVec prefixes items with its ULEB128 count, the shape every
// WebAssembly section vector uses.
func appendVec[T any](buf []byte, items []T, encode func([]byte, T) []byte) []byte {
	buf = appendULEB128(buf, uint64(len(items)))
	for _, it := range items {
		buf = encode(buf, it)
	}
	return buf
}

// appendName prefixes s with its byte-length, the WebAssembly `name` production.
func appendName(buf []byte, s string) []byte {
	buf = appendULEB128(buf, uint64(len(s)))
	return append(buf, s...)
}

// appendSection wraps body in a section with the given id and a ULEB128
// byte-length prefix (every section but the custom section 0 has this shape).
func appendSection(buf []byte, id byte, body []byte) []byte {
	buf = append(buf, id)
	buf = appendULEB128(buf, uint64(len(body)))
	return append(buf, body...)
}
