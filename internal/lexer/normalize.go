package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips a UTF-8 byte-order mark and applies Unicode NFC
// normalization so that lexically equivalent source text produces an
// identical token stream regardless of encoding variations (e.g. "café" in
// NFC vs NFD). Performed once at the lexer boundary.
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}
