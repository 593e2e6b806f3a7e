package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/check"
	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/lower"
	"github.com/vudoc/vudoc/internal/parser"
	"github.com/vudoc/vudoc/internal/types"
)

func checkedModule(t *testing.T, src string) *hir.Module {
	t.Helper()
	f, diags := parser.Parse([]byte(src))
	require.False(t, diags.HasErrors(), "parse diagnostics: %+v", diags.All())
	l := lower.New("test.vud")
	m := l.Module(f)
	require.False(t, l.Diags.HasErrors(), "lower diagnostics: %+v", l.Diags.All())
	c := check.New()
	c.CheckModule(m)
	require.False(t, c.Diags.HasErrors(), "check diagnostics: %+v", c.Diags.All())
	return m
}

func TestULEB128EncodesKnownValues(t *testing.T) {
	require.Equal(t, []byte{0x00}, appendULEB128(nil, 0))
	require.Equal(t, []byte{0x7F}, appendULEB128(nil, 127))
	require.Equal(t, []byte{0x80, 0x01}, appendULEB128(nil, 128))
	require.Equal(t, []byte{0xAC, 0x02}, appendULEB128(nil, 300))
}

func TestSLEB128EncodesKnownValues(t *testing.T) {
	require.Equal(t, []byte{0x00}, appendSLEB128(nil, 0))
	require.Equal(t, []byte{0x7F}, appendSLEB128(nil, -1))
	require.Equal(t, []byte{0x3F}, appendSLEB128(nil, 63))
	require.Equal(t, []byte{0xC0, 0x00}, appendSLEB128(nil, 64))
	require.Equal(t, []byte{0x40}, appendSLEB128(nil, -64))
}

func TestStringPoolDeduplicatesRepeatedLiterals(t *testing.T) {
	p := NewStringPool()
	off1, len1 := p.Intern("hello")
	off2, len2 := p.Intern("world")
	off3, len3 := p.Intern("hello")

	require.Equal(t, off1, off3)
	require.Equal(t, len1, len3)
	require.NotEqual(t, off1, off2)
	require.Equal(t, StringPoolStart, off1)
	require.Equal(t, uint32(5), len1)
	require.Equal(t, uint32(5), len2)
	require.Equal(t, "helloworld", string(p.Bytes()))
}

func TestLayoutRecordAssignsNaturalAlignmentAndRoundsUpTo8(t *testing.T) {
	variant := hir.Variant{
		Fields: []hir.Field{
			{Name: "flag", Type: types.TPrim{Prim: types.Bool}},
			{Name: "count", Type: types.TPrim{Prim: types.I32}},
			{Name: "id", Type: types.TPrim{Prim: types.I64}},
		},
	}
	rl, err := LayoutRecord(variant)
	require.NoError(t, err)

	flagOff, ok := rl.FieldOffset("flag")
	require.True(t, ok)
	require.Equal(t, uint32(0), flagOff)

	countOff, ok := rl.FieldOffset("count")
	require.True(t, ok)
	require.Equal(t, uint32(4), countOff) // aligned up from 1 to 4

	idOff, ok := rl.FieldOffset("id")
	require.True(t, ok)
	require.Equal(t, uint32(8), idOff) // aligned up from 8 to 8

	require.Equal(t, uint32(16), rl.TotalSize) // 8 + 8, already a multiple of 8
}

func TestCollectImportsOnlyReturnsReferencedPrimitives(t *testing.T) {
	m := checkedModule(t, `
fun greet() -> unit {
	vudo_println("hi");
}

fun quiet() -> i32 {
	1 + 2
}
`)
	referenced := collectImports(m)
	require.True(t, referenced["vudo_println"])
	require.Len(t, referenced, 1, "quiet never calls a host primitive, so only vudo_println should be collected")
}

func TestEmitProducesWellFormedHeaderForPureArithmetic(t *testing.T) {
	m := checkedModule(t, `
// doc
pub fun add(a: i32, b: i32) -> i32 {
	a + b
}
`)
	out, err := Emit(m, Config{})
	require.NoError(t, err)
	require.Equal(t, []byte(wasmMagic), out[0:4])
	require.Equal(t, []byte(wasmVersion), out[4:8])
	// No host primitive is referenced and no heap allocation happens, so
	// the import namespace name never appears anywhere in the module.
	require.False(t, bytes.Contains(out, []byte(HostNamespace)))
}

func TestEmitImportsExactlyOneHostPrimitiveForHelloWorld(t *testing.T) {
	m := checkedModule(t, `
// doc
pub fun main() -> unit {
	vudo_println("hi");
}
`)
	out, err := Emit(m, Config{})
	require.NoError(t, err)
	require.Equal(t, []byte(wasmMagic), out[0:4])
	require.True(t, bytes.Contains(out, []byte("vudo_println")), "the one referenced primitive's import name must be encoded")
	require.True(t, bytes.Contains(out, []byte("hi")), "the literal argument must land in the string pool's data segment")
	require.True(t, bytes.Contains(out, []byte("memory")), "memory must always be exported")
}

func TestEmitHandlesParameterPassthroughAndSiblingCalls(t *testing.T) {
	m := checkedModule(t, `
fun identity(f: i32) -> i32 {
	f
}

// doc
pub fun twice(x: i32) -> i32 {
	identity(x) + identity(x)
}
`)
	out, err := Emit(m, Config{})
	require.NoError(t, err)
	require.NotEmpty(t, out)
}
