package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/lower"
)

func newTestCache(t *testing.T) (*lower.Cache, error) {
	t.Helper()
	return lower.NewCache(8)
}

func TestHelloWorldEmitsExactlyOneImport(t *testing.T) {
	// §8 scenario S1.
	p := New("hello.vud")
	res := p.Compile([]byte(`
// doc
pub fun main() -> unit {
	vudo_println("Hello");
}
`))
	require.False(t, res.Diags.HasErrors())
	require.NoError(t, res.EmitErr)
	require.True(t, bytes.Contains(res.Wasm, []byte("vudo_println")))
	require.Equal(t, 1, bytes.Count(res.Wasm, []byte("vudo_")), "vudo_println must be the only host import")
	require.True(t, bytes.Contains(res.Wasm, []byte("Hello")))
}

func TestArithmeticExportsFunctionWithNoImports(t *testing.T) {
	// §8 scenario S2.
	p := New("add.vud")
	res := p.Compile([]byte(`
// doc
pub fun add(a: i64, b: i64) -> i64 {
	a + b
}
`))
	require.False(t, res.Diags.HasErrors())
	require.NoError(t, res.EmitErr)
	require.True(t, bytes.Contains(res.Wasm, []byte("add")))
	require.False(t, bytes.Contains(res.Wasm, []byte("vudo")), "pure arithmetic must import no host primitive")
}

func TestTypeErrorInFirstDeclarationStillChecksSecond(t *testing.T) {
	// §8 scenario S6.
	p := New("two_decls.vud")
	res := p.Compile([]byte(`
fun bad() -> unit {
	let x: i32 = "hi";
}

// doc
pub fun good(a: i32, b: i32) -> i32 {
	a + b
}
`))
	require.True(t, res.Diags.HasErrors())
	var sawE005 bool
	for _, d := range res.Diags.All() {
		if d.Code == diagnostics.E005TypeMismatch {
			sawE005 = true
		}
	}
	require.True(t, sawE005, "the mismatched let must be reported as E005")
	require.Nil(t, res.Wasm, "a checker error must not reach Emit")
}

func TestSyntaxErrorStopsBeforeLowering(t *testing.T) {
	p := New("broken.vud")
	res := p.Compile([]byte(`fun ( {`))
	require.True(t, res.Diags.HasErrors())
	require.Nil(t, res.Module)
}

func TestCacheReturnsSameModuleOnRepeatedCompile(t *testing.T) {
	cache, err := newTestCache(t)
	require.NoError(t, err)
	p := &Pipeline{Path: "cached.vud", Cache: cache}
	src := []byte(`
// doc
pub fun f() -> i32 { 1 }`)

	first := p.Compile(src)
	require.False(t, first.Diags.HasErrors())
	second := p.Compile(src)
	require.False(t, second.Diags.HasErrors())
	require.Same(t, first.Module, second.Module)
}
