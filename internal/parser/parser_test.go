package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/ast"
)

func parseOK(t *testing.T, src string) *ast.File {
	t.Helper()
	f, diags := Parse([]byte(src))
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %+v", diags.All())
	return f
}

func TestParseFuncDecl(t *testing.T) {
	f := parseOK(t, `
// Adds two integers.
pub fun add(a: i32, b: i32) -> i32 {
	a + b
}
`)
	require.Len(t, f.Decls, 1)
	fn, ok := f.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.True(t, fn.IsPublic())
	require.Len(t, fn.Params, 2)
	require.NotNil(t, fn.Body.FinalExpr)
	bin, ok := fn.Body.FinalExpr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)
}

func TestPublicDeclWithoutDocIsFlagged(t *testing.T) {
	_, diags := Parse([]byte(`pub fun add(a: i32) -> i32 { a }`))
	require.True(t, diags.HasErrors())
}

func TestPrecedenceArithmeticTighterThanMember(t *testing.T) {
	f := parseOK(t, `
// doc
fun f(x: Point) -> i32 {
	x.a * x.b + 1
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	add, ok := fn.Body.FinalExpr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "+", add.Op)
	mul, ok := add.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op)
	_, ok = mul.Left.(*ast.MemberExpr)
	require.True(t, ok)
}

func TestIfMatchLambdaPipeCompose(t *testing.T) {
	f := parseOK(t, `
// doc
fun g(x: i32) -> i32 {
	let double = |y: i32| -> i32 y * 2;
	let r = if x > 0 then x else 0 - x;
	match r {
		0 => 0,
		n => n |> double,
	}
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.NotNil(t, fn.Body.FinalExpr)
	_, ok := fn.Body.FinalExpr.(*ast.MatchExpr)
	require.True(t, ok)
}

func TestTypeDeclEnumAndRecord(t *testing.T) {
	f := parseOK(t, `
// doc
type Shape = Circle(f64) | Rect(f64, f64)

// doc
type Point = { x: i32, y: i32 }
`)
	require.Len(t, f.Decls, 2)
	shape := f.Decls[0].(*ast.TypeDecl)
	require.Len(t, shape.Variants, 2)
	require.Equal(t, "Circle", shape.Variants[0].Tag)
	point := f.Decls[1].(*ast.TypeDecl)
	require.Len(t, point.Variants, 1)
	require.Equal(t, "", point.Variants[0].Tag)
	require.Len(t, point.Variants[0].Fields, 2)
}

func TestEvolutionDecl(t *testing.T) {
	f := parseOK(t, `
// doc
evolution WidenPoint @ 1.0.0 > 1.1.0 {
	adds { z: i32 = 0 }
	renames x -> px
	migrate: old
}
`)
	require.Len(t, f.Decls, 1)
	ev := f.Decls[0].(*ast.EvolutionDecl)
	require.Equal(t, "WidenPoint", ev.Name)
	require.Equal(t, ast.Semver{Major: 1, Minor: 0, Patch: 0}, ev.ParentVersion)
	require.Equal(t, ast.Semver{Major: 1, Minor: 1, Patch: 0}, ev.Version)
	require.Len(t, ev.Adds, 1)
	require.Len(t, ev.Renames, 1)
	require.NotNil(t, ev.Migrate)
}

func TestSyntaxErrorRecoversToNextDecl(t *testing.T) {
	_, diags := Parse([]byte(`
fun broken( {{{

// doc
pub fun ok() -> i32 {
	1
}
`))
	require.True(t, diags.HasErrors())
}

func TestMatchWithConstructorAndGuardPatterns(t *testing.T) {
	f := parseOK(t, `
// doc
fun classify(s: Shape) -> i32 {
	match s {
		Circle(r) if r > 0.0 => 1,
		Rect(w, h) => 2,
		_ => 0,
	}
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	m := fn.Body.FinalExpr.(*ast.MatchExpr)
	require.Len(t, m.Arms, 3)
	ctor, ok := m.Arms[0].Pattern.(*ast.ConstructorPattern)
	require.True(t, ok)
	require.Equal(t, "Circle", ctor.Tag)
	require.NotNil(t, m.Arms[0].Guard)
}
