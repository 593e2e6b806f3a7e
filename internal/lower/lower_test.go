package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/parser"
)

func lowerOK(t *testing.T, src string) *hir.Module {
	t.Helper()
	f, diags := parser.Parse([]byte(src))
	require.False(t, diags.HasErrors(), "parse diagnostics: %+v", diags.All())
	l := New("test.vud")
	m := l.Module(f)
	require.False(t, l.Diags.HasErrors(), "lower diagnostics: %+v", l.Diags.All())
	return m
}

func TestFunctionBodyEndsInImplicitReturn(t *testing.T) {
	m := lowerOK(t, `
// doc
fun add(a: i32, b: i32) -> i32 {
	a + b
}
`)
	require.Len(t, m.Functions, 1)
	fn := m.Functions[0]
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(*hir.Return)
	require.True(t, ok)
	bin, ok := ret.Value.(*hir.BinOp)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)
}

func TestLetAndExplicitReturnLowerToRealStatements(t *testing.T) {
	m := lowerOK(t, `
// doc
fun f(x: i32) -> i32 {
	let y = x + 1;
	return y;
}
`)
	fn := m.Functions[0]
	require.Len(t, fn.Body, 2)
	val, ok := fn.Body[0].(*hir.Val)
	require.True(t, ok)
	require.Equal(t, "y", val.Name)
	ret, ok := fn.Body[1].(*hir.Return)
	require.True(t, ok)
	v, ok := ret.Value.(*hir.Var)
	require.True(t, ok)
	require.Equal(t, "y", v.Name)
}

func TestWhileLowersToLoopWithGuardAndBreak(t *testing.T) {
	m := lowerOK(t, `
// doc
fun f(n: i32) -> i32 {
	var i = 0;
	while i < n {
		i = i + 1;
	}
	return i;
}
`)
	fn := m.Functions[0]
	// VarStmt, ExprStmt(Loop), Return
	require.Len(t, fn.Body, 3)
	_, ok := fn.Body[0].(*hir.VarStmt)
	require.True(t, ok)
	exprStmt, ok := fn.Body[1].(*hir.ExprStmt)
	require.True(t, ok)
	loop, ok := exprStmt.X.(*hir.Loop)
	require.True(t, ok)
	require.True(t, len(loop.Body) >= 2)
	guard, ok := loop.Body[0].(*hir.ExprStmt)
	require.True(t, ok)
	ifExpr, ok := guard.X.(*hir.If)
	require.True(t, ok)
	stmtExpr, ok := ifExpr.Else.(*hir.StmtExpr)
	require.True(t, ok)
	_, ok = stmtExpr.S.(*hir.Break)
	require.True(t, ok)
	// body statement is the assignment
	_, ok = loop.Body[1].(*hir.Assign)
	require.True(t, ok)
}

func TestForLowersToIteratorLoop(t *testing.T) {
	m := lowerOK(t, `
// doc
fun sum(xs: Vec<i32>) -> i32 {
	var total = 0;
	for x in xs {
		total = total + x;
	}
	return total;
}
`)
	fn := m.Functions[0]
	exprStmt := fn.Body[1].(*hir.ExprStmt)
	loop := exprStmt.X.(*hir.Loop)
	require.Len(t, loop.Body, 1)
	matchStmt := loop.Body[0].(*hir.ExprStmt)
	match := matchStmt.X.(*hir.Match)
	call, ok := match.Scrutinee.(*hir.Call)
	require.True(t, ok)
	require.Equal(t, "Iterator", call.Trait)
	require.Equal(t, "next", call.Method)
	require.Len(t, match.Cases, 2)
	someCase := match.Cases[0]
	ctor, ok := someCase.Pattern.(hir.ConstructorPattern)
	require.True(t, ok)
	require.Equal(t, "Some", ctor.Tag)
	noneCase := match.Cases[1]
	stmtExpr, ok := noneCase.Body.(*hir.StmtExpr)
	require.True(t, ok)
	_, ok = stmtExpr.S.(*hir.Break)
	require.True(t, ok)
}

func TestNestedReturnInsideIfBlockUsesStmtExpr(t *testing.T) {
	m := lowerOK(t, `
// doc
fun f(x: i32) -> i32 {
	if x > 0 {
		return x;
	} else {
		return 0 - x;
	}
}
`)
	fn := m.Functions[0]
	// tail if-expression wrapped in implicit Return
	ret := fn.Body[0].(*hir.Return)
	ifExpr := ret.Value.(*hir.If)
	thenLet := ifExpr.Then.(*hir.Let)
	require.Equal(t, "_", thenLet.Name)
	stmtExpr, ok := thenLet.Value.(*hir.StmtExpr)
	require.True(t, ok)
	innerReturn, ok := stmtExpr.S.(*hir.Return)
	require.True(t, ok)
	v, ok := innerReturn.Value.(*hir.Var)
	require.True(t, ok)
	require.Equal(t, "x", v.Name)
}

func TestAndOrDesugarToIf(t *testing.T) {
	m := lowerOK(t, `
// doc
fun f(a: bool, b: bool) -> bool {
	a && b
}
`)
	fn := m.Functions[0]
	ret := fn.Body[0].(*hir.Return)
	ifExpr, ok := ret.Value.(*hir.If)
	require.True(t, ok)
	elseLit, ok := ifExpr.Else.(*hir.Literal)
	require.True(t, ok)
	require.Equal(t, hir.BoolLit, elseLit.Kind)
	require.Equal(t, false, elseLit.Value)
}

func TestPipeDesugarsToApp(t *testing.T) {
	m := lowerOK(t, `
// doc
fun inc(x: i32) -> i32 { x + 1 }

// doc
fun f(x: i32) -> i32 {
	x |> inc
}
`)
	fn := m.Functions[1]
	ret := fn.Body[0].(*hir.Return)
	app, ok := ret.Value.(*hir.App)
	require.True(t, ok)
	require.Len(t, app.Args, 1)
}

func TestShadowingProducesWarning(t *testing.T) {
	f, diags := parser.Parse([]byte(`
// doc
fun f(x: i32) -> i32 {
	let x = x + 1;
	x
}
`))
	require.False(t, diags.HasErrors())
	l := New("test.vud")
	l.Module(f)
	found := false
	for _, d := range l.Diags.All() {
		if d.Code == "W002" {
			found = true
		}
	}
	require.True(t, found, "expected a W002 shadowing warning, got %+v", l.Diags.All())
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)
	src := []byte(`fun f() -> i32 { 0 }`)
	key := Key("a.vud", src)
	_, ok := c.Get(key)
	require.False(t, ok)

	f, diags := parser.Parse(src)
	require.False(t, diags.HasErrors())
	m := New("a.vud").Module(f)
	c.Put(key, m)

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Same(t, m, got)
}
