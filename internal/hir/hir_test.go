package hir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/types"
)

func TestExprTypeSlotRoundTrips(t *testing.T) {
	var e Expr = &Literal{Kind: IntLit, Value: int64(1)}
	require.Nil(t, e.Type())
	e.SetType(types.TPrim{Prim: types.I32})
	require.Equal(t, types.TPrim{Prim: types.I32}, e.Type())
}

func TestLoopAndStmtExprSatisfyInterfaces(t *testing.T) {
	var body Stmt = &ExprStmt{X: &Literal{Kind: UnitLit}}
	loop := &Loop{Body: []Stmt{body, &Break{}}}
	var _ Expr = loop
	require.Len(t, loop.Body, 2)

	var brk Stmt = &Break{}
	se := &StmtExpr{S: brk}
	var _ Expr = se
	require.Same(t, brk, se.S)
}

func TestFunctionBodyIsStatementList(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: []Stmt{
			&Val{Name: "x", Value: &Literal{Kind: IntLit, Value: int64(1)}},
			&Return{Value: &Var{Name: "x"}},
		},
	}
	require.Len(t, fn.Body, 2)
	_, ok := fn.Body[0].(*Val)
	require.True(t, ok)
	_, ok = fn.Body[1].(*Return)
	require.True(t, ok)
}

func TestPatternMarkerMethodsClosed(t *testing.T) {
	patterns := []Pattern{
		WildcardPattern{},
		BinderPattern{Name: "x"},
		LiteralPattern{Kind: IntLit, Value: int64(1)},
		TuplePattern{Elems: []Pattern{WildcardPattern{}}},
		ConstructorPattern{Tag: "Some", Args: []Pattern{BinderPattern{Name: "v"}}},
		RecordPattern{Fields: map[string]Pattern{"x": WildcardPattern{}}},
		RangePattern{Low: &Literal{Kind: IntLit, Value: int64(0)}, High: &Literal{Kind: IntLit, Value: int64(9)}},
	}
	require.Len(t, patterns, 7)
}

func TestModuleAggregatesDecls(t *testing.T) {
	m := &Module{
		Path:      "a.vud",
		Functions: []*Function{{Name: "f"}},
		Types:     []*TypeDecl{{Name: "T"}},
		Traits:    []*Trait{{Name: "Tr"}},
	}
	require.Equal(t, "a.vud", m.Path)
	require.Len(t, m.Functions, 1)
	require.Len(t, m.Types, 1)
	require.Len(t, m.Traits, 1)
}
