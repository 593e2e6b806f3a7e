package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// ignoreSpans drops every embedded Sp field from the comparison: two trees
// parsed from differently-formatted but semantically identical source
// should still compare structurally equal.
var ignoreSpans = cmpopts.IgnoreFields(Span{}, "Start", "End")

// TestFuncDeclStructuralEqualityIgnoringSpans exercises the teacher's
// go-cmp dependency directly against the surface AST: reformatting a
// function's whitespace must not change its structural shape.
func TestFuncDeclStructuralEqualityIgnoringSpans(t *testing.T) {
	compact := &FuncDecl{
		Name: "add",
		Params: []*Param{
			{Name: "a", Type: &NamedType{Name: "i32"}},
			{Name: "b", Type: &NamedType{Name: "i32"}},
		},
		ReturnType: &NamedType{Name: "i32"},
		Body: &Block{Statements: []Stmt{
			&ExprStmt{X: &BinaryExpr{Op: "+", Left: &Ident{Name: "a"}, Right: &Ident{Name: "b"}}},
		}},
	}
	spaced := &FuncDecl{
		Name: "add",
		Params: []*Param{
			{Name: "a", Type: &NamedType{Name: "i32"}, Sp: Span{Start: 10, End: 13}},
			{Name: "b", Type: &NamedType{Name: "i32"}, Sp: Span{Start: 20, End: 23}},
		},
		ReturnType: &NamedType{Name: "i32", TypeBase: TypeBase{Sp: Span{Start: 30, End: 33}}},
		Body: &Block{
			Statements: []Stmt{
				&ExprStmt{
					X: &BinaryExpr{
						Op:    "+",
						Left:  &Ident{Name: "a", ExprBase: ExprBase{Sp: Span{Start: 40, End: 41}}},
						Right: &Ident{Name: "b", ExprBase: ExprBase{Sp: Span{Start: 44, End: 45}}},
					},
					StmtBase: StmtBase{Sp: Span{Start: 40, End: 45}},
				},
			},
			ExprBase: ExprBase{Sp: Span{Start: 36, End: 47}},
		},
		DeclBase: DeclBase{Sp: Span{Start: 0, End: 47}},
	}

	require.Empty(t, cmp.Diff(compact, spaced, ignoreSpans),
		"differing spans must not affect structural equality")
}
