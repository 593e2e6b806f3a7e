package hir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/types"
)

// TestModuleStructuralEquality exercises the teacher's go-cmp dependency
// for HIR tree comparison: two independently built Module values that
// describe the same function should compare equal field-by-field even
// though they are different pointers, and a changed literal should be the
// one thing cmp.Diff reports.
func TestModuleStructuralEquality(t *testing.T) {
	build := func(value int64) *Module {
		return &Module{
			Path: "a.vud",
			Functions: []*Function{{
				Name:   "f",
				Public: true,
				Params: []Param{{Name: "x", Type: types.TPrim{Prim: types.I32}}},
				Ret:    types.TPrim{Prim: types.I32},
				Body: []Stmt{
					&Return{Value: &BinOp{
						Op:    "+",
						Left:  &Var{Name: "x", Slot: 0},
						Right: &Literal{Kind: IntLit, Value: value},
					}},
				},
			}},
		}
	}

	a := build(1)
	b := build(1)
	require.Empty(t, cmp.Diff(a, b), "two modules built the same way must be structurally equal")

	c := build(2)
	diff := cmp.Diff(a, c)
	require.NotEmpty(t, diff, "a different literal value must surface as a diff")
}
