package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestFuncTypeStructuralEquality exercises the teacher's go-cmp dependency
// against the type lattice directly: two TFunc values built independently
// from the same parameter/return shape must compare structurally equal,
// and Equal's own string-based notion of equality must agree with it.
func TestFuncTypeStructuralEquality(t *testing.T) {
	a := TFunc{Params: []Type{TPrim{Prim: I32}, TNamed{Name: "Widget", Args: []Type{TPrim{Prim: Str}}}}, Ret: TPrim{Prim: Bool}}
	b := TFunc{Params: []Type{TPrim{Prim: I32}, TNamed{Name: "Widget", Args: []Type{TPrim{Prim: Str}}}}, Ret: TPrim{Prim: Bool}}

	require.Empty(t, cmp.Diff(a, b))
	require.True(t, Equal(a, b))

	c := TFunc{Params: []Type{TPrim{Prim: I64}, TNamed{Name: "Widget", Args: []Type{TPrim{Prim: Str}}}}, Ret: TPrim{Prim: Bool}}
	require.NotEmpty(t, cmp.Diff(a, c))
	require.False(t, Equal(a, c))
}

func TestEqualTreatsNilAsIdentity(t *testing.T) {
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(TPrim{Prim: I32}, nil))
}
