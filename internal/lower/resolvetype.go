package lower

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/types"
)

var primByName = map[string]types.Prim{
	"i8": types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64,
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64,
	"f32": types.F32, "f64": types.F64,
	"bool": types.Bool, "string": types.Str, "unit": types.Unit,
}

// resolveType converts a parsed type expression into the checker/emitter's
// value-type lattice. Generic arguments on well-known compound names
// (Vec/Option/Result/Map) become their dedicated lattice members; anything
// else stays a named (possibly parameterised) user type, resolved fully
// only once internal/types has seen every declaration.
func resolveType(t ast.Type) types.Type {
	if t == nil {
		return types.TUnknown{}
	}
	switch n := t.(type) {
	case *ast.NamedType:
		if p, ok := primByName[n.Name]; ok {
			return types.TPrim{Prim: p}
		}
		switch n.Name {
		case "Vec":
			if len(n.Args) == 1 {
				return types.TVec{Elem: resolveType(n.Args[0])}
			}
		case "Option":
			if len(n.Args) == 1 {
				return types.TOption{Elem: resolveType(n.Args[0])}
			}
		case "Result":
			if len(n.Args) == 2 {
				return types.TResult{Ok: resolveType(n.Args[0]), Err: resolveType(n.Args[1])}
			}
		case "Map":
			if len(n.Args) == 2 {
				return types.TMap{Key: resolveType(n.Args[0]), Val: resolveType(n.Args[1])}
			}
		case "Any":
			return types.TAny{}
		case "Never":
			return types.TNever{}
		}
		args := make([]types.Type, len(n.Args))
		for i, a := range n.Args {
			args[i] = resolveType(a)
		}
		return types.TNamed{Name: n.Name, Args: args}
	case *ast.FuncType:
		params := make([]types.Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = resolveType(p)
		}
		return types.TFunc{Params: params, Ret: resolveType(n.Ret)}
	case *ast.TupleType:
		elems := make([]types.Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = resolveType(e)
		}
		return types.TTuple{Elems: elems}
	case *ast.ArrayType:
		return types.TArray{Elem: resolveType(n.Element), Size: n.Size}
	default:
		return types.TUnknown{}
	}
}
