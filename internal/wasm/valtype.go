package wasm

import (
	"fmt"

	"github.com/vudoc/vudoc/internal/types"
)

// ValType is a WebAssembly value type byte.
type ValType byte

const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

// Widen implements §4.5's type-widening table: i8/i16/i32 and bool all flow
// through WebAssembly as i32, i64 stays i64, f32/f64 stay themselves, and
// string surfaces as the two-word (ptr, len) pair — callers needing a
// string's ABI shape should call WidenMulti instead.
func Widen(t types.Type) (ValType, error) {
	switch x := t.(type) {
	case types.TPrim:
		switch x.Prim {
		case types.I8, types.I16, types.I32, types.U8, types.U16, types.U32, types.Bool:
			return ValI32, nil
		case types.I64, types.U64:
			return ValI64, nil
		case types.F32:
			return ValF32, nil
		case types.F64:
			return ValF64, nil
		case types.Unit:
			return 0, errUnitHasNoValType
		}
	case types.TVar, types.TUnknown:
		// Left unresolved past generalisation; the emitter must not be
		// asked to widen an unsolved type variable (§4.4 defaults
		// unsuffixed literals to i64/f64 at generalisation time).
		return ValI64, nil
	case types.TNamed, types.TTuple, types.TVec, types.TOption, types.TResult, types.TMap, types.TArray:
		// Records, tuples, and the boxed compound types are heap-allocated
		// by the emitter (emitRecord/emitTuple) and always carry as a
		// single i32 pointer at the ABI level, never inlined into locals or
		// the call stack.
		return ValI32, nil
	}
	return 0, &UnsupportedConstruct{What: fmt.Sprintf("cannot widen type %s to a WebAssembly value type", t)}
}

var errUnitHasNoValType = &UnsupportedConstruct{What: "unit carries no WebAssembly value representation"}

// WidenMulti returns the ABI-level sequence of ValTypes t occupies: every
// scalar is one word, string is (i32 ptr, i32 len), and unit occupies zero
// words (absent from both params and results).
func WidenMulti(t types.Type) ([]ValType, error) {
	if p, ok := t.(types.TPrim); ok {
		switch p.Prim {
		case types.Unit:
			return nil, nil
		case types.Str:
			return []ValType{ValI32, ValI32}, nil
		}
	}
	v, err := Widen(t)
	if err != nil {
		return nil, err
	}
	return []ValType{v}, nil
}
