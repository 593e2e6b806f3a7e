package wasm

import (
	"fmt"

	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/types"
)

// emitMatch lowers a Match into a chain of nested if/else blocks, one per
// case in source order, using the multi-value block type so every arm
// (whatever its ABI word count) produces the same shape. The scrutinee is
// evaluated once into codegen-only locals; every case's pattern test and
// bindings read from those locals rather than re-evaluating the scrutinee.
//
// Open Question decision: only Wildcard, Binder, Literal (int/bool),
// Constructor (one level of Wildcard/Binder args), and Tuple (one level of
// Wildcard/Binder elements) patterns are lowered. Record and Range
// patterns, and nested sub-patterns beyond one level, have no codegen here
// yet — §3.6 specifies record *field layout* but never a discriminated
// match's memory convention, so this emitter's tag+payload scheme
// (tagPayloadOffset) and this pattern subset are this package's own choice,
// not one carried over from the checker or the surface grammar.
func (fe *funcEmitter) emitMatch(x *hir.Match) ([]ValType, error) {
	scrutWords, err := fe.emitExpr(x.Scrutinee)
	if err != nil {
		return nil, err
	}
	locals, err := fe.newTemp(x.Scrutinee.Type())
	if err != nil {
		return nil, err
	}
	if len(locals) != len(scrutWords) {
		return nil, &UnsupportedConstruct{What: "match scrutinee word count mismatch"}
	}
	for i := len(locals) - 1; i >= 0; i-- {
		fe.emit(OpLocalSet)
		fe.emitULEB(uint64(locals[i]))
	}

	results, err := WidenMulti(x.Type())
	if err != nil {
		return nil, err
	}
	if err := fe.emitMatchChain(x.Cases, x.Scrutinee.Type(), locals, results); err != nil {
		return nil, err
	}
	return results, nil
}

func (fe *funcEmitter) emitMatchChain(cases []hir.MatchCase, scrutType types.Type, locals []uint32, results []ValType) error {
	if len(cases) == 0 {
		// Exhaustiveness is not checked upstream yet; a match that falls off
		// the end at runtime is a checker gap, not a codegen one.
		fe.emit(OpUnreachable)
		return nil
	}
	c := cases[0]
	bindFn, err := fe.emitPatternTest(c.Pattern, scrutType, locals)
	if err != nil {
		return err
	}
	fe.openBlock(OpIf, results)
	if err := bindFn(); err != nil {
		return err
	}
	if c.Guard != nil {
		if _, err := fe.emitExpr(c.Guard); err != nil {
			return err
		}
		fe.openBlock(OpIf, results)
		if _, err := fe.emitExpr(c.Body); err != nil {
			return err
		}
		fe.emit(OpElse)
		if err := fe.emitMatchChain(cases[1:], scrutType, locals, results); err != nil {
			return err
		}
		fe.closeBlock()
	} else {
		if _, err := fe.emitExpr(c.Body); err != nil {
			return err
		}
	}
	fe.emit(OpElse)
	if err := fe.emitMatchChain(cases[1:], scrutType, locals, results); err != nil {
		return err
	}
	fe.closeBlock()
	return nil
}

// emitPatternTest emits code that pushes an i32 boolean (pat matches the
// value held in locals) and returns a closure the caller must invoke once,
// inside that test's true branch, to perform any bindings the pattern
// introduces.
func (fe *funcEmitter) emitPatternTest(pat hir.Pattern, scrutType types.Type, locals []uint32) (func() error, error) {
	switch p := pat.(type) {
	case hir.WildcardPattern:
		fe.emit(OpI32Const)
		fe.emitSLEB(1)
		return func() error { return nil }, nil

	case hir.BinderPattern:
		fe.emit(OpI32Const)
		fe.emitSLEB(1)
		return func() error {
			fe.localWords[p.Slot] = locals
			return nil
		}, nil

	case hir.LiteralPattern:
		if len(locals) != 1 {
			return nil, &UnsupportedConstruct{What: "literal pattern against a multi-word scrutinee"}
		}
		fe.emit(OpLocalGet)
		fe.emitULEB(uint64(locals[0]))
		switch p.Kind {
		case hir.IntLit:
			v, _ := p.Value.(int64)
			vt, _ := Widen(scrutType)
			if vt == ValI64 {
				fe.emit(OpI64Const)
				fe.emitSLEB(v)
				fe.emit(OpI64Eq)
			} else {
				fe.emit(OpI32Const)
				fe.emitSLEB(v)
				fe.emit(OpI32Eq)
			}
		case hir.BoolLit:
			b, _ := p.Value.(bool)
			fe.emit(OpI32Const)
			if b {
				fe.emitSLEB(1)
			} else {
				fe.emitSLEB(0)
			}
			fe.emit(OpI32Eq)
		default:
			return nil, &UnsupportedConstruct{What: "literal pattern of this kind (only int and bool are lowered)"}
		}
		return func() error { return nil }, nil

	case hir.ConstructorPattern:
		named, ok := scrutType.(types.TNamed)
		if !ok {
			return nil, &UnsupportedConstruct{What: "constructor pattern against a non-enum scrutinee"}
		}
		key := named.Name + "." + p.Tag
		tag, ok := fe.e.variants[key]
		layout, lok := fe.e.layouts[key]
		if !ok || !lok {
			return nil, &UnsupportedConstruct{What: "constructor pattern for unknown variant " + key}
		}
		if len(locals) != 1 {
			return nil, &UnsupportedConstruct{What: "constructor pattern against a multi-word scrutinee"}
		}
		fe.emit(OpLocalGet)
		fe.emitULEB(uint64(locals[0]))
		fe.emit(OpI32Load)
		fe.emitByte(0x02)
		fe.emitULEB(0)
		fe.emit(OpI32Const)
		fe.emitSLEB(int64(tag))
		fe.emit(OpI32Eq)
		ptrLocal := locals[0]
		return func() error {
			for i, argPat := range p.Args {
				if i >= len(layout.Fields) {
					return &UnsupportedConstruct{What: "constructor pattern has more arguments than " + key + " has fields"}
				}
				field := layout.Fields[i]
				fieldWords, err := WidenMulti(field.Type)
				if err != nil {
					return err
				}
				if len(fieldWords) != 1 {
					return &UnsupportedConstruct{What: "destructuring a multi-word constructor field"}
				}
				switch b := argPat.(type) {
				case hir.WildcardPattern:
					continue
				case hir.BinderPattern:
					dst, err := fe.allocLocal(b.Slot, field.Type)
					if err != nil {
						return err
					}
					fe.emit(OpLocalGet)
					fe.emitULEB(uint64(ptrLocal))
					switch fieldWords[0] {
					case ValI32:
						fe.emit(OpI32Load)
					case ValI64:
						fe.emit(OpI64Load)
					case ValF32:
						fe.emit(OpF32Load)
					case ValF64:
						fe.emit(OpF64Load)
					}
					fe.emitByte(0x02)
					fe.emitULEB(uint64(tagPayloadOffset + field.Offset))
					fe.emit(OpLocalSet)
					fe.emitULEB(uint64(dst[0]))
				default:
					return &UnsupportedConstruct{What: "nested sub-pattern inside a constructor pattern"}
				}
			}
			return nil
		}, nil

	case hir.TuplePattern:
		tup, ok := scrutType.(types.TTuple)
		if !ok {
			return nil, &UnsupportedConstruct{What: "tuple pattern against a non-tuple scrutinee"}
		}
		variant := hir.Variant{}
		for i, t := range tup.Elems {
			variant.Fields = append(variant.Fields, hir.Field{Name: fmt.Sprintf("_%d", i), Type: t})
		}
		layout, err := LayoutRecord(variant)
		if err != nil {
			return nil, err
		}
		if len(locals) != 1 {
			return nil, &UnsupportedConstruct{What: "tuple pattern against a multi-word scrutinee"}
		}
		ptrLocal := locals[0]
		fe.emit(OpI32Const)
		fe.emitSLEB(1)
		return func() error {
			for i, elemPat := range p.Elems {
				if i >= len(layout.Fields) {
					return &UnsupportedConstruct{What: "tuple pattern has more elements than the scrutinee"}
				}
				field := layout.Fields[i]
				fieldWords, err := WidenMulti(field.Type)
				if err != nil {
					return err
				}
				if len(fieldWords) != 1 {
					return &UnsupportedConstruct{What: "destructuring a multi-word tuple element"}
				}
				switch b := elemPat.(type) {
				case hir.WildcardPattern:
					continue
				case hir.BinderPattern:
					dst, err := fe.allocLocal(b.Slot, field.Type)
					if err != nil {
						return err
					}
					fe.emit(OpLocalGet)
					fe.emitULEB(uint64(ptrLocal))
					switch fieldWords[0] {
					case ValI32:
						fe.emit(OpI32Load)
					case ValI64:
						fe.emit(OpI64Load)
					case ValF32:
						fe.emit(OpF32Load)
					case ValF64:
						fe.emit(OpF64Load)
					}
					fe.emitByte(0x02)
					fe.emitULEB(uint64(field.Offset))
					fe.emit(OpLocalSet)
					fe.emitULEB(uint64(dst[0]))
				default:
					return &UnsupportedConstruct{What: "nested sub-pattern inside a tuple pattern"}
				}
			}
			return nil
		}, nil

	case hir.RecordPattern:
		return nil, &UnsupportedConstruct{What: "record pattern (field-name destructuring in match arms is not yet lowered)"}
	case hir.RangePattern:
		return nil, &UnsupportedConstruct{What: "range pattern"}
	default:
		return nil, &UnsupportedConstruct{What: fmt.Sprintf("pattern form %T", pat)}
	}
}
