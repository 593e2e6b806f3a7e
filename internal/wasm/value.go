package wasm

import (
	"fmt"
	"math"

	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/types"
)

// emitExpr lowers n, leaving exactly WidenMulti(n.Type())'s words on the
// operand stack in order, and returns that ABI shape so callers (Let,
// Return, If's block type, …) can check it lines up.
func (fe *funcEmitter) emitExpr(n hir.Expr) ([]ValType, error) {
	switch x := n.(type) {
	case *hir.Literal:
		return fe.emitLiteral(x)
	case *hir.Var:
		idxs, ok := fe.localWords[x.Slot]
		if !ok {
			return nil, &UnsupportedConstruct{What: fmt.Sprintf("reference to unbound local %q (closures are not yet lowered)", x.Name)}
		}
		words, err := WidenMulti(x.Type())
		if err != nil {
			return nil, err
		}
		for _, idx := range idxs {
			fe.emit(OpLocalGet)
			fe.emitULEB(uint64(idx))
		}
		return words, nil
	case *hir.Let:
		if err := fe.emitBind(x.Slot, x.Value); err != nil {
			return nil, err
		}
		return fe.emitExpr(x.Body)
	case *hir.If:
		return fe.emitIf(x)
	case *hir.Match:
		return fe.emitMatch(x)
	case *hir.BinOp:
		return fe.emitBinOp(x)
	case *hir.App:
		return fe.emitApp(x)
	case *hir.Record:
		return fe.emitRecord(x)
	case *hir.Tuple:
		return fe.emitTuple(x)
	case *hir.Proj:
		return fe.emitProj(x)
	case *hir.Index:
		return fe.emitIndex(x)
	case *hir.Loop:
		if err := fe.emitLoop(x); err != nil {
			return nil, err
		}
		return nil, nil
	case *hir.StmtExpr:
		if err := fe.emitStmt(x.S); err != nil {
			return nil, err
		}
		return nil, nil
	case *hir.Lam:
		return nil, &UnsupportedConstruct{What: "lambda values (closure conversion is not implemented; only top-level named functions are callable from wasm)"}
	case *hir.Call:
		return nil, &UnsupportedConstruct{What: fmt.Sprintf("trait method call %s::%s (dynamic dispatch has no ABI representation yet)", x.Trait, x.Method)}
	default:
		return nil, &UnsupportedConstruct{What: fmt.Sprintf("expression form %T", n)}
	}
}

func (fe *funcEmitter) emitLiteral(x *hir.Literal) ([]ValType, error) {
	switch x.Kind {
	case hir.IntLit:
		v, _ := x.Value.(int64)
		vt, err := Widen(x.Type())
		if err != nil {
			vt = ValI64
		}
		if vt == ValI32 {
			fe.emit(OpI32Const)
			fe.emitSLEB(v)
			return []ValType{ValI32}, nil
		}
		fe.emit(OpI64Const)
		fe.emitSLEB(v)
		return []ValType{ValI64}, nil
	case hir.FloatLit:
		v, _ := x.Value.(float64)
		fe.emit(OpF64Const)
		fe.emitBytes(f64Bytes(v))
		return []ValType{ValF64}, nil
	case hir.BoolLit:
		b, _ := x.Value.(bool)
		fe.emit(OpI32Const)
		if b {
			fe.emitSLEB(1)
		} else {
			fe.emitSLEB(0)
		}
		return []ValType{ValI32}, nil
	case hir.StringLit:
		s, _ := x.Value.(string)
		off, length := fe.e.pool.Intern(s)
		fe.emit(OpI32Const)
		fe.emitSLEB(int64(off))
		fe.emit(OpI32Const)
		fe.emitSLEB(int64(length))
		return []ValType{ValI32, ValI32}, nil
	case hir.UnitLit:
		return nil, nil
	}
	return nil, &UnsupportedConstruct{What: "unknown literal kind"}
}

func f64Bytes(v float64) []byte {
	bits := math.Float64bits(v)
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(bits >> (8 * i))
	}
	return out
}

func (fe *funcEmitter) emitIf(x *hir.If) ([]ValType, error) {
	if _, err := fe.emitExpr(x.Cond); err != nil {
		return nil, err
	}
	results, err := WidenMulti(x.Type())
	if err != nil {
		return nil, err
	}
	fe.openBlock(OpIf, results)
	thenWords, err := fe.emitExpr(x.Then)
	if err != nil {
		return nil, err
	}
	fe.emit(OpElse)
	elseWords, err := fe.emitExpr(x.Else)
	if err != nil {
		return nil, err
	}
	fe.closeBlock()
	if len(thenWords) != len(results) || len(elseWords) != len(results) {
		return nil, &UnsupportedConstruct{What: "if/else arms disagree on ABI word count"}
	}
	return results, nil
}

func (fe *funcEmitter) emitLoop(x *hir.Loop) error {
	exitLabel := fe.openBlock(OpBlock, nil)
	contLabel := fe.openBlock(OpLoop, nil)
	fe.loops = append(fe.loops, loopFrame{exitLabel: exitLabel, contLabel: contLabel})
	for _, s := range x.Body {
		if err := fe.emitStmt(s); err != nil {
			return err
		}
	}
	fe.loops = fe.loops[:len(fe.loops)-1]
	// Unconditional branch back to the loop header: iteration continues
	// until an explicit Break (br to exitLabel, two levels out) is hit.
	fe.emit(OpBr)
	fe.emitULEB(uint64(fe.relativeDepth(contLabel)))
	fe.closeBlock() // loop
	fe.closeBlock() // block
	return nil
}

func (fe *funcEmitter) emitBinOp(x *hir.BinOp) ([]ValType, error) {
	left, err := fe.emitExpr(x.Left)
	if err != nil {
		return nil, err
	}
	if _, err := fe.emitExpr(x.Right); err != nil {
		return nil, err
	}
	if len(left) != 1 {
		return nil, &UnsupportedConstruct{What: "binary operator on a non-scalar operand"}
	}
	vt := left[0]
	op, result, err := binOpcode(x.Op, vt)
	if err != nil {
		return nil, err
	}
	fe.emit(op)
	return []ValType{result}, nil
}

func binOpcode(op string, vt ValType) (Opcode, ValType, error) {
	isF := vt == ValF32 || vt == ValF64
	is64 := vt == ValI64
	switch op {
	case "+":
		if isF {
			return OpF64Add, vt, nil
		}
		if is64 {
			return OpI64Add, vt, nil
		}
		return OpI32Add, vt, nil
	case "-":
		if isF {
			return OpF64Sub, vt, nil
		}
		if is64 {
			return OpI64Sub, vt, nil
		}
		return OpI32Sub, vt, nil
	case "*":
		if isF {
			return OpF64Mul, vt, nil
		}
		if is64 {
			return OpI64Mul, vt, nil
		}
		return OpI32Mul, vt, nil
	case "/":
		if isF {
			return OpF64Div, vt, nil
		}
		if is64 {
			return OpI64DivS, vt, nil
		}
		return OpI32DivS, vt, nil
	case "%":
		if is64 {
			return OpI64RemS, vt, nil
		}
		return OpI32RemS, vt, nil
	case "==":
		if isF {
			return OpF64Eq, ValI32, nil
		}
		if is64 {
			return OpI64Eq, ValI32, nil
		}
		return OpI32Eq, ValI32, nil
	case "!=":
		if is64 {
			return OpI64Ne, ValI32, nil
		}
		return OpI32Ne, ValI32, nil
	case "<":
		if isF {
			return OpF64Lt, ValI32, nil
		}
		if is64 {
			return OpI64LtS, ValI32, nil
		}
		return OpI32LtS, ValI32, nil
	case ">":
		if isF {
			return OpF64Gt, ValI32, nil
		}
		if is64 {
			return OpI64GtS, ValI32, nil
		}
		return OpI32GtS, ValI32, nil
	case "<=":
		if isF {
			return OpF64Le, ValI32, nil
		}
		if is64 {
			return OpI64LeS, ValI32, nil
		}
		return OpI32LeS, ValI32, nil
	case ">=":
		if isF {
			return OpF64Ge, ValI32, nil
		}
		if is64 {
			return OpI64GeS, ValI32, nil
		}
		return OpI32GeS, ValI32, nil
	case "&&":
		return OpI32And, ValI32, nil
	case "||":
		return OpI32Or, ValI32, nil
	}
	return 0, 0, &UnsupportedConstruct{What: "binary operator " + op}
}

func (fe *funcEmitter) emitApp(x *hir.App) ([]ValType, error) {
	v, ok := x.Func.(*hir.Var)
	if !ok {
		return nil, &UnsupportedConstruct{What: "indirect call through a non-literal callee (first-class functions are not lowered)"}
	}
	idx, ok := fe.e.funcIdx[v.Name]
	if !ok {
		return nil, &UnsupportedConstruct{What: fmt.Sprintf("call to unresolved function %q", v.Name)}
	}
	for _, a := range x.Args {
		if _, err := fe.emitExpr(a); err != nil {
			return nil, err
		}
	}
	fe.emit(OpCall)
	fe.emitULEB(uint64(idx))

	if hir.HostPrimitives[v.Name] {
		sig, _ := hostPrimitiveSig(v.Name)
		return sig.Results, nil
	}
	if callee, ok := fe.e.funcs[v.Name]; ok {
		return WidenMulti(callee.Ret)
	}
	return nil, nil
}

// emitRecord allocates space for x via the host allocator, stores each
// field at its declared offset, and leaves the pointer on the stack. The
// allocation reserves the tag word (see tagPayloadOffset), but emitRecord
// does not write it.
func (fe *funcEmitter) emitRecord(x *hir.Record) ([]ValType, error) {
	// A record literal always builds the Tag=="" (plain-record) variant of
	// its named type (§3.4's RecordLit has no tag of its own), hence the
	// trailing-dot key. This emitter has no construction path for tagged
	// enum variants.
	key := x.TypeName + "."
	layout, ok := fe.e.layouts[key]
	if !ok {
		// Anonymous record literal (no declared TypeDecl, §9 Open
		// Question decision): lay it out ad hoc from its field list.
		variant := hir.Variant{}
		for _, f := range x.Fields {
			variant.Fields = append(variant.Fields, hir.Field{Name: f.Name, Type: f.Value.Type()})
		}
		rl, err := LayoutRecord(variant)
		if err != nil {
			return nil, err
		}
		layout = rl
	}
	allocIdx, ok := fe.e.funcIdx["vudo_alloc"]
	if !ok {
		return nil, &UnsupportedConstruct{What: "record construction needs vudo_alloc, which was not imported"}
	}

	ptrLocal, err := fe.newTemp(types.TPrim{Prim: types.I32})
	if err != nil {
		return nil, err
	}
	fe.emit(OpI32Const)
	fe.emitSLEB(int64(tagPayloadOffset) + int64(layout.TotalSize))
	fe.emit(OpCall)
	fe.emitULEB(uint64(allocIdx))
	fe.emit(OpLocalSet)
	fe.emitULEB(uint64(ptrLocal[0]))

	for _, f := range x.Fields {
		off, ok := layout.FieldOffset(f.Name)
		if !ok {
			return nil, &LayoutError{FieldName: f.Name, Reason: "field not present in " + key + "'s layout"}
		}
		fe.emit(OpLocalGet)
		fe.emitULEB(uint64(ptrLocal[0]))
		words, err := fe.emitExpr(f.Value)
		if err != nil {
			return nil, err
		}
		if err := fe.emitStoreAt(tagPayloadOffset+off, words); err != nil {
			return nil, err
		}
	}
	fe.emit(OpLocalGet)
	fe.emitULEB(uint64(ptrLocal[0]))
	return []ValType{ValI32}, nil
}

// emitStoreAt stores words (already on the stack above the address pushed
// by the caller) at constant offset off from that address.
func (fe *funcEmitter) emitStoreAt(off uint32, words []ValType) error {
	if len(words) != 1 {
		return &UnsupportedConstruct{What: "multi-word field store (string-valued fields are not yet lowered)"}
	}
	switch words[0] {
	case ValI32:
		fe.emit(OpI32Store)
	case ValI64:
		fe.emit(OpI64Store)
	case ValF32:
		fe.emit(OpF32Store)
	case ValF64:
		fe.emit(OpF64Store)
	}
	fe.emitByte(0x02) // alignment hint (4-byte natural alignment)
	fe.emitULEB(uint64(off))
	return nil
}

func (fe *funcEmitter) emitTuple(x *hir.Tuple) ([]ValType, error) {
	variant := hir.Variant{}
	for i, el := range x.Elems {
		variant.Fields = append(variant.Fields, hir.Field{Name: fmt.Sprintf("_%d", i), Type: el.Type()})
	}
	layout, err := LayoutRecord(variant)
	if err != nil {
		return nil, err
	}
	allocIdx, ok := fe.e.funcIdx["vudo_alloc"]
	if !ok {
		return nil, &UnsupportedConstruct{What: "tuple construction needs vudo_alloc, which was not imported"}
	}
	ptrLocal, err := fe.newTemp(types.TPrim{Prim: types.I32})
	if err != nil {
		return nil, err
	}
	fe.emit(OpI32Const)
	fe.emitSLEB(int64(layout.TotalSize))
	fe.emit(OpCall)
	fe.emitULEB(uint64(allocIdx))
	fe.emit(OpLocalSet)
	fe.emitULEB(uint64(ptrLocal[0]))
	for i, el := range x.Elems {
		fe.emit(OpLocalGet)
		fe.emitULEB(uint64(ptrLocal[0]))
		words, err := fe.emitExpr(el)
		if err != nil {
			return nil, err
		}
		if err := fe.emitStoreAt(layout.Fields[i].Offset, words); err != nil {
			return nil, err
		}
	}
	fe.emit(OpLocalGet)
	fe.emitULEB(uint64(ptrLocal[0]))
	return []ValType{ValI32}, nil
}

func (fe *funcEmitter) emitProj(x *hir.Proj) ([]ValType, error) {
	if _, err := fe.emitExpr(x.Record); err != nil {
		return nil, err
	}
	rt, ok := x.Record.Type().(types.TNamed)
	if !ok {
		return nil, &UnsupportedConstruct{What: "projection on a non-record type"}
	}
	layout, ok := fe.e.layouts[rt.Name+"."]
	if !ok {
		return nil, &LayoutError{FieldName: x.Field, Reason: "no layout recorded for " + rt.Name}
	}
	off, ok := layout.FieldOffset(x.Field)
	if !ok {
		return nil, &LayoutError{FieldName: x.Field, Reason: "unknown field on " + rt.Name}
	}
	words, err := WidenMulti(x.Type())
	if err != nil {
		return nil, err
	}
	if len(words) != 1 {
		return nil, &UnsupportedConstruct{What: "projection of a multi-word field"}
	}
	switch words[0] {
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
	fe.emitULEB(uint64(tagPayloadOffset + off))
	return words, nil
}

func (fe *funcEmitter) emitIndex(x *hir.Index) ([]ValType, error) {
	vec, ok := x.Base.Type().(types.TVec)
	if !ok {
		return nil, &UnsupportedConstruct{What: "indexing a non-Vec type"}
	}
	elemWords, err := WidenMulti(vec.Elem)
	if err != nil {
		return nil, err
	}
	if len(elemWords) != 1 {
		return nil, &UnsupportedConstruct{What: "indexing a Vec of multi-word elements"}
	}
	size, _, err := sizeAndAlignOf(vec.Elem)
	if err != nil {
		return nil, err
	}
	if _, err := fe.emitExpr(x.Base); err != nil {
		return nil, err
	}
	if _, err := fe.emitExpr(x.Index); err != nil {
		return nil, err
	}
	fe.emit(OpI32Const)
	fe.emitSLEB(int64(size))
	fe.emit(OpI32Mul)
	fe.emit(OpI32Add)
	switch elemWords[0] {
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
	fe.emitULEB(0)
	return elemWords, nil
}
