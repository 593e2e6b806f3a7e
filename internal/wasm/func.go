package wasm

import (
	"fmt"

	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/types"
)

type loopFrame struct {
	exitLabel int // br here = break
	contLabel int // br here = continue
}

// funcEmitter holds the per-function state codegen needs: the module-wide
// slot -> local-word mapping (hir.Var.Slot is unique across the whole
// module, §4 ledger's slot-threading note; wasm locals are 0-based per
// function, so this map is rebuilt fresh for each function), the running
// instruction buffer, and the structured-control-flow bookkeeping Break/
// Continue resolve against.
type funcEmitter struct {
	e          *Emitter
	localWords map[int][]uint32 // hir slot -> local indices, one per ABI word
	extra      []localDecl
	nextLocal  uint32
	code       []byte
	blockDepth int
	loops      []loopFrame
	nextTemp   int // counts down; synthetic slots for codegen-only temporaries never collide with a real hir slot (those are >= 0)
}

// newTemp reserves a codegen-only local — for match scrutinees, record/
// tuple construction's base pointer, and similar values with no
// surface-level binder of their own.
func (fe *funcEmitter) newTemp(t types.Type) ([]uint32, error) {
	fe.nextTemp--
	return fe.allocLocal(fe.nextTemp, t)
}

func (e *Emitter) emitFunction(fn *hir.Function) ([]localDecl, []byte, error) {
	fe := &funcEmitter{e: e, localWords: map[int][]uint32{}}
	for _, p := range fn.Params {
		words, err := WidenMulti(p.Type)
		if err != nil {
			return nil, nil, err
		}
		idxs := make([]uint32, len(words))
		for i := range words {
			idxs[i] = fe.nextLocal
			fe.nextLocal++
		}
		fe.localWords[p.Slot] = idxs
	}
	for _, s := range fn.Body {
		if err := fe.emitStmt(s); err != nil {
			return nil, nil, err
		}
	}
	return fe.extra, fe.code, nil
}

// allocLocal reserves fresh local slots for a value of type t, under hir
// slot (a binder's module-wide slot number).
func (fe *funcEmitter) allocLocal(slot int, t types.Type) ([]uint32, error) {
	words, err := WidenMulti(t)
	if err != nil {
		return nil, err
	}
	idxs := make([]uint32, len(words))
	for i, w := range words {
		idxs[i] = fe.nextLocal
		fe.nextLocal++
		fe.extra = append(fe.extra, localDecl{Count: 1, Type: w})
	}
	fe.localWords[slot] = idxs
	return idxs, nil
}

func (fe *funcEmitter) emit(op Opcode)            { fe.code = append(fe.code, byte(op)) }
func (fe *funcEmitter) emitByte(b byte)           { fe.code = append(fe.code, b) }
func (fe *funcEmitter) emitULEB(n uint64)         { fe.code = appendULEB128(fe.code, n) }
func (fe *funcEmitter) emitSLEB(n int64)          { fe.code = appendSLEB128(fe.code, n) }
func (fe *funcEmitter) emitBytes(bs []byte)       { fe.code = append(fe.code, bs...) }

// blockTypeBytes encodes a block/loop/if result-type annotation: void for
// zero words, a bare valtype for one, or (via the multi-value extension to
// the core binary format) a reference into the type section for more than
// one — needed because an arm that yields a string must push two words.
func (fe *funcEmitter) blockTypeBytes(results []ValType) []byte {
	switch len(results) {
	case 0:
		return []byte{BlockVoid}
	case 1:
		return []byte{byte(results[0])}
	default:
		idx := fe.e.b.internType(funcSig{Results: results})
		return appendSLEB128(nil, int64(idx))
	}
}

func (fe *funcEmitter) openBlock(op Opcode, results []ValType) int {
	label := fe.blockDepth
	fe.emit(op)
	fe.emitBytes(fe.blockTypeBytes(results))
	fe.blockDepth++
	return label
}

func (fe *funcEmitter) closeBlock() {
	fe.emit(OpEnd)
	fe.blockDepth--
}

func (fe *funcEmitter) relativeDepth(label int) uint32 {
	return uint32(fe.blockDepth - 1 - label)
}

func (fe *funcEmitter) emitStmt(s hir.Stmt) error {
	switch n := s.(type) {
	case *hir.Val:
		return fe.emitBind(n.Slot, n.Value)
	case *hir.VarStmt:
		return fe.emitBind(n.Slot, n.Value)
	case *hir.Assign:
		return fe.emitAssign(n.Target, n.Value)
	case *hir.ExprStmt:
		words, err := fe.emitExpr(n.X)
		if err != nil {
			return err
		}
		for range words {
			fe.emit(OpDrop)
		}
		return nil
	case *hir.Return:
		if n.Value != nil {
			if _, err := fe.emitExpr(n.Value); err != nil {
				return err
			}
		}
		fe.emit(OpReturn)
		return nil
	case *hir.Break:
		if len(fe.loops) == 0 {
			return &UnsupportedConstruct{What: "break outside a loop"}
		}
		top := fe.loops[len(fe.loops)-1]
		fe.emit(OpBr)
		fe.emitULEB(uint64(fe.relativeDepth(top.exitLabel)))
		return nil
	case *hir.Continue:
		if len(fe.loops) == 0 {
			return &UnsupportedConstruct{What: "continue outside a loop"}
		}
		top := fe.loops[len(fe.loops)-1]
		fe.emit(OpBr)
		fe.emitULEB(uint64(fe.relativeDepth(top.contLabel)))
		return nil
	default:
		return &UnsupportedConstruct{What: fmt.Sprintf("statement form %T", s)}
	}
}

func (fe *funcEmitter) emitBind(slot int, value hir.Expr) error {
	words, err := fe.emitExpr(value)
	if err != nil {
		return err
	}
	idxs, err := fe.allocLocal(slot, value.Type())
	if err != nil {
		return err
	}
	if len(idxs) != len(words) {
		return &UnsupportedConstruct{What: "binder word count mismatch"}
	}
	for i := len(idxs) - 1; i >= 0; i-- {
		fe.emit(OpLocalSet)
		fe.emitULEB(uint64(idxs[i]))
	}
	return nil
}

func (fe *funcEmitter) emitAssign(target, value hir.Expr) error {
	v, ok := target.(*hir.Var)
	if !ok {
		return &UnsupportedConstruct{What: "assignment to a non-local target (field/index assignment is not yet lowered)"}
	}
	words, err := fe.emitExpr(value)
	if err != nil {
		return err
	}
	idxs, ok := fe.localWords[v.Slot]
	if !ok {
		return &UnsupportedConstruct{What: fmt.Sprintf("assignment to unbound local %q", v.Name)}
	}
	if len(idxs) != len(words) {
		return &UnsupportedConstruct{What: "assignment word count mismatch"}
	}
	for i := len(idxs) - 1; i >= 0; i-- {
		fe.emit(OpLocalSet)
		fe.emitULEB(uint64(idxs[i]))
	}
	return nil
}
