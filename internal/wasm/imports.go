package wasm

import "github.com/vudoc/vudoc/internal/hir"

// HostNamespace is every host import's module name (§4.5, §4.6).
const HostNamespace = "vudo"

// hostPrimitiveSig is the ABI signature table of §4.6, independent of the
// type-checker's view of these names (the checker never resolves a
// vudo_* call through hir.Function.Ret; it only flags purity).
func hostPrimitiveSig(name string) (funcSig, bool) {
	i32, i64, f64 := ValI32, ValI64, ValF64
	switch name {
	case "vudo_print", "vudo_println", "vudo_error":
		return funcSig{Params: []ValType{i32, i32}}, true
	case "vudo_log":
		return funcSig{Params: []ValType{i32, i32, i32}}, true
	case "vudo_alloc":
		return funcSig{Params: []ValType{i32}, Results: []ValType{i32}}, true
	case "vudo_free":
		return funcSig{Params: []ValType{i32, i32}}, true
	case "vudo_realloc":
		return funcSig{Params: []ValType{i32, i32, i32}, Results: []ValType{i32}}, true
	case "vudo_now":
		return funcSig{Results: []ValType{i64}}, true
	case "vudo_sleep":
		return funcSig{Params: []ValType{i32}}, true
	case "vudo_monotonic_now":
		return funcSig{Results: []ValType{i64}}, true
	case "vudo_send":
		return funcSig{Params: []ValType{i32, i32, i32, i32}, Results: []ValType{i32}}, true
	case "vudo_recv":
		return funcSig{Params: []ValType{i32, i32, i32}, Results: []ValType{i32}}, true
	case "vudo_pending":
		return funcSig{Results: []ValType{i32}}, true
	case "vudo_broadcast":
		return funcSig{Params: []ValType{i32, i32}, Results: []ValType{i32}}, true
	case "vudo_free_message":
		return funcSig{Params: []ValType{i32}}, true
	case "vudo_random":
		return funcSig{Results: []ValType{f64}}, true
	case "vudo_random_bytes":
		return funcSig{Params: []ValType{i32, i32}}, true
	case "vudo_emit_effect":
		return funcSig{Params: []ValType{i32, i32, i32}, Results: []ValType{i32}}, true
	case "vudo_subscribe":
		return funcSig{Params: []ValType{i32, i32}, Results: []ValType{i32}}, true
	case "vudo_breakpoint":
		return funcSig{}, true
	case "vudo_assert":
		return funcSig{Params: []ValType{i32, i32, i32}}, true
	case "vudo_panic":
		return funcSig{Params: []ValType{i32, i32}}, true
	}
	return funcSig{}, false
}

// collectImports walks m's function bodies for every call whose resolved
// callee name matches one of the 22 host primitives (§4.5's "Import
// extraction"), returning the referenced set. Only names actually called
// are imported — the invariant §8.5 ("import minimality") checks.
func collectImports(m *hir.Module) map[string]bool {
	referenced := map[string]bool{}
	var walkExpr func(hir.Expr)
	var walkStmt func(hir.Stmt)

	walkExpr = func(e hir.Expr) {
		if e == nil {
			return
		}
		switch x := e.(type) {
		case *hir.App:
			if v, ok := x.Func.(*hir.Var); ok && hir.HostPrimitives[v.Name] {
				referenced[v.Name] = true
			}
			walkExpr(x.Func)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *hir.Lam:
			walkExpr(x.Body)
		case *hir.Let:
			walkExpr(x.Value)
			walkExpr(x.Body)
		case *hir.If:
			walkExpr(x.Cond)
			walkExpr(x.Then)
			walkExpr(x.Else)
		case *hir.Match:
			walkExpr(x.Scrutinee)
			for _, c := range x.Cases {
				walkExpr(c.Guard)
				walkExpr(c.Body)
			}
		case *hir.Proj:
			walkExpr(x.Record)
		case *hir.Call:
			walkExpr(x.Receiver)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *hir.BinOp:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *hir.Record:
			for _, f := range x.Fields {
				walkExpr(f.Value)
			}
		case *hir.Tuple:
			for _, el := range x.Elems {
				walkExpr(el)
			}
		case *hir.Index:
			walkExpr(x.Base)
			walkExpr(x.Index)
		case *hir.Loop:
			for _, s := range x.Body {
				walkStmt(s)
			}
		case *hir.StmtExpr:
			walkStmt(x.S)
		}
	}

	walkStmt = func(s hir.Stmt) {
		switch n := s.(type) {
		case *hir.Val:
			walkExpr(n.Value)
		case *hir.VarStmt:
			walkExpr(n.Value)
		case *hir.Assign:
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *hir.ExprStmt:
			walkExpr(n.X)
		case *hir.Return:
			walkExpr(n.Value)
		}
	}

	for _, fn := range m.Functions {
		for _, s := range fn.Body {
			walkStmt(s)
		}
	}
	return referenced
}
