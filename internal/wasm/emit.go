// Package wasm implements §3.6/§4.5: it turns one typed internal/hir.Module
// into a WebAssembly module's raw bytes. The teacher ships only a
// GOOS=js/wasm REPL bridge (cmd/wasm), not a byte emitter, so the codegen
// here has no teacher precedent beyond its low-level-buffer style (see
// DESIGN.md); the binary format itself is the WebAssembly core
// specification, not an invented design.
package wasm

import (
	"fmt"

	"github.com/vudoc/vudoc/internal/hir"
)

// Config carries the handful of emission-time choices internal/config
// exposes (memory sizing); zero value is §3.6's default (1 growable page,
// 64 KiB stack).
type Config struct {
	InitialPages uint32
	MaxPages     uint32
	HasMaxPages  bool
}

// tagged is the emitter's convention for a user-defined enum's memory
// representation, an Open Question §3.6 leaves unspecified beyond record
// field layout: a pointer to `[tag: i32][pad: i32][variant fields...]`,
// tag being the 0-based index of the matched hir.Variant within its
// hir.TypeDecl, payload starting at a fixed offset 8 so every variant of
// one type shares one struct shape regardless of which arm is live.
const tagPayloadOffset = 8

// Emitter walks one checked hir.Module and produces its WebAssembly bytes.
type Emitter struct {
	b        *Builder
	pool     *StringPool
	funcIdx  map[string]uint32
	funcs    map[string]*hir.Function
	layouts  map[string]*RecordLayout // keyed "TypeName.Tag"
	variants map[string]int           // keyed "TypeName.Tag" -> declaration index
}

// Emit implements §4.5 end to end: import extraction, string pool,
// record layout, function lowering, and final byte assembly. A fatal
// emitter error aborts with no partial module returned, matching §4.5's
// stated failure mode.
func Emit(m *hir.Module, cfg Config) ([]byte, error) {
	e := &Emitter{
		b:        NewBuilder(),
		pool:     NewStringPool(),
		funcIdx:  map[string]uint32{},
		funcs:    map[string]*hir.Function{},
		layouts:  map[string]*RecordLayout{},
		variants: map[string]int{},
	}
	if cfg.InitialPages > 0 {
		e.b.SetMemoryPages(cfg.InitialPages, cfg.MaxPages, cfg.HasMaxPages)
	}

	for _, td := range m.Types {
		for i, v := range td.Variants {
			key := td.Name + "." + v.Tag
			e.variants[key] = i
			rl, err := LayoutRecord(v)
			if err != nil {
				return nil, err
			}
			e.layouts[key] = rl
		}
	}

	referenced := collectImports(m)
	if usesHeapAllocation(m) {
		referenced["vudo_alloc"] = true
	}
	for _, name := range sortedNames(referenced) {
		sig, ok := hostPrimitiveSig(name)
		if !ok {
			return nil, &UnsupportedConstruct{What: fmt.Sprintf("unknown host primitive %q", name)}
		}
		idx := e.b.AddImport(HostNamespace, name, sig)
		e.funcIdx[name] = idx
	}

	for _, fn := range m.Functions {
		e.funcs[fn.Name] = fn
	}
	for _, fn := range m.Functions {
		sig, err := e.funcSig(fn)
		if err != nil {
			return nil, err
		}
		idx := e.b.AddFunction(sig)
		e.funcIdx[fn.Name] = idx
		if fn.Name == "main" || fn.Public {
			e.b.Export(exportName(fn), exportFunc, idx)
		}
	}
	for _, fn := range m.Functions {
		locals, code, err := e.emitFunction(fn)
		if err != nil {
			return nil, err
		}
		e.b.SetBody(e.funcIdx[fn.Name], locals, code)
	}

	e.b.Export("memory", exportMemory, 0)

	poolBytes := e.pool.Bytes()
	if e.pool.End() > DefaultHeapStart {
		return nil, &MemoryOverflow{Requested: e.pool.End() - StringPoolStart, Available: DefaultHeapStart - StringPoolStart}
	}
	e.b.AddData(StringPoolStart, poolBytes)

	return e.b.Bytes(), nil
}

// exportName returns fn.Name unchanged: no `__N` overload suffix is added
// (the checker resolves calls by name and has no notion of overloading), so
// two functions sharing a name would be exported under that same name.
func exportName(fn *hir.Function) string { return fn.Name }

func usesHeapAllocation(m *hir.Module) bool {
	var found bool
	var walk func(hir.Expr)
	walk = func(e hir.Expr) {
		if found || e == nil {
			return
		}
		switch x := e.(type) {
		case *hir.Record, *hir.Tuple:
			found = true
		case *hir.Let:
			walk(x.Value)
			walk(x.Body)
		case *hir.If:
			walk(x.Cond)
			walk(x.Then)
			walk(x.Else)
		case *hir.App:
			walk(x.Func)
			for _, a := range x.Args {
				walk(a)
			}
		case *hir.BinOp:
			walk(x.Left)
			walk(x.Right)
		case *hir.Match:
			walk(x.Scrutinee)
			for _, c := range x.Cases {
				walk(c.Body)
			}
		}
	}
	for _, fn := range m.Functions {
		for _, s := range fn.Body {
			switch n := s.(type) {
			case *hir.Val:
				walk(n.Value)
			case *hir.VarStmt:
				walk(n.Value)
			case *hir.Return:
				walk(n.Value)
			case *hir.ExprStmt:
				walk(n.X)
			}
		}
	}
	return found
}

func (e *Emitter) funcSig(fn *hir.Function) (funcSig, error) {
	var params []ValType
	for _, p := range fn.Params {
		ws, err := WidenMulti(p.Type)
		if err != nil {
			return funcSig{}, err
		}
		params = append(params, ws...)
	}
	results, err := WidenMulti(fn.Ret)
	if err != nil {
		return funcSig{}, err
	}
	return funcSig{Params: params, Results: results}, nil
}
