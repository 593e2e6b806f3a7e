package wasm

// funcSig is a function type (params) -> (results).
type funcSig struct {
	Params  []ValType
	Results []ValType
}

func (s funcSig) equal(o funcSig) bool {
	if len(s.Params) != len(o.Params) || len(s.Results) != len(o.Results) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range s.Results {
		if s.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

type importFunc struct {
	Module, Name string
	TypeIdx      uint32
}

type exportKind byte

const (
	exportFunc   exportKind = 0
	exportMemory exportKind = 2
)

type export struct {
	Name  string
	Kind  exportKind
	Index uint32
}

type dataSegment struct {
	Offset uint32
	Bytes  []byte
}

type localDecl struct {
	Count uint32
	Type  ValType
}

type funcBody struct {
	Locals []localDecl
	Code   []byte
}

// Builder accumulates a module's sections as the emitter walks typed HIR,
// then serialises them into the WebAssembly binary format (§3.6/§4.5).
type Builder struct {
	types    []funcSig
	imports  []importFunc
	funcSigs []uint32 // type index per *defined* (non-imported) function
	bodies   []funcBody
	exports  []export
	data     []dataSegment

	memoryInitPages uint32
	memoryMaxPages  uint32
	hasMemoryMax    bool
}

// NewBuilder creates a Builder with one page (64 KiB) of initial linear
// memory, growable without a declared maximum, matching §3.6's "initial 1
// page, growable".
func NewBuilder() *Builder {
	return &Builder{memoryInitPages: 1}
}

// SetMemoryPages overrides the initial/maximum page counts (driven by
// internal/config's memory-size settings).
func (b *Builder) SetMemoryPages(initial uint32, max uint32, hasMax bool) {
	b.memoryInitPages = initial
	b.memoryMaxPages = max
	b.hasMemoryMax = hasMax
}

// internType returns sig's type index, reusing an existing identical
// signature (the WebAssembly type section is typically deduplicated).
func (b *Builder) internType(sig funcSig) uint32 {
	for i, t := range b.types {
		if t.equal(sig) {
			return uint32(i)
		}
	}
	b.types = append(b.types, sig)
	return uint32(len(b.types) - 1)
}

// AddImport records a host import and returns its function index (imports
// are indexed before any module-defined function, per the WebAssembly
// index-space rule).
func (b *Builder) AddImport(module, name string, sig funcSig) uint32 {
	idx := b.internType(sig)
	b.imports = append(b.imports, importFunc{Module: module, Name: name, TypeIdx: idx})
	return uint32(len(b.imports) - 1)
}

// AddFunction reserves a function slot, returning its function index within
// the combined import+defined index space. The body is attached later via
// SetBody once codegen for it completes (functions may call each other
// regardless of declaration order).
func (b *Builder) AddFunction(sig funcSig) uint32 {
	idx := b.internType(sig)
	b.funcSigs = append(b.funcSigs, idx)
	b.bodies = append(b.bodies, funcBody{})
	return uint32(len(b.imports) + len(b.funcSigs) - 1)
}

// SetBody attaches code to the defined function at funcIdx (an index
// returned by AddFunction, in the combined index space).
func (b *Builder) SetBody(funcIdx uint32, locals []localDecl, code []byte) {
	i := int(funcIdx) - len(b.imports)
	b.bodies[i] = funcBody{Locals: locals, Code: code}
}

// Export records a function or memory export under name.
func (b *Builder) Export(name string, kind exportKind, index uint32) {
	b.exports = append(b.exports, export{Name: name, Kind: kind, Index: index})
}

// AddData appends a data segment loaded at offset into linear memory.
func (b *Builder) AddData(offset uint32, bytes []byte) {
	if len(bytes) == 0 {
		return
	}
	b.data = append(b.data, dataSegment{Offset: offset, Bytes: bytes})
}

// Bytes serialises the accumulated sections into a complete WebAssembly
// module.
func (b *Builder) Bytes() []byte {
	out := make([]byte, 0, 4096)
	out = append(out, wasmMagic...)
	out = append(out, wasmVersion...)

	out = appendSection(out, secType, b.encodeTypeSection())
	if len(b.imports) > 0 {
		out = appendSection(out, secImport, b.encodeImportSection())
	}
	if len(b.funcSigs) > 0 {
		out = appendSection(out, secFunction, b.encodeFunctionSection())
	}
	out = appendSection(out, secMemory, b.encodeMemorySection())
	out = appendSection(out, secExport, b.encodeExportSection())
	if len(b.bodies) > 0 {
		out = appendSection(out, secCode, b.encodeCodeSection())
	}
	if len(b.data) > 0 {
		out = appendSection(out, secData, b.encodeDataSection())
	}
	return out
}

func (b *Builder) encodeTypeSection() []byte {
	return appendVec(nil, b.types, func(buf []byte, sig funcSig) []byte {
		buf = append(buf, 0x60) // func type tag
		buf = appendVec(buf, sig.Params, func(bb []byte, v ValType) []byte { return append(bb, byte(v)) })
		buf = appendVec(buf, sig.Results, func(bb []byte, v ValType) []byte { return append(bb, byte(v)) })
		return buf
	})
}

func (b *Builder) encodeImportSection() []byte {
	return appendVec(nil, b.imports, func(buf []byte, im importFunc) []byte {
		buf = appendName(buf, im.Module)
		buf = appendName(buf, im.Name)
		buf = append(buf, 0x00) // import kind: func
		buf = appendULEB128(buf, uint64(im.TypeIdx))
		return buf
	})
}

func (b *Builder) encodeFunctionSection() []byte {
	return appendVec(nil, b.funcSigs, func(buf []byte, idx uint32) []byte {
		return appendULEB128(buf, uint64(idx))
	})
}

func (b *Builder) encodeMemorySection() []byte {
	var limits []byte
	if b.hasMemoryMax {
		limits = append(limits, 0x01)
		limits = appendULEB128(limits, uint64(b.memoryInitPages))
		limits = appendULEB128(limits, uint64(b.memoryMaxPages))
	} else {
		limits = append(limits, 0x00)
		limits = appendULEB128(limits, uint64(b.memoryInitPages))
	}
	out := appendULEB128(nil, 1) // one memory
	return append(out, limits...)
}

func (b *Builder) encodeExportSection() []byte {
	return appendVec(nil, b.exports, func(buf []byte, ex export) []byte {
		buf = appendName(buf, ex.Name)
		buf = append(buf, byte(ex.Kind))
		buf = appendULEB128(buf, uint64(ex.Index))
		return buf
	})
}

func (b *Builder) encodeCodeSection() []byte {
	return appendVec(nil, b.bodies, func(buf []byte, fb funcBody) []byte {
		body := appendVec(nil, fb.Locals, func(bb []byte, l localDecl) []byte {
			bb = appendULEB128(bb, uint64(l.Count))
			return append(bb, byte(l.Type))
		})
		body = append(body, fb.Code...)
		body = append(body, byte(OpEnd))
		buf = appendULEB128(buf, uint64(len(body)))
		return append(buf, body...)
	})
}

func (b *Builder) encodeDataSection() []byte {
	return appendVec(nil, b.data, func(buf []byte, d dataSegment) []byte {
		buf = append(buf, 0x00) // active segment, memory index 0
		buf = append(buf, byte(OpI32Const))
		buf = appendSLEB128(buf, int64(d.Offset))
		buf = append(buf, byte(OpEnd))
		buf = appendULEB128(buf, uint64(len(d.Bytes)))
		return append(buf, d.Bytes...)
	})
}
