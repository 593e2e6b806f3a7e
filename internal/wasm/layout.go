package wasm

import (
	"sort"

	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/types"
)

// Memory zone boundaries from §3.6, in ascending address order.
const (
	NullTrapZoneEnd  uint32 = 0x1000  // 0x0000-0x0FFF: reserved null-pointer trap region
	StringPoolStart  uint32 = 0x1000  // static string pool begins here
	DefaultStackSize uint32 = 64 * 1024
	DefaultHeapStart uint32 = 0x10000 // §4.7's host allocator root
	WasmPageSize     uint32 = 65536
)

// stringSpan records where one interned string's bytes live in the static
// data segment.
type stringSpan struct {
	offset uint32
	length uint32
}

// StringPool deduplicates every string literal and call-site argument the
// module references into one static data segment (§4.5's "String pool").
type StringPool struct {
	spans map[string]stringSpan
	order []string
	next  uint32
}

// NewStringPool creates a pool whose first byte lands at StringPoolStart.
func NewStringPool() *StringPool {
	return &StringPool{spans: map[string]stringSpan{}, next: StringPoolStart}
}

// Intern records s if not already present and returns its (offset, length).
// Repeated interning of identical content is free (§4.5: "each unique UTF-8
// string is stored once").
func (p *StringPool) Intern(s string) (offset, length uint32) {
	if sp, ok := p.spans[s]; ok {
		return sp.offset, sp.length
	}
	sp := stringSpan{offset: p.next, length: uint32(len(s))}
	p.spans[s] = sp
	p.order = append(p.order, s)
	p.next += sp.length
	return sp.offset, sp.length
}

// Bytes concatenates every interned string in insertion order, ready to be
// emitted as one data segment starting at StringPoolStart.
func (p *StringPool) Bytes() []byte {
	out := make([]byte, 0, p.next-StringPoolStart)
	for _, s := range p.order {
		out = append(out, s...)
	}
	return out
}

// End returns the address one past the last interned byte — where the
// stack region begins.
func (p *StringPool) End() uint32 { return p.next }

// FieldLayout is one record field's resolved offset and ValType shape.
type FieldLayout struct {
	Name   string
	Offset uint32
	Size   uint32
	Align  uint32
	Type   types.Type
}

// RecordLayout is a fully laid-out record type: field offsets plus the
// record's total size, rounded up to 8 bytes per §3.6.
type RecordLayout struct {
	Fields    []FieldLayout
	TotalSize uint32
}

func sizeAndAlignOf(t types.Type) (size, align uint32, err error) {
	switch x := t.(type) {
	case types.TPrim:
		switch x.Prim {
		case types.I8, types.U8, types.Bool:
			return 1, 1, nil
		case types.I16, types.U16:
			return 2, 2, nil
		case types.I32, types.U32, types.F32:
			return 4, 4, nil
		case types.I64, types.U64, types.F64:
			return 8, 8, nil
		case types.Str:
			return 8, 4, nil // (ptr:i32, len:i32)
		case types.Unit:
			return 0, 1, nil
		}
	case types.TNamed:
		// Nested records are not laid out inline: any field of a named
		// type, recursive or not, is a LayoutError.
		return 0, 0, &LayoutError{FieldName: x.Name, Reason: "nested named type has no independently resolvable size here; box it behind a pointer field instead"}
	case types.TOption, types.TResult, types.TVec, types.TMap:
		return 8, 4, nil // boxed/pointer-sized on the guest side
	}
	return 0, 0, &LayoutError{Reason: "unresolved field type " + t.String()}
}

// LayoutRecord assigns each field an offset in declaration order with
// natural alignment (§3.6/§4.5), then rounds the total size up to 8 bytes.
func LayoutRecord(variant hir.Variant) (*RecordLayout, error) {
	var offset uint32
	fields := make([]FieldLayout, 0, len(variant.Fields))
	for _, f := range variant.Fields {
		size, align, err := sizeAndAlignOf(f.Type)
		if err != nil {
			return nil, &LayoutError{FieldName: f.Name, Reason: err.Error()}
		}
		if align > 0 {
			offset = alignUp(offset, align)
		}
		fields = append(fields, FieldLayout{Name: f.Name, Offset: offset, Size: size, Align: align, Type: f.Type})
		offset += size
	}
	total := alignUp(offset, 8)
	return &RecordLayout{Fields: fields, TotalSize: total}, nil
}

func alignUp(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}

// FieldOffset finds field's offset in a laid-out record, for projection
// codegen (§4.5: "Field-projection uses the stored offset").
func (rl *RecordLayout) FieldOffset(name string) (uint32, bool) {
	for _, f := range rl.Fields {
		if f.Name == name {
			return f.Offset, true
		}
	}
	return 0, false
}

// sortedNames returns ks sorted alphabetically — used for the import
// section's deterministic ordering (§4.5).
func sortedNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
