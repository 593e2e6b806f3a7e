package wasm

import "fmt"

// LayoutError is §4.5's failure mode for a record field that cannot be
// assigned a stable offset (an unresolved or recursive-without-indirection
// field type).
type LayoutError struct {
	FieldName string
	Reason    string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("wasm: layout error on field %q: %s", e.FieldName, e.Reason)
}

// UnsupportedConstruct is §4.5's failure mode for an HIR shape the emitter
// has no lowering for.
type UnsupportedConstruct struct {
	What string
}

func (e *UnsupportedConstruct) Error() string {
	return fmt.Sprintf("wasm: unsupported construct: %s", e.What)
}

// MemoryOverflow is §4.5's failure mode for static data (the string pool,
// mainly) exceeding the reserved zone before the stack region begins.
type MemoryOverflow struct {
	Requested, Available uint32
}

func (e *MemoryOverflow) Error() string {
	return fmt.Sprintf("wasm: memory overflow: static data needs %d bytes, only %d available before the stack region", e.Requested, e.Available)
}
