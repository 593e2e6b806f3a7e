package wasm

// Opcode is a single WebAssembly instruction byte. Only the subset §4.5's
// structural control flow and the ABI's scalar operations need is named
// here; anything else the emitter produces is appended as a raw byte.
type Opcode byte

const (
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpIf          Opcode = 0x04
	OpElse        Opcode = 0x05
	OpEnd         Opcode = 0x0B
	OpBr          Opcode = 0x0C
	OpBrIf        Opcode = 0x0D
	OpBrTable     Opcode = 0x0E
	OpReturn      Opcode = 0x0F
	OpCall        Opcode = 0x10

	OpDrop   Opcode = 0x1A
	OpSelect Opcode = 0x1B

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpI32Load Opcode = 0x28
	OpI64Load Opcode = 0x29
	OpF32Load Opcode = 0x2A
	OpF64Load Opcode = 0x2B

	OpI32Store Opcode = 0x36
	OpI64Store Opcode = 0x37
	OpF32Store Opcode = 0x38
	OpF64Store Opcode = 0x39

	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44

	OpI32Eqz Opcode = 0x45
	OpI32Eq  Opcode = 0x46
	OpI32Ne  Opcode = 0x47
	OpI32LtS Opcode = 0x48
	OpI32GtS Opcode = 0x4A
	OpI32LeS Opcode = 0x4C
	OpI32GeS Opcode = 0x4E

	OpI64Eqz Opcode = 0x50
	OpI64Eq  Opcode = 0x51
	OpI64Ne  Opcode = 0x52
	OpI64LtS Opcode = 0x53
	OpI64GtS Opcode = 0x55
	OpI64LeS Opcode = 0x57
	OpI64GeS Opcode = 0x59

	OpF64Eq Opcode = 0x61
	OpF64Lt Opcode = 0x63
	OpF64Gt Opcode = 0x64
	OpF64Le Opcode = 0x65
	OpF64Ge Opcode = 0x66

	OpI32Add Opcode = 0x6A
	OpI32Sub Opcode = 0x6B
	OpI32Mul Opcode = 0x6C
	OpI32DivS Opcode = 0x6D
	OpI32RemS Opcode = 0x6F
	OpI32And Opcode = 0x71
	OpI32Or  Opcode = 0x72

	OpI64Add  Opcode = 0x7C
	OpI64Sub  Opcode = 0x7D
	OpI64Mul  Opcode = 0x7E
	OpI64DivS Opcode = 0x7F
	OpI64RemS Opcode = 0x81

	OpF64Add Opcode = 0xA0
	OpF64Sub Opcode = 0xA1
	OpF64Mul Opcode = 0xA2
	OpF64Div Opcode = 0xA3

	// BlockVoid is the type-index byte for a block/loop/if with no result
	// (empty block type), by far the common case in statement position.
	BlockVoid byte = 0x40
)

// section ids, in the order §4.5 lists them (type, import, function,
// memory, global, export, code, data).
const (
	secType     byte = 1
	secImport   byte = 2
	secFunction byte = 3
	secMemory   byte = 5
	secGlobal   byte = 6
	secExport   byte = 7
	secCode     byte = 10
	secData     byte = 11
)

const (
	wasmMagic   = "\x00asm"
	wasmVersion = "\x01\x00\x00\x00"
)
