package wasm

// Binary format header
const (
	Magic   uint32 = 0x6D736100 // "\0asm" little-endian
	Version uint32 = 0x01
)

// SectionID identifies a top-level section.
type SectionID byte

// Section IDs
const (
	SectionCustom    SectionID = 0
	SectionType      SectionID = 1
	SectionImport    SectionID = 2
	SectionFunction  SectionID = 3
	SectionTable     SectionID = 4
	SectionMemory    SectionID = 5
	SectionGlobal    SectionID = 6
	SectionExport    SectionID = 7
	SectionStart     SectionID = 8
	SectionElement   SectionID = 9
	SectionCode      SectionID = 10
	SectionData      SectionID = 11
	SectionDataCount SectionID = 12
	SectionTag       SectionID = 13
)

var sectionNames = [...]string{
	SectionCustom:    "custom",
	SectionType:      "type",
	SectionImport:    "import",
	SectionFunction:  "function",
	SectionTable:     "table",
	SectionMemory:    "memory",
	SectionGlobal:    "global",
	SectionExport:    "export",
	SectionStart:     "start",
	SectionElement:   "element",
	SectionCode:      "code",
	SectionData:      "data",
	SectionDataCount: "datacount",
	SectionTag:       "tag",
}

func (id SectionID) String() string {
	if int(id) < len(sectionNames) {
		return sectionNames[id]
	}
	return "unknown"
}

// sectionOrder returns the canonical position of a non-custom section.
// Tag sits between Memory and Global; DataCount precedes Code.
func sectionOrder(id SectionID) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionTag:
		return 6
	case SectionGlobal:
		return 7
	case SectionExport:
		return 8
	case SectionStart:
		return 9
	case SectionElement:
		return 10
	case SectionDataCount:
		return 11
	case SectionCode:
		return 12
	case SectionData:
		return 13
	default:
		return 0
	}
}

// External kinds for imports and exports
const (
	KindFunc   byte = 0x00
	KindTable  byte = 0x01
	KindMemory byte = 0x02
	KindGlobal byte = 0x03
	KindTag    byte = 0x04
)

// Value types
const (
	ValI32       ValType = 0x7F
	ValI64       ValType = 0x7E
	ValF32       ValType = 0x7D
	ValF64       ValType = 0x7C
	ValV128      ValType = 0x7B
	ValFuncRef   ValType = 0x70
	ValExternRef ValType = 0x6F
	ValExnRef    ValType = 0x69
)

// Reference types
const (
	RefFunc   RefType = 0x70
	RefExtern RefType = 0x6F
	RefExn    RefType = 0x69
)

// Type forms
const (
	FuncTypeByte byte = 0x60
)

// Block type marker for blocks without results
const BlockTypeEmpty byte = 0x40

// Limits flags
const (
	LimitsNoMax  byte = 0x00
	LimitsHasMax byte = 0x01
)

// Memory type flag bits
const (
	memFlagHasMax   byte = 0x01
	memFlagShared   byte = 0x02
	memFlag64       byte = 0x04
	memFlagPageSize byte = 0x08
)

// MaxPageSizeLog2 bounds the custom page size exponent.
const MaxPageSizeLog2 = 64

// Opcode prefixes
const (
	OpPrefixMisc   byte = 0xFC // saturating trunc, bulk memory, table ops
	OpPrefixSIMD   byte = 0xFD // 128-bit SIMD
	OpPrefixAtomic byte = 0xFE // threads: atomic memory operations
)

// Catch clause kinds for try_table
const (
	CatchKindCatch       byte = 0x00
	CatchKindCatchRef    byte = 0x01
	CatchKindCatchAll    byte = 0x02
	CatchKindCatchAllRef byte = 0x03
)

// Name subsection IDs
const (
	NameSubsectionModule   byte = 0
	NameSubsectionFunction byte = 1
	NameSubsectionLocal    byte = 2
)

// memArgMultiMemBit in the alignment field signals an explicit memory index.
const memArgMultiMemBit uint32 = 0x40
