package wasm

import (
	"math"

	"github.com/wippyai/wasmbin/errors"
)

// ValType represents a WebAssembly value type.
// See constants.go for ValI32, ValI64, ValF32, ValF64, etc.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExternRef:
		return "externref"
	case ValExnRef:
		return "exnref"
	default:
		return "unknown"
	}
}

// IsRef reports whether v is a reference type.
func (v ValType) IsRef() bool {
	return v == ValFuncRef || v == ValExternRef || v == ValExnRef
}

func (v *ValType) Decode(d *Decoder) error {
	b, err := d.Tag(FamilyValueType)
	*v = ValType(b)
	return err
}

func (v *ValType) Encode(e *Encoder) error {
	return e.Tag(FamilyValueType, byte(*v))
}

// RefType is the element type of tables and the operand of ref.null.
type RefType byte

func (r RefType) String() string {
	return ValType(r).String()
}

func (r *RefType) Decode(d *Decoder) error {
	b, err := d.Tag(FamilyRefType)
	*r = RefType(b)
	return err
}

func (r *RefType) Encode(e *Encoder) error {
	return e.Tag(FamilyRefType, byte(*r))
}

// BlockKind selects the active alternative of a BlockType.
type BlockKind uint8

const (
	BlockKindEmpty BlockKind = iota
	BlockKindValue
	BlockKindIndex
)

// BlockType is the signature of a structured control instruction: no
// result, a single value type, or an index into the type section.
type BlockType struct {
	Kind  BlockKind
	Value ValType
	Type  TypeID
}

// BlockEmpty returns the empty block type.
func BlockEmpty() BlockType { return BlockType{Kind: BlockKindEmpty} }

// BlockValue returns a block type yielding one value of type t.
func BlockValue(t ValType) BlockType { return BlockType{Kind: BlockKindValue, Value: t} }

// BlockIndex returns a block type referencing a function type.
func BlockIndex(id TypeID) BlockType { return BlockType{Kind: BlockKindIndex, Type: id} }

func (b *BlockType) Decode(d *Decoder) error {
	off := d.Offset()
	first, err := d.Peek()
	if err != nil {
		return err
	}
	if first == BlockTypeEmpty {
		if _, err := d.Byte(); err != nil {
			return err
		}
		*b = BlockEmpty()
		return nil
	}
	if d.cfg.Recognizes(FamilyValueType, uint32(first)) {
		if _, err := d.Byte(); err != nil {
			return err
		}
		*b = BlockValue(ValType(first))
		return nil
	}
	// Type indices are non-negative s33 values. A negative single-byte
	// value lives in the value type space and is reported as such.
	idx, err := d.S33()
	if err != nil {
		return err
	}
	if idx < 0 {
		return errors.UnknownTag(off, FamilyValueType.String(), uint32(first))
	}
	if idx > math.MaxUint32 {
		return errors.Overflow(off, "type index")
	}
	*b = BlockIndex(TypeID(idx))
	return nil
}

func (b *BlockType) Encode(e *Encoder) error {
	switch b.Kind {
	case BlockKindEmpty:
		e.Byte(BlockTypeEmpty)
		return nil
	case BlockKindValue:
		return b.Value.Encode(e)
	case BlockKindIndex:
		e.S33(int64(b.Type))
		return nil
	}
	return errors.Encode("invalid block kind %d", b.Kind)
}

func (b *BlockType) VisitChildren(v *Visitor) error {
	switch b.Kind {
	case BlockKindValue:
		return v.Visit(&b.Value)
	case BlockKindIndex:
		return v.Visit(&b.Type)
	}
	return nil
}

func decodeValTypes(d *Decoder) ([]ValType, error) {
	return decodeVec[ValType](d)
}

func encodeValTypes(e *Encoder, ts []ValType) error {
	return encodeVec(e, ts)
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (f *FuncType) Decode(d *Decoder) error {
	if _, err := d.Tag(FamilyTypeForm); err != nil {
		return err
	}
	err := d.Field("params", func() (err error) {
		f.Params, err = decodeValTypes(d)
		return err
	})
	if err != nil {
		return err
	}
	return d.Field("results", func() (err error) {
		f.Results, err = decodeValTypes(d)
		return err
	})
}

func (f *FuncType) Encode(e *Encoder) error {
	if err := e.Tag(FamilyTypeForm, FuncTypeByte); err != nil {
		return err
	}
	if err := e.Field("params", func() error { return encodeValTypes(e, f.Params) }); err != nil {
		return err
	}
	return e.Field("results", func() error { return encodeValTypes(e, f.Results) })
}

func (f *FuncType) VisitChildren(v *Visitor) error {
	if err := errors.WithPath(visitSeq(v, &f.Params), "params"); err != nil {
		return err
	}
	return errors.WithPath(visitSeq(v, &f.Results), "results")
}

// Equal reports whether two signatures are identical.
func (f *FuncType) Equal(o *FuncType) bool {
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range f.Results {
		if f.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// Limits describes size constraints for tables and memories.
type Limits struct {
	Max *uint64
	Min uint64
}

// Decode reads table limits: a flag byte followed by u32 bounds.
func (l *Limits) Decode(d *Decoder) error {
	flag, err := d.Tag(FamilyLimits)
	if err != nil {
		return err
	}
	return l.decodeBounds(d, flag&LimitsHasMax != 0, false)
}

func (l *Limits) Encode(e *Encoder) error {
	flag := LimitsNoMax
	if l.Max != nil {
		flag = LimitsHasMax
	}
	if err := e.Tag(FamilyLimits, flag); err != nil {
		return err
	}
	return l.encodeBounds(e, false)
}

func (l *Limits) decodeBounds(d *Decoder, hasMax, wide bool) error {
	read := func() (uint64, error) {
		if wide {
			return d.U64()
		}
		v, err := d.U32()
		return uint64(v), err
	}
	err := d.Field("min", func() (err error) {
		l.Min, err = read()
		return err
	})
	if err != nil || !hasMax {
		l.Max = nil
		return err
	}
	return d.Field("max", func() error {
		v, err := read()
		l.Max = &v
		return err
	})
}

func (l *Limits) encodeBounds(e *Encoder, wide bool) error {
	write := func(name string, v uint64) error {
		if wide {
			e.U64(v)
			return nil
		}
		if v > math.MaxUint32 {
			return errors.WithPath(errors.Encode("%d does not fit in u32 limits", v), name)
		}
		e.U32(uint32(v))
		return nil
	}
	if err := write("min", l.Min); err != nil {
		return err
	}
	if l.Max != nil {
		return write("max", *l.Max)
	}
	return nil
}

// MemoryType describes a linear memory. Shared requires threads, Memory64
// requires memory64 and PageSizeLog2 requires custom page sizes.
type MemoryType struct {
	PageSizeLog2 *uint32
	Limits       Limits
	Shared       bool
	Memory64     bool
}

func (m *MemoryType) Decode(d *Decoder) error {
	flags, err := d.Tag(FamilyMemType)
	if err != nil {
		return err
	}
	m.Shared = flags&memFlagShared != 0
	m.Memory64 = flags&memFlag64 != 0
	if err := d.Field("limits", func() error {
		return m.Limits.decodeBounds(d, flags&memFlagHasMax != 0, m.Memory64)
	}); err != nil {
		return err
	}
	m.PageSizeLog2 = nil
	if flags&memFlagPageSize == 0 {
		return nil
	}
	return d.Field("page_size", func() error {
		off := d.Offset()
		ps, err := d.U32()
		if err != nil {
			return err
		}
		if ps > MaxPageSizeLog2 {
			return errors.InvalidEncoding(off, "page size log2 %d exceeds %d", ps, MaxPageSizeLog2)
		}
		m.PageSizeLog2 = &ps
		return nil
	})
}

func (m *MemoryType) Encode(e *Encoder) error {
	var flags byte
	if m.Limits.Max != nil {
		flags |= memFlagHasMax
	}
	if m.Shared {
		flags |= memFlagShared
	}
	if m.Memory64 {
		flags |= memFlag64
	}
	if m.PageSizeLog2 != nil {
		flags |= memFlagPageSize
	}
	if err := e.Tag(FamilyMemType, flags); err != nil {
		return err
	}
	if err := e.Field("limits", func() error { return m.Limits.encodeBounds(e, m.Memory64) }); err != nil {
		return err
	}
	if m.PageSizeLog2 != nil {
		if *m.PageSizeLog2 > MaxPageSizeLog2 {
			return errors.WithPath(errors.Encode("page size log2 %d exceeds %d", *m.PageSizeLog2, MaxPageSizeLog2), "page_size")
		}
		e.U32(*m.PageSizeLog2)
	}
	return nil
}

func (m *MemoryType) VisitChildren(v *Visitor) error {
	return visitField(v, "limits", &m.Limits)
}

// TableType describes a table with element type and size limits.
type TableType struct {
	Limits   Limits
	ElemType RefType
}

func (t *TableType) Decode(d *Decoder) error {
	if err := d.Field("elem_type", func() error { return t.ElemType.Decode(d) }); err != nil {
		return err
	}
	return d.Field("limits", func() error { return t.Limits.Decode(d) })
}

func (t *TableType) Encode(e *Encoder) error {
	if err := e.Field("elem_type", func() error { return t.ElemType.Encode(e) }); err != nil {
		return err
	}
	return e.Field("limits", func() error { return t.Limits.Encode(e) })
}

func (t *TableType) VisitChildren(v *Visitor) error {
	if err := visitField(v, "elem_type", &t.ElemType); err != nil {
		return err
	}
	return visitField(v, "limits", &t.Limits)
}

// GlobalType describes a global variable's type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

func (g *GlobalType) Decode(d *Decoder) error {
	if err := d.Field("type", func() error { return g.ValType.Decode(d) }); err != nil {
		return err
	}
	return d.Field("mutable", func() (err error) {
		g.Mutable, err = d.Bool()
		return err
	})
}

func (g *GlobalType) Encode(e *Encoder) error {
	if err := e.Field("type", func() error { return g.ValType.Encode(e) }); err != nil {
		return err
	}
	e.Bool(g.Mutable)
	return nil
}

func (g *GlobalType) VisitChildren(v *Visitor) error {
	return visitField(v, "type", &g.ValType)
}

// TagType describes an exception handling tag type.
type TagType struct {
	Attribute byte   // Tag attribute (0 = exception)
	Type      TypeID // Function type index for tag signature
}

func (t *TagType) Decode(d *Decoder) error {
	off := d.Offset()
	attr, err := d.Byte()
	if err != nil {
		return err
	}
	if attr != 0 {
		return errors.InvalidEncoding(off, "tag attribute 0x%02x", attr)
	}
	t.Attribute = attr
	return d.Field("type", func() error { return t.Type.Decode(d) })
}

func (t *TagType) Encode(e *Encoder) error {
	if t.Attribute != 0 {
		return errors.Encode("tag attribute 0x%02x", t.Attribute)
	}
	e.Byte(0)
	return t.Type.Encode(e)
}

func (t *TagType) VisitChildren(v *Visitor) error {
	return visitField(v, "type", &t.Type)
}
