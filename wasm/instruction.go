package wasm

import (
	"fmt"
	"math"
	"reflect"

	"github.com/wippyai/wasmbin/errors"
)

// Instruction is one opcode with its immediate. Imm is nil for opcodes
// without immediates and otherwise a pointer to the immediate type the
// opcode takes (*FuncID for call, *MemArg for loads, *BlockType for block),
// so visitors can rewrite immediates in place.
type Instruction struct {
	Imm any
	Op  Opcode
}

// Op returns an instruction without immediates.
func Op(code Opcode) Instruction { return Instruction{Op: code} }

// I32Const returns i32.const v.
func I32Const(v int32) Instruction {
	c := ConstI32(v)
	return Instruction{Op: OpI32Const, Imm: &c}
}

// I64Const returns i64.const v.
func I64Const(v int64) Instruction {
	c := ConstI64(v)
	return Instruction{Op: OpI64Const, Imm: &c}
}

// F32Const returns f32.const v.
func F32Const(v float32) Instruction {
	c := ConstF32(math.Float32bits(v))
	return Instruction{Op: OpF32Const, Imm: &c}
}

// F64Const returns f64.const v.
func F64Const(v float64) Instruction {
	c := ConstF64(math.Float64bits(v))
	return Instruction{Op: OpF64Const, Imm: &c}
}

// Call returns call f.
func Call(f FuncID) Instruction { return Instruction{Op: OpCall, Imm: &f} }

// LocalGet returns local.get l.
func LocalGet(l LocalID) Instruction { return Instruction{Op: OpLocalGet, Imm: &l} }

// LocalSet returns local.set l.
func LocalSet(l LocalID) Instruction { return Instruction{Op: OpLocalSet, Imm: &l} }

// GlobalGet returns global.get g.
func GlobalGet(g GlobalID) Instruction { return Instruction{Op: OpGlobalGet, Imm: &g} }

// Block returns a structured control start (block, loop or if) with type bt.
func Block(code Opcode, bt BlockType) Instruction { return Instruction{Op: code, Imm: &bt} }

// Br returns br l.
func Br(l LabelID) Instruction { return Instruction{Op: OpBr, Imm: &l} }

// RefFuncOp returns ref.func f.
func RefFuncOp(f FuncID) Instruction { return Instruction{Op: OpRefFunc, Imm: &f} }

// Load returns a memory access instruction with the given memarg.
func Load(code Opcode, m MemArg) Instruction { return Instruction{Op: code, Imm: &m} }

// startsBlock reports whether the opcode opens a structured block closed by end.
func (i *Instruction) startsBlock() bool {
	switch i.Op {
	case OpBlock, OpLoop, OpIf, OpTryTable:
		return true
	}
	return false
}

func (i *Instruction) Decode(d *Decoder) error {
	off := d.Offset()
	b, err := d.Byte()
	if err != nil {
		return err
	}
	code := Opcode(b)
	switch b {
	case OpPrefixMisc, OpPrefixSIMD, OpPrefixAtomic:
		sub, err := d.U32()
		if err != nil {
			return err
		}
		if sub > 0xFFFF {
			return errors.UnknownTag(off, FamilyInstruction.String(), sub)
		}
		code = PrefixedOp(b, sub)
	}
	info := d.cfg.op(code)
	if info == nil {
		return errors.UnknownTag(off, FamilyInstruction.String(), uint32(code))
	}
	imm, err := decodeImm(d, info)
	if err != nil {
		return errors.WithPath(err, info.name)
	}
	i.Op = code
	i.Imm = imm
	return nil
}

func (i *Instruction) Encode(e *Encoder) error {
	info := e.cfg.op(i.Op)
	if info == nil {
		return errors.Encode("instruction %s is not enabled (features: %s)", i.Op, e.cfg.features)
	}
	if i.Op.IsPrefixed() {
		e.Byte(i.Op.Prefix())
		e.U32(i.Op.Sub())
	} else {
		e.Byte(byte(i.Op))
	}
	return errors.WithPath(encodeImm(e, info, i.Imm), info.name)
}

func (i *Instruction) VisitChildren(v *Visitor) error {
	if i.Imm == nil {
		return nil
	}
	return v.Visit(i.Imm)
}

func newImm(k immKind) Codec {
	switch k {
	case immBlock:
		return new(BlockType)
	case immTryTable:
		return new(TryTable)
	case immBranch:
		return new(LabelID)
	case immBrTable:
		return new(BrTable)
	case immCall, immRefFunc:
		return new(FuncID)
	case immCallIndirect:
		return new(CallIndirect)
	case immLocal:
		return new(LocalID)
	case immGlobal:
		return new(GlobalID)
	case immTable:
		return new(TableID)
	case immMemArg, immAtomicMemArg:
		return new(MemArg)
	case immMemory:
		return new(MemID)
	case immI32:
		return new(ConstI32)
	case immI64:
		return new(ConstI64)
	case immF32:
		return new(ConstF32)
	case immF64:
		return new(ConstF64)
	case immRefNull:
		return new(RefType)
	case immSelectType:
		return new(SelectTypes)
	case immTag:
		return new(TagID)
	case immMemoryInit:
		return new(MemoryInit)
	case immData:
		return new(DataID)
	case immMemoryCopy:
		return new(MemoryCopy)
	case immTableInit:
		return new(TableInit)
	case immElem:
		return new(ElemID)
	case immTableCopy:
		return new(TableCopy)
	case immV128:
		return new(V128)
	case immShuffle:
		return new(Shuffle)
	case immLane:
		return new(Lane)
	case immMemArgLane:
		return new(MemArgLane)
	}
	return nil
}

// immTypes maps each immediate kind to the pointer type Instruction.Imm
// must hold for it.
var immTypes = func() (t [immFence + 1]reflect.Type) {
	for k := range t {
		if c := newImm(immKind(k)); c != nil {
			t[k] = reflect.TypeOf(c)
		}
	}
	return t
}()

func decodeImm(d *Decoder, info *opInfo) (any, error) {
	if info.imm == immFence {
		off := d.Offset()
		b, err := d.Byte()
		if err != nil {
			return nil, err
		}
		if b != 0 {
			return nil, errors.InvalidEncoding(off, "atomic.fence reserved byte 0x%02x", b)
		}
		return nil, nil
	}
	imm := newImm(info.imm)
	if imm == nil {
		return nil, nil
	}
	off := d.Offset()
	if err := imm.Decode(d); err != nil {
		return nil, err
	}
	if msg := immViolation(info, imm); msg != "" {
		return nil, errors.InvalidEncoding(off, "%s", msg)
	}
	return imm, nil
}

func encodeImm(e *Encoder, info *opInfo, imm any) error {
	want := immTypes[info.imm]
	if want == nil {
		if imm != nil {
			return errors.Encode("unexpected immediate %T", imm)
		}
		if info.imm == immFence {
			e.Byte(0)
		}
		return nil
	}
	if imm == nil || reflect.TypeOf(imm) != want {
		return errors.Encode("immediate is %T, want %s", imm, want)
	}
	if reflect.ValueOf(imm).IsNil() {
		return errors.Encode("nil %s immediate", want)
	}
	c := imm.(Codec)
	if msg := immViolation(info, c); msg != "" {
		return errors.Encode("%s", msg)
	}
	return c.Encode(e)
}

// immViolation reports the per-opcode constraints the immediate layout
// alone cannot express: lane bounds and natural alignment of atomics.
func immViolation(info *opInfo, imm Codec) string {
	switch x := imm.(type) {
	case *Lane:
		if uint8(*x) >= info.lanes {
			return fmt.Sprintf("invalid lane index %d for %s", *x, info.name)
		}
	case *MemArgLane:
		if uint8(x.Lane) >= info.lanes {
			return fmt.Sprintf("invalid lane index %d for %s", x.Lane, info.name)
		}
	case *MemArg:
		if info.imm == immAtomicMemArg && x.Align != uint32(info.align) {
			return fmt.Sprintf("%s requires alignment %d, got %d", info.name, info.align, x.Align)
		}
	}
	return ""
}

// ConstI32 is the immediate of i32.const.
type ConstI32 int32

func (c *ConstI32) Decode(d *Decoder) error {
	v, err := d.S32()
	*c = ConstI32(v)
	return err
}

func (c *ConstI32) Encode(e *Encoder) error { e.S32(int32(*c)); return nil }

// ConstI64 is the immediate of i64.const.
type ConstI64 int64

func (c *ConstI64) Decode(d *Decoder) error {
	v, err := d.S64()
	*c = ConstI64(v)
	return err
}

func (c *ConstI64) Encode(e *Encoder) error { e.S64(int64(*c)); return nil }

// ConstF32 holds the raw bits of an f32.const, preserving NaN payloads.
type ConstF32 uint32

func (c ConstF32) Float() float32 { return math.Float32frombits(uint32(c)) }

func (c *ConstF32) Decode(d *Decoder) error {
	v, err := d.F32Bits()
	*c = ConstF32(v)
	return err
}

func (c *ConstF32) Encode(e *Encoder) error { e.F32Bits(uint32(*c)); return nil }

// ConstF64 holds the raw bits of an f64.const.
type ConstF64 uint64

func (c ConstF64) Float() float64 { return math.Float64frombits(uint64(c)) }

func (c *ConstF64) Decode(d *Decoder) error {
	v, err := d.F64Bits()
	*c = ConstF64(v)
	return err
}

func (c *ConstF64) Encode(e *Encoder) error { e.F64Bits(uint64(*c)); return nil }

// MemArg is the memory operand of loads, stores and atomics. Align is the
// log2 alignment hint. A non-zero Mem is encoded with the multi-memory flag.
type MemArg struct {
	Offset uint64
	Align  uint32
	Mem    MemID
}

func (m *MemArg) Decode(d *Decoder) error {
	off := d.Offset()
	align, err := d.U32()
	if err != nil {
		return err
	}
	m.Mem = 0
	if align&memArgMultiMemBit != 0 {
		align &^= memArgMultiMemBit
		if err := d.Field("mem", func() error { return m.Mem.Decode(d) }); err != nil {
			return err
		}
	}
	if align >= memArgMultiMemBit {
		return errors.InvalidEncoding(off, "alignment exponent %d out of range", align)
	}
	m.Align = align
	return d.Field("offset", func() (err error) {
		if d.cfg.features.Has(FeatureMemory64) {
			m.Offset, err = d.U64()
			return err
		}
		v, err := d.U32()
		m.Offset = uint64(v)
		return err
	})
}

func (m *MemArg) Encode(e *Encoder) error {
	if m.Align >= memArgMultiMemBit {
		return errors.Encode("alignment exponent %d out of range", m.Align)
	}
	if m.Mem != 0 {
		e.U32(m.Align | memArgMultiMemBit)
		e.U32(uint32(m.Mem))
	} else {
		e.U32(m.Align)
	}
	if e.cfg.features.Has(FeatureMemory64) {
		e.U64(m.Offset)
		return nil
	}
	if m.Offset > math.MaxUint32 {
		return errors.WithPath(errors.Encode("offset %d needs memory64", m.Offset), "offset")
	}
	e.U32(uint32(m.Offset))
	return nil
}

func (m *MemArg) VisitChildren(v *Visitor) error {
	return visitField(v, "mem", &m.Mem)
}

// BrTable is the immediate of br_table.
type BrTable struct {
	Labels  []LabelID
	Default LabelID
}

func (b *BrTable) Decode(d *Decoder) error {
	err := d.Field("labels", func() (err error) {
		b.Labels, err = decodeVec[LabelID](d)
		return err
	})
	if err != nil {
		return err
	}
	return d.Field("default", func() error { return b.Default.Decode(d) })
}

func (b *BrTable) Encode(e *Encoder) error {
	if err := e.Field("labels", func() error { return encodeVec(e, b.Labels) }); err != nil {
		return err
	}
	return b.Default.Encode(e)
}

func (b *BrTable) VisitChildren(v *Visitor) error {
	if err := errors.WithPath(visitSeq(v, &b.Labels), "labels"); err != nil {
		return err
	}
	return visitField(v, "default", &b.Default)
}

// CallIndirect is the immediate of call_indirect and return_call_indirect.
type CallIndirect struct {
	Type  TypeID
	Table TableID
}

func (c *CallIndirect) Decode(d *Decoder) error {
	if err := d.Field("type", func() error { return c.Type.Decode(d) }); err != nil {
		return err
	}
	return d.Field("table", func() error { return c.Table.Decode(d) })
}

func (c *CallIndirect) Encode(e *Encoder) error {
	if err := c.Type.Encode(e); err != nil {
		return err
	}
	return c.Table.Encode(e)
}

func (c *CallIndirect) VisitChildren(v *Visitor) error {
	if err := visitField(v, "type", &c.Type); err != nil {
		return err
	}
	return visitField(v, "table", &c.Table)
}

// SelectTypes is the result type list of a typed select.
type SelectTypes []ValType

func (s *SelectTypes) Decode(d *Decoder) error {
	ts, err := decodeValTypes(d)
	*s = ts
	return err
}

func (s *SelectTypes) Encode(e *Encoder) error {
	return encodeValTypes(e, *s)
}

func (s *SelectTypes) VisitChildren(v *Visitor) error {
	return visitElems(v, (*[]ValType)(s))
}

// Catch is one clause of a try_table.
type Catch struct {
	Kind  byte
	Tag   TagID
	Label LabelID
}

func (c *Catch) hasTag() bool {
	return c.Kind == CatchKindCatch || c.Kind == CatchKindCatchRef
}

func (c *Catch) Decode(d *Decoder) error {
	kind, err := d.Tag(FamilyCatch)
	if err != nil {
		return err
	}
	c.Kind = kind
	c.Tag = 0
	if c.hasTag() {
		if err := d.Field("tag", func() error { return c.Tag.Decode(d) }); err != nil {
			return err
		}
	}
	return d.Field("label", func() error { return c.Label.Decode(d) })
}

func (c *Catch) Encode(e *Encoder) error {
	if err := e.Tag(FamilyCatch, c.Kind); err != nil {
		return err
	}
	if c.hasTag() {
		if err := c.Tag.Encode(e); err != nil {
			return err
		}
	}
	return c.Label.Encode(e)
}

func (c *Catch) VisitChildren(v *Visitor) error {
	if c.hasTag() {
		if err := visitField(v, "tag", &c.Tag); err != nil {
			return err
		}
	}
	return visitField(v, "label", &c.Label)
}

// TryTable is the immediate of try_table. The instructions it guards follow
// it in the enclosing expression up to the matching end.
type TryTable struct {
	Type    BlockType
	Catches []Catch
}

func (t *TryTable) Decode(d *Decoder) error {
	if err := d.Field("type", func() error { return t.Type.Decode(d) }); err != nil {
		return err
	}
	return d.Field("catches", func() (err error) {
		t.Catches, err = decodeVec[Catch](d)
		return err
	})
}

func (t *TryTable) Encode(e *Encoder) error {
	if err := e.Field("type", func() error { return t.Type.Encode(e) }); err != nil {
		return err
	}
	return e.Field("catches", func() error { return encodeVec(e, t.Catches) })
}

func (t *TryTable) VisitChildren(v *Visitor) error {
	if err := visitField(v, "type", &t.Type); err != nil {
		return err
	}
	return errors.WithPath(visitSeq(v, &t.Catches), "catches")
}

// MemoryInit is the immediate of memory.init.
type MemoryInit struct {
	Data DataID
	Mem  MemID
}

func (m *MemoryInit) Decode(d *Decoder) error {
	if err := d.Field("data", func() error { return m.Data.Decode(d) }); err != nil {
		return err
	}
	return d.Field("mem", func() error { return m.Mem.Decode(d) })
}

func (m *MemoryInit) Encode(e *Encoder) error {
	if err := m.Data.Encode(e); err != nil {
		return err
	}
	return m.Mem.Encode(e)
}

func (m *MemoryInit) VisitChildren(v *Visitor) error {
	if err := visitField(v, "data", &m.Data); err != nil {
		return err
	}
	return visitField(v, "mem", &m.Mem)
}

// MemoryCopy is the immediate of memory.copy.
type MemoryCopy struct {
	Dst MemID
	Src MemID
}

func (m *MemoryCopy) Decode(d *Decoder) error {
	if err := d.Field("dst", func() error { return m.Dst.Decode(d) }); err != nil {
		return err
	}
	return d.Field("src", func() error { return m.Src.Decode(d) })
}

func (m *MemoryCopy) Encode(e *Encoder) error {
	if err := m.Dst.Encode(e); err != nil {
		return err
	}
	return m.Src.Encode(e)
}

func (m *MemoryCopy) VisitChildren(v *Visitor) error {
	if err := visitField(v, "dst", &m.Dst); err != nil {
		return err
	}
	return visitField(v, "src", &m.Src)
}

// TableInit is the immediate of table.init.
type TableInit struct {
	Elem  ElemID
	Table TableID
}

func (t *TableInit) Decode(d *Decoder) error {
	if err := d.Field("elem", func() error { return t.Elem.Decode(d) }); err != nil {
		return err
	}
	return d.Field("table", func() error { return t.Table.Decode(d) })
}

func (t *TableInit) Encode(e *Encoder) error {
	if err := t.Elem.Encode(e); err != nil {
		return err
	}
	return t.Table.Encode(e)
}

func (t *TableInit) VisitChildren(v *Visitor) error {
	if err := visitField(v, "elem", &t.Elem); err != nil {
		return err
	}
	return visitField(v, "table", &t.Table)
}

// TableCopy is the immediate of table.copy.
type TableCopy struct {
	Dst TableID
	Src TableID
}

func (t *TableCopy) Decode(d *Decoder) error {
	if err := d.Field("dst", func() error { return t.Dst.Decode(d) }); err != nil {
		return err
	}
	return d.Field("src", func() error { return t.Src.Decode(d) })
}

func (t *TableCopy) Encode(e *Encoder) error {
	if err := t.Dst.Encode(e); err != nil {
		return err
	}
	return t.Src.Encode(e)
}

func (t *TableCopy) VisitChildren(v *Visitor) error {
	if err := visitField(v, "dst", &t.Dst); err != nil {
		return err
	}
	return visitField(v, "src", &t.Src)
}

// V128 is the immediate of v128.const.
type V128 [16]byte

func (x *V128) Decode(d *Decoder) error {
	b, err := d.Bytes(16)
	if err != nil {
		return err
	}
	copy(x[:], b)
	return nil
}

func (x *V128) Encode(e *Encoder) error { e.Raw(x[:]); return nil }

// Shuffle holds the 16 lane selectors of i8x16.shuffle, each below 32.
type Shuffle [16]byte

func (s *Shuffle) Decode(d *Decoder) error {
	off := d.Offset()
	b, err := d.Bytes(16)
	if err != nil {
		return err
	}
	for i, l := range b {
		if l >= 32 {
			return errors.InvalidEncoding(off+i, "invalid lane index %d", l)
		}
	}
	copy(s[:], b)
	return nil
}

func (s *Shuffle) Encode(e *Encoder) error {
	for _, l := range s {
		if l >= 32 {
			return errors.Encode("invalid lane index %d", l)
		}
	}
	e.Raw(s[:])
	return nil
}

// Lane is a SIMD lane index.
type Lane uint8

func (l *Lane) Decode(d *Decoder) error {
	b, err := d.Byte()
	*l = Lane(b)
	return err
}

func (l *Lane) Encode(e *Encoder) error { e.Byte(byte(*l)); return nil }

// MemArgLane is the immediate of the v128 lane loads and stores.
type MemArgLane struct {
	MemArg MemArg
	Lane   Lane
}

func (m *MemArgLane) Decode(d *Decoder) error {
	if err := m.MemArg.Decode(d); err != nil {
		return err
	}
	return d.Field("lane", func() error { return m.Lane.Decode(d) })
}

func (m *MemArgLane) Encode(e *Encoder) error {
	if err := m.MemArg.Encode(e); err != nil {
		return err
	}
	return m.Lane.Encode(e)
}

func (m *MemArgLane) VisitChildren(v *Visitor) error {
	return visitField(v, "memarg", &m.MemArg)
}

// Expr is an instruction sequence terminated by the end that closes the
// outermost block. The terminating end is implicit: Decode drops it and
// Encode appends it.
type Expr []Instruction

func (x *Expr) Decode(d *Decoder) error {
	var out []Instruction
	depth := 0
	for {
		var ins Instruction
		if err := ins.Decode(d); err != nil {
			return errors.WithPath(err, errors.Index(len(out)))
		}
		switch {
		case ins.Op == OpEnd && depth == 0:
			*x = out
			return nil
		case ins.Op == OpEnd:
			depth--
		case ins.startsBlock():
			depth++
		}
		out = append(out, ins)
	}
}

func (x *Expr) Encode(e *Encoder) error {
	depth := 0
	for i := range *x {
		ins := &(*x)[i]
		switch {
		case ins.Op == OpEnd && depth == 0:
			return errors.WithPath(errors.Encode("end without matching block"), errors.Index(i))
		case ins.Op == OpEnd:
			depth--
		case ins.startsBlock():
			depth++
		}
		if err := ins.Encode(e); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
	}
	if depth != 0 {
		return errors.Encode("%d unclosed block(s)", depth)
	}
	e.Byte(byte(OpEnd))
	return nil
}

// VisitChildren offers the instruction list as *[]Instruction and then
// each instruction.
func (x *Expr) VisitChildren(v *Visitor) error {
	return visitSeq(v, (*[]Instruction)(x))
}
