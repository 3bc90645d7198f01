package wasm

import "fmt"

// Opcode identifies an instruction. Single-byte opcodes are the byte itself;
// prefixed opcodes are prefix<<16 | sub, where sub is the LEB128 sub-opcode
// that follows 0xFC, 0xFD or 0xFE.
type Opcode uint32

// PrefixedOp builds the Opcode for a prefixed instruction.
func PrefixedOp(prefix byte, sub uint32) Opcode {
	return Opcode(uint32(prefix)<<16 | sub)
}

// IsPrefixed reports whether c is a prefixed opcode.
func (c Opcode) IsPrefixed() bool { return c>>16 != 0 }

// Prefix returns the prefix byte, or 0 for single-byte opcodes.
func (c Opcode) Prefix() byte { return byte(c >> 16) }

// Sub returns the sub-opcode of a prefixed opcode.
func (c Opcode) Sub() uint32 { return uint32(c) & 0xFFFF }

func (c Opcode) String() string {
	if op, ok := opByCode[c]; ok {
		return op.name
	}
	if c.IsPrefixed() {
		return fmt.Sprintf("0x%02x 0x%x", c.Prefix(), c.Sub())
	}
	return fmt.Sprintf("0x%02x", uint32(c))
}

// Control and parametric
const (
	OpUnreachable        Opcode = 0x00
	OpNop                Opcode = 0x01
	OpBlock              Opcode = 0x02
	OpLoop               Opcode = 0x03
	OpIf                 Opcode = 0x04
	OpElse               Opcode = 0x05
	OpThrow              Opcode = 0x08
	OpThrowRef           Opcode = 0x0A
	OpEnd                Opcode = 0x0B
	OpBr                 Opcode = 0x0C
	OpBrIf               Opcode = 0x0D
	OpBrTable            Opcode = 0x0E
	OpReturn             Opcode = 0x0F
	OpCall               Opcode = 0x10
	OpCallIndirect       Opcode = 0x11
	OpReturnCall         Opcode = 0x12
	OpReturnCallIndirect Opcode = 0x13
	OpDrop               Opcode = 0x1A
	OpSelect             Opcode = 0x1B
	OpSelectTyped        Opcode = 0x1C
	OpTryTable           Opcode = 0x1F
)

// Variables, tables and memory
const (
	OpLocalGet   Opcode = 0x20
	OpLocalSet   Opcode = 0x21
	OpLocalTee   Opcode = 0x22
	OpGlobalGet  Opcode = 0x23
	OpGlobalSet  Opcode = 0x24
	OpTableGet   Opcode = 0x25
	OpTableSet   Opcode = 0x26
	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2A
	OpF64Load    Opcode = 0x2B
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpMemorySize Opcode = 0x3F
	OpMemoryGrow Opcode = 0x40
)

// Numeric
const (
	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44
	OpI32Eqz   Opcode = 0x45
	OpI32Eq    Opcode = 0x46
	OpI32Add   Opcode = 0x6A
	OpI32Sub   Opcode = 0x6B
	OpI32Mul   Opcode = 0x6C
	OpI64Add   Opcode = 0x7C
	OpI64Sub   Opcode = 0x7D
	OpI64Mul   Opcode = 0x7E
	OpF32Add   Opcode = 0x92
	OpF64Add   Opcode = 0xA0
)

// Reference
const (
	OpRefNull   Opcode = 0xD0
	OpRefIsNull Opcode = 0xD1
	OpRefFunc   Opcode = 0xD2
)

// 0xFC prefix
var (
	OpI32TruncSatF32S = PrefixedOp(OpPrefixMisc, 0)
	OpMemoryInit      = PrefixedOp(OpPrefixMisc, 8)
	OpDataDrop        = PrefixedOp(OpPrefixMisc, 9)
	OpMemoryCopy      = PrefixedOp(OpPrefixMisc, 10)
	OpMemoryFill      = PrefixedOp(OpPrefixMisc, 11)
	OpTableInit       = PrefixedOp(OpPrefixMisc, 12)
	OpElemDrop        = PrefixedOp(OpPrefixMisc, 13)
	OpTableCopy       = PrefixedOp(OpPrefixMisc, 14)
	OpTableGrow       = PrefixedOp(OpPrefixMisc, 15)
	OpTableSize       = PrefixedOp(OpPrefixMisc, 16)
	OpTableFill       = PrefixedOp(OpPrefixMisc, 17)
)

// 0xFD prefix
var (
	OpV128Load           = PrefixedOp(OpPrefixSIMD, 0)
	OpV128Store          = PrefixedOp(OpPrefixSIMD, 11)
	OpV128Const          = PrefixedOp(OpPrefixSIMD, 12)
	OpI8x16Shuffle       = PrefixedOp(OpPrefixSIMD, 13)
	OpI8x16ExtractLaneS  = PrefixedOp(OpPrefixSIMD, 21)
	OpI8x16ReplaceLane   = PrefixedOp(OpPrefixSIMD, 23)
	OpI64x2ExtractLane   = PrefixedOp(OpPrefixSIMD, 29)
	OpV128Load8Lane      = PrefixedOp(OpPrefixSIMD, 84)
	OpV128Store64Lane    = PrefixedOp(OpPrefixSIMD, 91)
	OpI32x4Add           = PrefixedOp(OpPrefixSIMD, 174)
	OpF32x4Abs           = PrefixedOp(OpPrefixSIMD, 224)
)

// 0xFE prefix
var (
	OpMemoryAtomicNotify  = PrefixedOp(OpPrefixAtomic, 0x00)
	OpMemoryAtomicWait32  = PrefixedOp(OpPrefixAtomic, 0x01)
	OpMemoryAtomicWait64  = PrefixedOp(OpPrefixAtomic, 0x02)
	OpAtomicFence         = PrefixedOp(OpPrefixAtomic, 0x03)
	OpI32AtomicLoad       = PrefixedOp(OpPrefixAtomic, 0x10)
	OpI64AtomicLoad       = PrefixedOp(OpPrefixAtomic, 0x11)
	OpI32AtomicLoad16U    = PrefixedOp(OpPrefixAtomic, 0x13)
	OpI32AtomicStore      = PrefixedOp(OpPrefixAtomic, 0x17)
	OpI32AtomicRmwAdd     = PrefixedOp(OpPrefixAtomic, 0x1E)
	OpI32AtomicRmwCmpxchg = PrefixedOp(OpPrefixAtomic, 0x48)
)

// immKind selects the immediate layout that follows an opcode.
type immKind uint8

const (
	immNone immKind = iota
	immBlock
	immTryTable
	immBranch
	immBrTable
	immCall
	immCallIndirect
	immLocal
	immGlobal
	immTable
	immMemArg
	immMemory
	immI32
	immI64
	immF32
	immF64
	immRefNull
	immRefFunc
	immSelectType
	immTag
	immMemoryInit
	immData
	immMemoryCopy
	immTableInit
	immElem
	immTableCopy
	immV128
	immShuffle
	immLane
	immMemArgLane
	immAtomicMemArg
	immFence
)

// opInfo describes one instruction: its encoding, immediate layout and the
// extensions it needs. lanes bounds lane immediates; align is the log2
// natural alignment atomic accesses must declare.
type opInfo struct {
	name     string
	code     Opcode
	requires Features
	imm      immKind
	lanes    uint8
	align    uint8
}

// opTable lists every instruction the codec understands.
var opTable = buildOpTable()

var opByCode = indexOps(opTable)

func indexOps(ops []opInfo) map[Opcode]*opInfo {
	m := make(map[Opcode]*opInfo, len(ops))
	for i := range ops {
		m[ops[i].code] = &ops[i]
	}
	return m
}

type opBuilder struct {
	ops []opInfo
}

func (b *opBuilder) add(code Opcode, name string, imm immKind, req Features) *opInfo {
	b.ops = append(b.ops, opInfo{code: code, name: name, imm: imm, requires: req})
	return &b.ops[len(b.ops)-1]
}

// run adds consecutive opcodes starting at first sharing one immediate kind.
func (b *opBuilder) run(first Opcode, imm immKind, req Features, names ...string) {
	for i, name := range names {
		b.add(first+Opcode(i), name, imm, req)
	}
}

func (b *opBuilder) simd(sub uint32, imm immKind, names ...string) {
	b.run(PrefixedOp(OpPrefixSIMD, sub), imm, FeatureSIMD, names...)
}

func (b *opBuilder) lane(sub uint32, name string, imm immKind, lanes uint8) {
	b.add(PrefixedOp(OpPrefixSIMD, sub), name, imm, FeatureSIMD).lanes = lanes
}

func (b *opBuilder) atomic(sub uint32, name string, align uint8) {
	b.add(PrefixedOp(OpPrefixAtomic, sub), name, immAtomicMemArg, FeatureThreads).align = align
}

func buildOpTable() []opInfo {
	b := &opBuilder{}

	b.run(0x00, immNone, 0, "unreachable", "nop")
	b.run(0x02, immBlock, 0, "block", "loop", "if")
	b.add(0x05, "else", immNone, 0)
	b.add(0x08, "throw", immTag, FeatureExceptionHandling)
	b.add(0x0A, "throw_ref", immNone, FeatureExceptionHandling)
	b.add(0x0B, "end", immNone, 0)
	b.run(0x0C, immBranch, 0, "br", "br_if")
	b.add(0x0E, "br_table", immBrTable, 0)
	b.add(0x0F, "return", immNone, 0)
	b.add(0x10, "call", immCall, 0)
	b.add(0x11, "call_indirect", immCallIndirect, 0)
	b.add(0x12, "return_call", immCall, FeatureTailCall)
	b.add(0x13, "return_call_indirect", immCallIndirect, FeatureTailCall)
	b.run(0x1A, immNone, 0, "drop", "select")
	b.add(0x1C, "select_t", immSelectType, 0)
	b.add(0x1F, "try_table", immTryTable, FeatureExceptionHandling)

	b.run(0x20, immLocal, 0, "local.get", "local.set", "local.tee")
	b.run(0x23, immGlobal, 0, "global.get", "global.set")
	b.run(0x25, immTable, 0, "table.get", "table.set")

	b.run(0x28, immMemArg, 0,
		"i32.load", "i64.load", "f32.load", "f64.load",
		"i32.load8_s", "i32.load8_u", "i32.load16_s", "i32.load16_u",
		"i64.load8_s", "i64.load8_u", "i64.load16_s", "i64.load16_u",
		"i64.load32_s", "i64.load32_u",
		"i32.store", "i64.store", "f32.store", "f64.store",
		"i32.store8", "i32.store16", "i64.store8", "i64.store16", "i64.store32")
	b.run(0x3F, immMemory, 0, "memory.size", "memory.grow")

	b.add(0x41, "i32.const", immI32, 0)
	b.add(0x42, "i64.const", immI64, 0)
	b.add(0x43, "f32.const", immF32, 0)
	b.add(0x44, "f64.const", immF64, 0)

	b.run(0x45, immNone, 0,
		"i32.eqz", "i32.eq", "i32.ne", "i32.lt_s", "i32.lt_u", "i32.gt_s",
		"i32.gt_u", "i32.le_s", "i32.le_u", "i32.ge_s", "i32.ge_u",
		"i64.eqz", "i64.eq", "i64.ne", "i64.lt_s", "i64.lt_u", "i64.gt_s",
		"i64.gt_u", "i64.le_s", "i64.le_u", "i64.ge_s", "i64.ge_u",
		"f32.eq", "f32.ne", "f32.lt", "f32.gt", "f32.le", "f32.ge",
		"f64.eq", "f64.ne", "f64.lt", "f64.gt", "f64.le", "f64.ge",
		"i32.clz", "i32.ctz", "i32.popcnt", "i32.add", "i32.sub", "i32.mul",
		"i32.div_s", "i32.div_u", "i32.rem_s", "i32.rem_u", "i32.and", "i32.or",
		"i32.xor", "i32.shl", "i32.shr_s", "i32.shr_u", "i32.rotl", "i32.rotr",
		"i64.clz", "i64.ctz", "i64.popcnt", "i64.add", "i64.sub", "i64.mul",
		"i64.div_s", "i64.div_u", "i64.rem_s", "i64.rem_u", "i64.and", "i64.or",
		"i64.xor", "i64.shl", "i64.shr_s", "i64.shr_u", "i64.rotl", "i64.rotr",
		"f32.abs", "f32.neg", "f32.ceil", "f32.floor", "f32.trunc", "f32.nearest",
		"f32.sqrt", "f32.add", "f32.sub", "f32.mul", "f32.div", "f32.min",
		"f32.max", "f32.copysign",
		"f64.abs", "f64.neg", "f64.ceil", "f64.floor", "f64.trunc", "f64.nearest",
		"f64.sqrt", "f64.add", "f64.sub", "f64.mul", "f64.div", "f64.min",
		"f64.max", "f64.copysign",
		"i32.wrap_i64", "i32.trunc_f32_s", "i32.trunc_f32_u", "i32.trunc_f64_s",
		"i32.trunc_f64_u", "i64.extend_i32_s", "i64.extend_i32_u", "i64.trunc_f32_s",
		"i64.trunc_f32_u", "i64.trunc_f64_s", "i64.trunc_f64_u", "f32.convert_i32_s",
		"f32.convert_i32_u", "f32.convert_i64_s", "f32.convert_i64_u", "f32.demote_f64",
		"f64.convert_i32_s", "f64.convert_i32_u", "f64.convert_i64_s", "f64.convert_i64_u",
		"f64.promote_f32", "i32.reinterpret_f32", "i64.reinterpret_f64",
		"f32.reinterpret_i32", "f64.reinterpret_i64",
		"i32.extend8_s", "i32.extend16_s", "i64.extend8_s", "i64.extend16_s",
		"i64.extend32_s")

	b.add(0xD0, "ref.null", immRefNull, 0)
	b.add(0xD1, "ref.is_null", immNone, 0)
	b.add(0xD2, "ref.func", immRefFunc, 0)

	misc := func(sub uint32) Opcode { return PrefixedOp(OpPrefixMisc, sub) }
	b.run(misc(0), immNone, 0,
		"i32.trunc_sat_f32_s", "i32.trunc_sat_f32_u", "i32.trunc_sat_f64_s", "i32.trunc_sat_f64_u",
		"i64.trunc_sat_f32_s", "i64.trunc_sat_f32_u", "i64.trunc_sat_f64_s", "i64.trunc_sat_f64_u")
	b.add(misc(8), "memory.init", immMemoryInit, 0)
	b.add(misc(9), "data.drop", immData, 0)
	b.add(misc(10), "memory.copy", immMemoryCopy, 0)
	b.add(misc(11), "memory.fill", immMemory, 0)
	b.add(misc(12), "table.init", immTableInit, 0)
	b.add(misc(13), "elem.drop", immElem, 0)
	b.add(misc(14), "table.copy", immTableCopy, 0)
	b.run(misc(15), immTable, 0, "table.grow", "table.size", "table.fill")

	buildSIMD(b)
	buildAtomics(b)
	return b.ops
}

func buildSIMD(b *opBuilder) {
	b.simd(0, immMemArg,
		"v128.load", "v128.load8x8_s", "v128.load8x8_u", "v128.load16x4_s",
		"v128.load16x4_u", "v128.load32x2_s", "v128.load32x2_u", "v128.load8_splat",
		"v128.load16_splat", "v128.load32_splat", "v128.load64_splat", "v128.store")
	b.simd(12, immV128, "v128.const")
	b.simd(13, immShuffle, "i8x16.shuffle")
	b.simd(14, immNone,
		"i8x16.swizzle", "i8x16.splat", "i16x8.splat", "i32x4.splat",
		"i64x2.splat", "f32x4.splat", "f64x2.splat")

	b.lane(21, "i8x16.extract_lane_s", immLane, 16)
	b.lane(22, "i8x16.extract_lane_u", immLane, 16)
	b.lane(23, "i8x16.replace_lane", immLane, 16)
	b.lane(24, "i16x8.extract_lane_s", immLane, 8)
	b.lane(25, "i16x8.extract_lane_u", immLane, 8)
	b.lane(26, "i16x8.replace_lane", immLane, 8)
	b.lane(27, "i32x4.extract_lane", immLane, 4)
	b.lane(28, "i32x4.replace_lane", immLane, 4)
	b.lane(29, "i64x2.extract_lane", immLane, 2)
	b.lane(30, "i64x2.replace_lane", immLane, 2)
	b.lane(31, "f32x4.extract_lane", immLane, 4)
	b.lane(32, "f32x4.replace_lane", immLane, 4)
	b.lane(33, "f64x2.extract_lane", immLane, 2)
	b.lane(34, "f64x2.replace_lane", immLane, 2)

	b.simd(35, immNone,
		"i8x16.eq", "i8x16.ne", "i8x16.lt_s", "i8x16.lt_u", "i8x16.gt_s",
		"i8x16.gt_u", "i8x16.le_s", "i8x16.le_u", "i8x16.ge_s", "i8x16.ge_u",
		"i16x8.eq", "i16x8.ne", "i16x8.lt_s", "i16x8.lt_u", "i16x8.gt_s",
		"i16x8.gt_u", "i16x8.le_s", "i16x8.le_u", "i16x8.ge_s", "i16x8.ge_u",
		"i32x4.eq", "i32x4.ne", "i32x4.lt_s", "i32x4.lt_u", "i32x4.gt_s",
		"i32x4.gt_u", "i32x4.le_s", "i32x4.le_u", "i32x4.ge_s", "i32x4.ge_u",
		"f32x4.eq", "f32x4.ne", "f32x4.lt", "f32x4.gt", "f32x4.le", "f32x4.ge",
		"f64x2.eq", "f64x2.ne", "f64x2.lt", "f64x2.gt", "f64x2.le", "f64x2.ge",
		"v128.not", "v128.and", "v128.andnot", "v128.or", "v128.xor",
		"v128.bitselect", "v128.any_true")

	b.lane(84, "v128.load8_lane", immMemArgLane, 16)
	b.lane(85, "v128.load16_lane", immMemArgLane, 8)
	b.lane(86, "v128.load32_lane", immMemArgLane, 4)
	b.lane(87, "v128.load64_lane", immMemArgLane, 2)
	b.lane(88, "v128.store8_lane", immMemArgLane, 16)
	b.lane(89, "v128.store16_lane", immMemArgLane, 8)
	b.lane(90, "v128.store32_lane", immMemArgLane, 4)
	b.lane(91, "v128.store64_lane", immMemArgLane, 2)
	b.simd(92, immMemArg, "v128.load32_zero", "v128.load64_zero")

	b.simd(94, immNone,
		"f32x4.demote_f64x2_zero", "f64x2.promote_low_f32x4",
		"i8x16.abs", "i8x16.neg", "i8x16.popcnt", "i8x16.all_true", "i8x16.bitmask",
		"i8x16.narrow_i16x8_s", "i8x16.narrow_i16x8_u",
		"f32x4.ceil", "f32x4.floor", "f32x4.trunc", "f32x4.nearest",
		"i8x16.shl", "i8x16.shr_s", "i8x16.shr_u", "i8x16.add", "i8x16.add_sat_s",
		"i8x16.add_sat_u", "i8x16.sub", "i8x16.sub_sat_s", "i8x16.sub_sat_u",
		"f64x2.ceil", "f64x2.floor",
		"i8x16.min_s", "i8x16.min_u", "i8x16.max_s", "i8x16.max_u",
		"f64x2.trunc", "i8x16.avgr_u",
		"i16x8.extadd_pairwise_i8x16_s", "i16x8.extadd_pairwise_i8x16_u",
		"i32x4.extadd_pairwise_i16x8_s", "i32x4.extadd_pairwise_i16x8_u",
		"i16x8.abs", "i16x8.neg", "i16x8.q15mulr_sat_s", "i16x8.all_true",
		"i16x8.bitmask", "i16x8.narrow_i32x4_s", "i16x8.narrow_i32x4_u",
		"i16x8.extend_low_i8x16_s", "i16x8.extend_high_i8x16_s",
		"i16x8.extend_low_i8x16_u", "i16x8.extend_high_i8x16_u",
		"i16x8.shl", "i16x8.shr_s", "i16x8.shr_u", "i16x8.add", "i16x8.add_sat_s",
		"i16x8.add_sat_u", "i16x8.sub", "i16x8.sub_sat_s", "i16x8.sub_sat_u",
		"f64x2.nearest",
		"i16x8.mul", "i16x8.min_s", "i16x8.min_u", "i16x8.max_s", "i16x8.max_u")
	b.simd(155, immNone,
		"i16x8.avgr_u",
		"i16x8.extmul_low_i8x16_s", "i16x8.extmul_high_i8x16_s",
		"i16x8.extmul_low_i8x16_u", "i16x8.extmul_high_i8x16_u",
		"i32x4.abs", "i32x4.neg")
	b.simd(163, immNone, "i32x4.all_true", "i32x4.bitmask")
	b.simd(167, immNone,
		"i32x4.extend_low_i16x8_s", "i32x4.extend_high_i16x8_s",
		"i32x4.extend_low_i16x8_u", "i32x4.extend_high_i16x8_u",
		"i32x4.shl", "i32x4.shr_s", "i32x4.shr_u", "i32x4.add")
	b.simd(177, immNone, "i32x4.sub")
	b.simd(181, immNone,
		"i32x4.mul", "i32x4.min_s", "i32x4.min_u", "i32x4.max_s", "i32x4.max_u",
		"i32x4.dot_i16x8_s")
	b.simd(188, immNone,
		"i32x4.extmul_low_i16x8_s", "i32x4.extmul_high_i16x8_s",
		"i32x4.extmul_low_i16x8_u", "i32x4.extmul_high_i16x8_u",
		"i64x2.abs", "i64x2.neg")
	b.simd(195, immNone, "i64x2.all_true", "i64x2.bitmask")
	b.simd(199, immNone,
		"i64x2.extend_low_i32x4_s", "i64x2.extend_high_i32x4_s",
		"i64x2.extend_low_i32x4_u", "i64x2.extend_high_i32x4_u",
		"i64x2.shl", "i64x2.shr_s", "i64x2.shr_u", "i64x2.add")
	b.simd(209, immNone, "i64x2.sub")
	b.simd(213, immNone,
		"i64x2.mul", "i64x2.eq", "i64x2.ne", "i64x2.lt_s", "i64x2.gt_s",
		"i64x2.le_s", "i64x2.ge_s",
		"i64x2.extmul_low_i32x4_s", "i64x2.extmul_high_i32x4_s",
		"i64x2.extmul_low_i32x4_u", "i64x2.extmul_high_i32x4_u",
		"f32x4.abs", "f32x4.neg")
	b.simd(227, immNone,
		"f32x4.sqrt", "f32x4.add", "f32x4.sub", "f32x4.mul", "f32x4.div",
		"f32x4.min", "f32x4.max", "f32x4.pmin", "f32x4.pmax",
		"f64x2.abs", "f64x2.neg")
	b.simd(239, immNone,
		"f64x2.sqrt", "f64x2.add", "f64x2.sub", "f64x2.mul", "f64x2.div",
		"f64x2.min", "f64x2.max", "f64x2.pmin", "f64x2.pmax",
		"i32x4.trunc_sat_f32x4_s", "i32x4.trunc_sat_f32x4_u",
		"f32x4.convert_i32x4_s", "f32x4.convert_i32x4_u",
		"i32x4.trunc_sat_f64x2_s_zero", "i32x4.trunc_sat_f64x2_u_zero",
		"f64x2.convert_low_i32x4_s", "f64x2.convert_low_i32x4_u")
}

func buildAtomics(b *opBuilder) {
	b.atomic(0x00, "memory.atomic.notify", 2)
	b.atomic(0x01, "memory.atomic.wait32", 2)
	b.atomic(0x02, "memory.atomic.wait64", 3)
	b.add(OpAtomicFence, "atomic.fence", immFence, FeatureThreads)

	b.atomic(0x10, "i32.atomic.load", 2)
	b.atomic(0x11, "i64.atomic.load", 3)
	b.atomic(0x12, "i32.atomic.load8_u", 0)
	b.atomic(0x13, "i32.atomic.load16_u", 1)
	b.atomic(0x14, "i64.atomic.load8_u", 0)
	b.atomic(0x15, "i64.atomic.load16_u", 1)
	b.atomic(0x16, "i64.atomic.load32_u", 2)
	b.atomic(0x17, "i32.atomic.store", 2)
	b.atomic(0x18, "i64.atomic.store", 3)
	b.atomic(0x19, "i32.atomic.store8", 0)
	b.atomic(0x1A, "i32.atomic.store16", 1)
	b.atomic(0x1B, "i64.atomic.store8", 0)
	b.atomic(0x1C, "i64.atomic.store16", 1)
	b.atomic(0x1D, "i64.atomic.store32", 2)

	// Each read-modify-write op occupies seven consecutive sub-opcodes.
	sub := uint32(0x1E)
	for _, rmw := range []string{"add", "sub", "and", "or", "xor", "xchg", "cmpxchg"} {
		b.atomic(sub+0, "i32.atomic.rmw."+rmw, 2)
		b.atomic(sub+1, "i64.atomic.rmw."+rmw, 3)
		b.atomic(sub+2, "i32.atomic.rmw8."+rmw+"_u", 0)
		b.atomic(sub+3, "i32.atomic.rmw16."+rmw+"_u", 1)
		b.atomic(sub+4, "i64.atomic.rmw8."+rmw+"_u", 0)
		b.atomic(sub+5, "i64.atomic.rmw16."+rmw+"_u", 1)
		b.atomic(sub+6, "i64.atomic.rmw32."+rmw+"_u", 2)
		sub += 7
	}
}
