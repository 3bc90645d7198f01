package wasm_test

import (
	"bytes"
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/wasmbin/errors"
	"github.com/wippyai/wasmbin/wasm"
)

var (
	cfgNone    = wasm.MustConfig(wasm.Options{})
	cfgThreads = wasm.MustConfig(wasm.Options{Features: wasm.FeatureThreads})
	cfgEH      = wasm.MustConfig(wasm.Options{Features: wasm.FeatureExceptionHandling})
	cfgMem64   = wasm.MustConfig(wasm.Options{Features: wasm.FeatureMemory64})
	cfgAll     = wasm.MustConfig(wasm.Options{Features: wasm.AllFeatures})
)

func decodeInstr(cfg *wasm.Config, b []byte) (wasm.Instruction, error) {
	var ins wasm.Instruction
	d := wasm.NewDecoder(b, cfg)
	if err := ins.Decode(d); err != nil {
		return ins, err
	}
	return ins, d.ExpectEnd()
}

func encodeInstr(cfg *wasm.Config, ins wasm.Instruction) ([]byte, error) {
	e := wasm.NewEncoder(cfg)
	if err := ins.Encode(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func TestInstructionRoundTrip(t *testing.T) {
	shuffle := append([]byte{0xFD, 0x0D}, 0, 1, 2, 3, 4, 5, 6, 7, 31, 30, 29, 28, 27, 26, 25, 24)
	v128 := append([]byte{0xFD, 0x0C}, bytes.Repeat([]byte{0xAB}, 16)...)

	tests := []struct {
		name string
		cfg  *wasm.Config
		data []byte
		op   wasm.Opcode
	}{
		{"nop", nil, []byte{0x01}, wasm.OpNop},
		{"i32.const -1", nil, []byte{0x41, 0x7F}, wasm.OpI32Const},
		{"i64.const min", nil, []byte{0x42, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7F}, wasm.OpI64Const},
		{"f32.const nan payload", nil, []byte{0x43, 0x01, 0x00, 0xC0, 0x7F}, wasm.OpF32Const},
		{"f64.const", nil, []byte{0x44, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, wasm.OpF64Const},
		{"block empty", nil, []byte{0x02, 0x40}, wasm.OpBlock},
		{"block value", nil, []byte{0x02, 0x7F}, wasm.OpBlock},
		{"block index", nil, []byte{0x03, 0x05}, wasm.OpLoop},
		{"br_table", nil, []byte{0x0E, 0x02, 0x00, 0x01, 0x02}, wasm.OpBrTable},
		{"call_indirect", nil, []byte{0x11, 0x03, 0x01}, wasm.OpCallIndirect},
		{"select_t", nil, []byte{0x1C, 0x01, 0x7E}, wasm.OpSelectTyped},
		{"i32.load", nil, []byte{0x28, 0x02, 0x10}, wasm.OpI32Load},
		{"i32.load mem 1", nil, []byte{0x28, 0x42, 0x01, 0x10}, wasm.OpI32Load},
		{"memory.grow mem 2", nil, []byte{0x40, 0x02}, wasm.OpMemoryGrow},
		{"ref.null extern", nil, []byte{0xD0, 0x6F}, wasm.OpRefNull},
		{"memory.init", nil, []byte{0xFC, 0x08, 0x03, 0x00}, wasm.OpMemoryInit},
		{"memory.copy", nil, []byte{0xFC, 0x0A, 0x01, 0x00}, wasm.OpMemoryCopy},
		{"table.copy", nil, []byte{0xFC, 0x0E, 0x00, 0x01}, wasm.OpTableCopy},
		{"table.init", nil, []byte{0xFC, 0x0C, 0x02, 0x01}, wasm.OpTableInit},
		{"trunc_sat", nil, []byte{0xFC, 0x00}, wasm.OpI32TruncSatF32S},
		{"v128.const", nil, v128, wasm.OpV128Const},
		{"i8x16.shuffle", nil, shuffle, wasm.OpI8x16Shuffle},
		{"extract_lane max", nil, []byte{0xFD, 0x15, 0x0F}, wasm.OpI8x16ExtractLaneS},
		{"i64x2.extract_lane", nil, []byte{0xFD, 0x1D, 0x01}, wasm.OpI64x2ExtractLane},
		{"load8_lane", nil, []byte{0xFD, 0x54, 0x00, 0x00, 0x0F}, wasm.OpV128Load8Lane},
		{"i32x4.add", nil, []byte{0xFD, 0xAE, 0x01}, wasm.OpI32x4Add},
		{"atomic load", cfgThreads, []byte{0xFE, 0x10, 0x02, 0x08}, wasm.OpI32AtomicLoad},
		{"atomic rmw cmpxchg", cfgThreads, []byte{0xFE, 0x48, 0x02, 0x00}, wasm.OpI32AtomicRmwCmpxchg},
		{"atomic fence", cfgThreads, []byte{0xFE, 0x03, 0x00}, wasm.OpAtomicFence},
		{"throw", cfgEH, []byte{0x08, 0x00}, wasm.OpThrow},
		{"try_table", cfgEH, []byte{0x1F, 0x40, 0x02, 0x00, 0x00, 0x01, 0x02, 0x00}, wasm.OpTryTable},
		{"memory64 offset", cfgMem64, []byte{0x28, 0x02, 0x80, 0x80, 0x80, 0x80, 0x10}, wasm.OpI32Load},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := decodeInstr(tt.cfg, tt.data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ins.Op != tt.op {
				t.Fatalf("op = %s, want %s", ins.Op, tt.op)
			}
			got, err := encodeInstr(tt.cfg, ins)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("got %x, want %x", got, tt.data)
			}
		})
	}
}

func TestInstructionImmediates(t *testing.T) {
	ins, err := decodeInstr(nil, []byte{0x28, 0x42, 0x01, 0x10})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := ins.Imm.(*wasm.MemArg)
	if !ok {
		t.Fatalf("imm is %T", ins.Imm)
	}
	if m.Align != 2 || m.Mem != 1 || m.Offset != 16 {
		t.Errorf("memarg = %+v", *m)
	}

	ins, err = decodeInstr(nil, []byte{0x43, 0x01, 0x00, 0xC0, 0x7F})
	if err != nil {
		t.Fatal(err)
	}
	f := *ins.Imm.(*wasm.ConstF32)
	if uint32(f) != 0x7FC00001 || !math.IsNaN(float64(f.Float())) {
		t.Errorf("f32 bits = %#x", uint32(f))
	}

	ins, err = decodeInstr(cfgEH, []byte{0x1F, 0x40, 0x02, 0x00, 0x00, 0x01, 0x02, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	tt := ins.Imm.(*wasm.TryTable)
	if tt.Type.Kind != wasm.BlockKindEmpty || len(tt.Catches) != 2 {
		t.Fatalf("try_table = %+v", *tt)
	}
	if c := tt.Catches[0]; c.Kind != wasm.CatchKindCatch || c.Tag != 0 || c.Label != 1 {
		t.Errorf("catch 0 = %+v", c)
	}
	if c := tt.Catches[1]; c.Kind != wasm.CatchKindCatchAll || c.Label != 0 {
		t.Errorf("catch 1 = %+v", c)
	}

	ins, err = decodeInstr(cfgMem64, []byte{0x28, 0x02, 0x80, 0x80, 0x80, 0x80, 0x10})
	if err != nil {
		t.Fatal(err)
	}
	if off := ins.Imm.(*wasm.MemArg).Offset; off != 1<<32 {
		t.Errorf("memory64 offset = %d", off)
	}
}

func TestMemArgExplicitZeroCanonicalized(t *testing.T) {
	ins, err := decodeInstr(nil, []byte{0x28, 0x40, 0x00, 0x10})
	if err != nil {
		t.Fatal(err)
	}
	got, err := encodeInstr(nil, ins)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x28, 0x00, 0x10}; !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestInstructionDecodeErrors(t *testing.T) {
	badShuffle := append([]byte{0xFD, 0x0D}, bytes.Repeat([]byte{0x00}, 15)...)
	badShuffle = append(badShuffle, 32)

	tests := []struct {
		name string
		cfg  *wasm.Config
		data []byte
		want error
	}{
		{"unknown opcode", nil, []byte{0xFF}, errors.ErrUnknownTag},
		{"legacy try", cfgAll, []byte{0x06, 0x40}, errors.ErrUnknownTag},
		{"unknown misc sub", nil, []byte{0xFC, 0x20}, errors.ErrUnknownTag},
		{"sub-opcode too wide", nil, []byte{0xFC, 0x80, 0x80, 0x04}, errors.ErrUnknownTag},
		{"simd disabled", cfgNone, []byte{0xFD, 0x0C}, errors.ErrUnknownTag},
		{"atomics disabled", nil, []byte{0xFE, 0x10, 0x02, 0x00}, errors.ErrUnknownTag},
		{"try_table disabled", nil, []byte{0x1F, 0x40, 0x00}, errors.ErrUnknownTag},
		{"return_call disabled", nil, []byte{0x12, 0x00}, errors.ErrUnknownTag},
		{"exnref disabled", nil, []byte{0xD0, 0x69}, errors.ErrUnknownTag},
		{"alignment out of range", nil, []byte{0x28, 0x80, 0x01, 0x00}, errors.ErrInvalidEncoding},
		{"offset needs memory64", nil, []byte{0x28, 0x02, 0x80, 0x80, 0x80, 0x80, 0x10}, errors.ErrOverflow},
		{"atomic misaligned", cfgThreads, []byte{0xFE, 0x10, 0x01, 0x00}, errors.ErrInvalidEncoding},
		{"atomic overaligned", cfgThreads, []byte{0xFE, 0x11, 0x04, 0x00}, errors.ErrInvalidEncoding},
		{"fence reserved byte", cfgThreads, []byte{0xFE, 0x03, 0x01}, errors.ErrInvalidEncoding},
		{"lane out of range", nil, []byte{0xFD, 0x15, 0x10}, errors.ErrInvalidEncoding},
		{"i64x2 lane out of range", nil, []byte{0xFD, 0x1D, 0x02}, errors.ErrInvalidEncoding},
		{"store64_lane out of range", nil, []byte{0xFD, 0x5B, 0x03, 0x00, 0x02}, errors.ErrInvalidEncoding},
		{"shuffle lane 32", nil, badShuffle, errors.ErrInvalidEncoding},
		{"negative block index", nil, []byte{0x02, 0x7A}, errors.ErrUnknownTag},
		{"truncated const", nil, []byte{0x41}, errors.ErrTruncated},
		{"truncated v128", nil, []byte{0xFD, 0x0C, 0x00}, errors.ErrTruncated},
		{"i32.const overflow", nil, []byte{0x41, 0x80, 0x80, 0x80, 0x80, 0x10}, errors.ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeInstr(tt.cfg, tt.data)
			if !stderrors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInstructionEncodeErrors(t *testing.T) {
	misaligned := wasm.MemArg{Align: 1}
	lane := wasm.Lane(16)
	local := wasm.LocalID(0)
	shuffle := wasm.Shuffle{0: 40}

	tests := []struct {
		name string
		cfg  *wasm.Config
		ins  wasm.Instruction
	}{
		{"simd disabled", cfgNone, wasm.Instruction{Op: wasm.OpV128Const, Imm: &wasm.V128{}}},
		{"missing immediate", nil, wasm.Instruction{Op: wasm.OpCall}},
		{"wrong immediate", nil, wasm.Instruction{Op: wasm.OpCall, Imm: &local}},
		{"typed nil immediate", nil, wasm.Instruction{Op: wasm.OpCall, Imm: (*wasm.FuncID)(nil)}},
		{"unexpected immediate", nil, wasm.Instruction{Op: wasm.OpNop, Imm: &local}},
		{"lane out of range", nil, wasm.Instruction{Op: wasm.OpI8x16ReplaceLane, Imm: &lane}},
		{"shuffle lane", nil, wasm.Instruction{Op: wasm.OpI8x16Shuffle, Imm: &shuffle}},
		{"atomic misaligned", cfgThreads, wasm.Instruction{Op: wasm.OpI32AtomicStore, Imm: &misaligned}},
		{"alignment 64", nil, wasm.Load(wasm.OpI32Load, wasm.MemArg{Align: 64})},
		{"offset without memory64", nil, wasm.Load(wasm.OpI32Load, wasm.MemArg{Offset: 1 << 32})},
		{"unknown opcode", nil, wasm.Op(0x06)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encodeInstr(tt.cfg, tt.ins)
			if !stderrors.Is(err, errors.ErrEncode) {
				t.Fatalf("got %v, want encode error", err)
			}
		})
	}
}

func TestBuilders(t *testing.T) {
	expr := wasm.Expr{
		wasm.Block(wasm.OpBlock, wasm.BlockValue(wasm.ValI32)),
		wasm.LocalGet(0),
		wasm.I32Const(1),
		wasm.Op(wasm.OpI32Add),
		wasm.Br(0),
		wasm.Op(wasm.OpEnd),
		wasm.Call(3),
		wasm.GlobalGet(1),
		wasm.LocalSet(0),
		wasm.I64Const(-2),
		wasm.F32Const(1.5),
		wasm.F64Const(-0.25),
		wasm.RefFuncOp(2),
		wasm.Load(wasm.OpI64Load, wasm.MemArg{Align: 3, Offset: 8}),
	}
	e := wasm.NewEncoder(nil)
	if err := expr.Encode(e); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var back wasm.Expr
	d := wasm.NewDecoder(e.Bytes(), nil)
	if err := back.Decode(d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Len() != 0 {
		t.Fatalf("%d bytes left over", d.Len())
	}
	if len(back) != len(expr) {
		t.Fatalf("got %d instructions, want %d", len(back), len(expr))
	}
	for i := range expr {
		if back[i].Op != expr[i].Op {
			t.Errorf("instruction %d: got %s, want %s", i, back[i].Op, expr[i].Op)
		}
	}
	if f := back[10].Imm.(*wasm.ConstF32).Float(); f != 1.5 {
		t.Errorf("f32 = %v", f)
	}
	if f := back[11].Imm.(*wasm.ConstF64).Float(); f != -0.25 {
		t.Errorf("f64 = %v", f)
	}
}

func TestExprEndHandling(t *testing.T) {
	var x wasm.Expr
	d := wasm.NewDecoder([]byte{0x02, 0x40, 0x01, 0x0B, 0x0B, 0xAA}, nil)
	if err := x.Decode(d); err != nil {
		t.Fatal(err)
	}
	if len(x) != 3 || x[2].Op != wasm.OpEnd {
		t.Fatalf("expr = %v", x)
	}
	if d.Len() != 1 {
		t.Errorf("decode consumed past the closing end")
	}

	tests := []struct {
		name string
		expr wasm.Expr
	}{
		{"stray end", wasm.Expr{wasm.Op(wasm.OpEnd)}},
		{"unclosed block", wasm.Expr{wasm.Block(wasm.OpBlock, wasm.BlockEmpty())}},
		{"unclosed if", wasm.Expr{wasm.Block(wasm.OpIf, wasm.BlockEmpty()), wasm.Op(wasm.OpElse)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expr.Encode(wasm.NewEncoder(nil))
			if !stderrors.Is(err, errors.ErrEncode) {
				t.Fatalf("got %v, want encode error", err)
			}
		})
	}

	if err := (&wasm.Expr{}).Decode(wasm.NewDecoder([]byte{0x01}, nil)); !stderrors.Is(err, errors.ErrTruncated) {
		t.Errorf("missing end: got %v, want truncated", err)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   wasm.Opcode
		want string
	}{
		{wasm.OpNop, "nop"},
		{wasm.OpSelectTyped, "select_t"},
		{wasm.OpMemoryCopy, "memory.copy"},
		{wasm.OpF32x4Abs, "f32x4.abs"},
		{wasm.OpI32AtomicRmwAdd, "i32.atomic.rmw.add"},
		{wasm.OpI32AtomicRmwCmpxchg, "i32.atomic.rmw.cmpxchg"},
		{wasm.OpI32AtomicLoad16U, "i32.atomic.load16_u"},
		{wasm.Opcode(0x06), "0x06"},
		{wasm.PrefixedOp(0xFC, 0x30), "0xfc 0x30"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%#x: got %q, want %q", uint32(tt.op), got, tt.want)
		}
	}
}
