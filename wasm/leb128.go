package wasm

import (
	"math"

	"github.com/wippyai/wasmbin/wasm/internal/binary"
)

// LEB128 and float helpers for callers working on raw byte slices. Decoders
// return the value and the number of bytes consumed; errors carry the same
// kinds as module decoding (Truncated, Overflow).

// ReadLEB128u decodes an unsigned 32-bit LEB128 value from the front of b.
func ReadLEB128u(b []byte) (uint32, int, error) {
	r := binary.NewReader(b)
	v, err := r.ReadU32()
	return v, r.Position(), err
}

// ReadLEB128u64 decodes an unsigned 64-bit LEB128 value.
func ReadLEB128u64(b []byte) (uint64, int, error) {
	r := binary.NewReader(b)
	v, err := r.ReadU64()
	return v, r.Position(), err
}

// ReadLEB128s decodes a signed 32-bit LEB128 value.
func ReadLEB128s(b []byte) (int32, int, error) {
	r := binary.NewReader(b)
	v, err := r.ReadS32()
	return v, r.Position(), err
}

// ReadLEB128s33 decodes the signed 33-bit form used by block type indices.
func ReadLEB128s33(b []byte) (int64, int, error) {
	r := binary.NewReader(b)
	v, err := r.ReadS33()
	return v, r.Position(), err
}

// ReadLEB128s64 decodes a signed 64-bit LEB128 value.
func ReadLEB128s64(b []byte) (int64, int, error) {
	r := binary.NewReader(b)
	v, err := r.ReadS64()
	return v, r.Position(), err
}

// AppendLEB128u appends the minimal unsigned encoding of v to dst.
func AppendLEB128u(dst []byte, v uint32) []byte {
	return binary.AppendU64(dst, uint64(v))
}

// AppendLEB128u64 appends the minimal unsigned encoding of v to dst.
func AppendLEB128u64(dst []byte, v uint64) []byte {
	return binary.AppendU64(dst, v)
}

// AppendLEB128s appends the minimal signed encoding of v to dst.
func AppendLEB128s(dst []byte, v int32) []byte {
	return binary.AppendS64(dst, int64(v))
}

// AppendLEB128s64 appends the minimal signed encoding of v to dst.
func AppendLEB128s64(dst []byte, v int64) []byte {
	return binary.AppendS64(dst, v)
}

// EncodeLEB128u encodes an unsigned 32-bit LEB128 value to bytes.
func EncodeLEB128u(v uint32) []byte { return AppendLEB128u(nil, v) }

// EncodeLEB128s encodes a signed 32-bit LEB128 value to bytes.
func EncodeLEB128s(v int32) []byte { return AppendLEB128s(nil, v) }

// ReadFloat32 decodes a little-endian f32, preserving NaN payloads.
func ReadFloat32(b []byte) (float32, error) {
	bits, err := binary.NewReader(b).ReadU32LE()
	return math.Float32frombits(bits), err
}

// ReadFloat64 decodes a little-endian f64.
func ReadFloat64(b []byte) (float64, error) {
	bits, err := binary.NewReader(b).ReadU64LE()
	return math.Float64frombits(bits), err
}
