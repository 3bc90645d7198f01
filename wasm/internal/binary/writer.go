package binary

import (
	"encoding/binary"
)

// AppendU64 appends the minimal unsigned LEB128 encoding of v.
func AppendU64(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendS64 appends the minimal signed LEB128 encoding of v.
func AppendS64(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// Writer accumulates an encoding in memory. All LEB128 output is minimal
// length, so a forced region may come out shorter than it was read.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Byte(b byte)            { w.buf = append(w.buf, b) }
func (w *Writer) WriteBytes(data []byte) { w.buf = append(w.buf, data...) }
func (w *Writer) WriteU32(v uint32)      { w.buf = AppendU64(w.buf, uint64(v)) }
func (w *Writer) WriteU64(v uint64)      { w.buf = AppendU64(w.buf, v) }
func (w *Writer) WriteS32(v int32)       { w.buf = AppendS64(w.buf, int64(v)) }
func (w *Writer) WriteS64(v int64)       { w.buf = AppendS64(w.buf, v) }

// WriteS33 writes the signed 33-bit form used by block type indices. The
// caller guarantees v fits in 33 bits.
func (w *Writer) WriteS33(v int64) { w.buf = AppendS64(w.buf, v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.Byte(1)
		return
	}
	w.Byte(0)
}

// WriteBlob writes a u32 length followed by data.
func (w *Writer) WriteBlob(data []byte) {
	w.WriteU32(uint32(len(data)))
	w.buf = append(w.buf, data...)
}

// WriteName writes a u32 length followed by the UTF-8 bytes of s.
func (w *Writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) WriteU32LE(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) WriteU64LE(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
