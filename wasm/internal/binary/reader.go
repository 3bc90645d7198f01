package binary

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/wasmbin/errors"
)

// Reader is a zero-copy cursor over a byte window. Offsets reported in
// errors are absolute: the window's base plus the local position.
type Reader struct {
	buf  []byte
	pos  int
	base int
}

// NewReader creates a new Reader over buf with base offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// NewReaderAt creates a new Reader over buf whose first byte sits at
// absolute offset base.
func NewReaderAt(buf []byte, base int) *Reader {
	return &Reader{buf: buf, base: base}
}

// Position returns the current byte position within the window.
func (r *Reader) Position() int {
	return r.pos
}

// Offset returns the current absolute byte position.
func (r *Reader) Offset() int {
	return r.base + r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.Truncated(r.Offset(), 1, 0)
	}
	return r.buf[r.pos], nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.Truncated(r.Offset(), 1, 0)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns the next n bytes as a sub-slice of the input.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, errors.Truncated(r.Offset(), n, r.Len())
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// Remaining consumes and returns all unread bytes.
func (r *Reader) Remaining() []byte {
	b, _ := r.ReadBytes(r.Len())
	return b
}

// Sub consumes the next n bytes and returns a Reader bounded to them.
func (r *Reader) Sub(n int) (*Reader, error) {
	off := r.Offset()
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return NewReaderAt(b, off), nil
}

// readUnsigned decodes an unsigned LEB128 value of the given bit width.
func (r *Reader) readUnsigned(bits uint, name string) (uint64, error) {
	start := r.Offset()
	maxBytes := int((bits + 6) / 7)
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if r.pos >= len(r.buf) {
			return 0, errors.Truncated(start, i+1, i)
		}
		b := r.buf[r.pos]
		r.pos++
		if i == maxBytes-1 {
			// final byte: no continuation, no bits beyond the width
			if b&0x80 != 0 || uint64(b)>>(bits-shift) != 0 {
				return 0, errors.Overflow(start, name)
			}
			return result | uint64(b)<<shift, nil
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// readSigned decodes a signed LEB128 value of the given bit width.
func (r *Reader) readSigned(bits uint, name string) (int64, error) {
	start := r.Offset()
	maxBytes := int((bits + 6) / 7)
	var result int64
	var shift uint
	for i := 0; ; i++ {
		if r.pos >= len(r.buf) {
			return 0, errors.Truncated(start, i+1, i)
		}
		b := r.buf[r.pos]
		r.pos++
		if i == maxBytes-1 {
			if b&0x80 != 0 {
				return 0, errors.Overflow(start, name)
			}
			// bits above the width must replicate the sign bit
			used := bits - shift
			high := (b & 0x7f) >> (used - 1)
			if high != 0 && high != 0x7f>>(used-1) {
				return 0, errors.Overflow(start, name)
			}
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= ^int64(0) << shift
			}
			return result, nil
		}
	}
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.readUnsigned(32, "u32")
	return uint32(v), err
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	return r.readUnsigned(64, "u64")
}

// ReadS32 reads a signed LEB128 encoded int32.
func (r *Reader) ReadS32() (int32, error) {
	v, err := r.readSigned(32, "s32")
	return int32(v), err
}

// ReadS33 reads a signed 33-bit LEB128 value, used for block type indices.
func (r *Reader) ReadS33() (int64, error) {
	return r.readSigned(33, "s33")
}

// ReadS64 reads a signed LEB128 encoded int64.
func (r *Reader) ReadS64() (int64, error) {
	return r.readSigned(64, "s64")
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadU64LE reads a little-endian uint64 (fixed 8 bytes).
func (r *Reader) ReadU64LE() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadBool reads a single 0x00 or 0x01 byte.
func (r *Reader) ReadBool() (bool, error) {
	off := r.Offset()
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.InvalidEncoding(off, "invalid boolean 0x%02x", b)
}

// ReadBlob reads a length-prefixed byte sequence without copying.
func (r *Reader) ReadBlob() ([]byte, error) {
	length, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(length))
}

// ReadName reads a UTF-8 encoded name (length-prefixed byte sequence).
func (r *Reader) ReadName() (string, error) {
	off := r.Offset()
	data, err := r.ReadBlob()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidEncoding(off, "invalid UTF-8 in name")
	}
	return string(data), nil
}

// ExpectEnd fails if any bytes are left unread.
func (r *Reader) ExpectEnd() error {
	if n := r.Len(); n != 0 {
		return errors.InvalidEncoding(r.Offset(), "%d unexpected trailing bytes", n)
	}
	return nil
}
