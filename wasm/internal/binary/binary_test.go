package binary

import (
	"bytes"
	"errors"
	"math"
	"testing"

	wasmerrors "github.com/wippyai/wasmbin/errors"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, wasmerrors.ErrTruncated) {
		t.Errorf("expected truncated, got %v", err)
	}
}

func TestReaderReadBytesZeroCopy(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if &got[0] != &data[0] {
		t.Error("ReadBytes should return a sub-slice of the input")
	}
	if cap(got) != 3 {
		t.Errorf("sub-slice capacity = %d, want 3", cap(got))
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, wasmerrors.ErrTruncated) {
		t.Errorf("expected truncated for reading past end, got %v", err)
	}
}

func TestReaderOffsetAndSub(t *testing.T) {
	r := NewReaderAt([]byte{0xAA, 0x02, 0x10, 0x20, 0x30}, 100)
	if _, err := r.ReadByte(); err != nil {
		t.Fatal(err)
	}
	if r.Offset() != 101 {
		t.Errorf("Offset = %d, want 101", r.Offset())
	}

	sub, err := r.Sub(2)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Offset() != 101 || sub.Len() != 2 {
		t.Errorf("sub offset/len = %d/%d, want 101/2", sub.Offset(), sub.Len())
	}
	if r.Len() != 2 {
		t.Errorf("parent remaining = %d, want 2", r.Len())
	}

	sub.Remaining()
	_, err = sub.ReadByte()
	var e *wasmerrors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected structured error, got %v", err)
	}
	if e.Offset != 103 {
		t.Errorf("error offset = %d, want 103", e.Offset)
	}

	if _, err := r.Sub(3); !errors.Is(err, wasmerrors.ErrTruncated) {
		t.Errorf("Sub past end: expected truncated, got %v", err)
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
		// over-long but within five bytes
		{[]byte{0x81, 0x80, 0x80, 0x80, 0x00}, 1},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
		if r.Len() != 0 {
			t.Errorf("ReadU32(%v): %d bytes left", tt.encoded, r.Len())
		}
	}
}

func TestReaderOverflow(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*Reader) error
	}{
		{"u32 too long", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, func(r *Reader) error { _, err := r.ReadU32(); return err }},
		{"u32 high bits", []byte{0xff, 0xff, 0xff, 0xff, 0x1f}, func(r *Reader) error { _, err := r.ReadU32(); return err }},
		{"u64 high bits", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}, func(r *Reader) error { _, err := r.ReadU64(); return err }},
		{"s32 bad sign bits", []byte{0xff, 0xff, 0xff, 0xff, 0x4f}, func(r *Reader) error { _, err := r.ReadS32(); return err }},
		{"s32 too long", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, func(r *Reader) error { _, err := r.ReadS32(); return err }},
		{"s33 bad sign bits", []byte{0x80, 0x80, 0x80, 0x80, 0x20}, func(r *Reader) error { _, err := r.ReadS33(); return err }},
		{"s64 bad sign bits", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x02}, func(r *Reader) error { _, err := r.ReadS64(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader(tt.data))
			if !errors.Is(err, wasmerrors.ErrOverflow) {
				t.Errorf("expected overflow, got %v", err)
			}
		})
	}
}

func TestReaderReadSigned(t *testing.T) {
	tests := []struct {
		encoded []byte
		want32  int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x40}, -64},
		{[]byte{0x80, 0x7f}, -128},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadS32()
		if err != nil {
			t.Errorf("ReadS32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want32 {
			t.Errorf("ReadS32(%v): got %d, want %d", tt.encoded, got, tt.want32)
		}
		got64, err := NewReader(tt.encoded).ReadS64()
		if err != nil {
			t.Errorf("ReadS64(%v): %v", tt.encoded, err)
			continue
		}
		if got64 != int64(tt.want32) {
			t.Errorf("ReadS64(%v): got %d, want %d", tt.encoded, got64, tt.want32)
		}
	}
}

func TestReaderReadS33(t *testing.T) {
	got, err := NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x0f}).ReadS33()
	if err != nil {
		t.Fatal(err)
	}
	if got != math.MaxUint32 {
		t.Errorf("ReadS33 = %d, want %d", got, uint32(math.MaxUint32))
	}
}

func TestReaderReadBool(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01, 0x02})
	if v, err := r.ReadBool(); err != nil || v {
		t.Errorf("first bool = %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("second bool = %v, %v", v, err)
	}
	if _, err := r.ReadBool(); !errors.Is(err, wasmerrors.ErrInvalidEncoding) {
		t.Errorf("expected invalid encoding, got %v", err)
	}
}

func TestReaderReadName(t *testing.T) {
	r := NewReader([]byte{0x05, 'h', 'e', 'l', 'l', 'o'})
	got, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadName: got %q, want %q", got, "hello")
	}
}

func TestReaderReadNameInvalidUTF8(t *testing.T) {
	_, err := NewReader([]byte{0x02, 0xff, 0xfe}).ReadName()
	if !errors.Is(err, wasmerrors.ErrInvalidEncoding) {
		t.Errorf("expected invalid encoding, got %v", err)
	}
}

func TestReaderExpectEnd(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	r.ReadByte()
	if err := r.ExpectEnd(); !errors.Is(err, wasmerrors.ErrInvalidEncoding) {
		t.Errorf("expected invalid encoding, got %v", err)
	}
	r.ReadByte()
	if err := r.ExpectEnd(); err != nil {
		t.Errorf("ExpectEnd at end: %v", err)
	}
}

func TestReaderStrictPrefixTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*Reader) error
	}{
		{"u32", []byte{0xe5, 0x8e, 0x26}, func(r *Reader) error { _, err := r.ReadU32(); return err }},
		{"u64", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, func(r *Reader) error { _, err := r.ReadU64(); return err }},
		{"s64", []byte{0x80, 0x80, 0x7f}, func(r *Reader) error { _, err := r.ReadS64(); return err }},
		{"name", []byte{0x03, 'a', 'b', 'c'}, func(r *Reader) error { _, err := r.ReadName(); return err }},
		{"u32le", []byte{1, 2, 3, 4}, func(r *Reader) error { _, err := r.ReadU32LE(); return err }},
		{"u64le", []byte{1, 2, 3, 4, 5, 6, 7, 8}, func(r *Reader) error { _, err := r.ReadU64LE(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.read(NewReader(tt.data)); err != nil {
				t.Fatalf("full input: %v", err)
			}
			for n := 0; n < len(tt.data); n++ {
				err := tt.read(NewReader(tt.data[:n]))
				if !errors.Is(err, wasmerrors.ErrTruncated) {
					t.Errorf("prefix %d: expected truncated, got %v", n, err)
				}
			}
		})
	}
}

func TestWriterWriteU32(t *testing.T) {
	tests := []struct {
		want  []byte
		value uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteU32(tt.value)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteU32(%d): got %x, want %x", tt.value, w.Bytes(), tt.want)
		}
	}
}

func TestWriterWriteS64(t *testing.T) {
	tests := []struct {
		want  []byte
		value int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0x80, 0x7f}, -128},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteS64(tt.value)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteS64(%d): got %x, want %x", tt.value, w.Bytes(), tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32(624485)
	w.WriteU64(math.MaxUint64)
	w.WriteS32(math.MinInt32)
	w.WriteS33(-64)
	w.WriteS64(math.MinInt64)
	w.WriteU32LE(0x7fc00001)
	w.WriteU64LE(0x7ff8000000000001)
	w.WriteBool(true)
	w.WriteName("héllo")
	w.WriteBlob([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	if v, err := r.ReadU32(); err != nil || v != 624485 {
		t.Errorf("u32 = %d, %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != math.MaxUint64 {
		t.Errorf("u64 = %d, %v", v, err)
	}
	if v, err := r.ReadS32(); err != nil || v != math.MinInt32 {
		t.Errorf("s32 = %d, %v", v, err)
	}
	if v, err := r.ReadS33(); err != nil || v != -64 {
		t.Errorf("s33 = %d, %v", v, err)
	}
	if v, err := r.ReadS64(); err != nil || v != math.MinInt64 {
		t.Errorf("s64 = %d, %v", v, err)
	}
	if v, err := r.ReadU32LE(); err != nil || v != 0x7fc00001 {
		t.Errorf("f32 bits = %x, %v", v, err)
	}
	if v, err := r.ReadU64LE(); err != nil || v != 0x7ff8000000000001 {
		t.Errorf("f64 bits = %x, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("bool = %v, %v", v, err)
	}
	if v, err := r.ReadName(); err != nil || v != "héllo" {
		t.Errorf("name = %q, %v", v, err)
	}
	if v, err := r.ReadBlob(); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Errorf("blob = %v, %v", v, err)
	}
	if err := r.ExpectEnd(); err != nil {
		t.Error(err)
	}
}

func TestAppendKeepsPrefix(t *testing.T) {
	got := AppendS64(AppendU64([]byte{0xAA}, 300), -300)
	want := []byte{0xAA, 0xAC, 0x02, 0xD4, 0x7D}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
	if w := NewWriter(); w.Len() != 0 || len(w.Bytes()) != 0 {
		t.Error("new writer is not empty")
	}
}
