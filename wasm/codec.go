package wasm

import (
	"math"

	"github.com/wippyai/wasmbin/errors"
	"github.com/wippyai/wasmbin/wasm/internal/binary"
)

// Codec is implemented by every structure that has a binary form.
// Decode and Encode are implemented on the pointer receiver.
type Codec interface {
	Decode(d *Decoder) error
	Encode(e *Encoder) error
}

// Decoder reads values from a bounded byte window under one Config.
type Decoder struct {
	r   *binary.Reader
	cfg *Config
}

// NewDecoder creates a Decoder over buf. A nil cfg selects DefaultConfig.
func NewDecoder(buf []byte, cfg *Config) *Decoder {
	return newDecoderAt(buf, 0, cfg)
}

func newDecoderAt(buf []byte, base int, cfg *Config) *Decoder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Decoder{r: binary.NewReaderAt(buf, base), cfg: cfg}
}

// Config returns the active configuration.
func (d *Decoder) Config() *Config { return d.cfg }

// Offset returns the absolute input position.
func (d *Decoder) Offset() int { return d.r.Offset() }

// Len returns the number of unread bytes.
func (d *Decoder) Len() int { return d.r.Len() }

func (d *Decoder) Peek() (byte, error)         { return d.r.Peek() }
func (d *Decoder) Byte() (byte, error)         { return d.r.ReadByte() }
func (d *Decoder) Bytes(n int) ([]byte, error) { return d.r.ReadBytes(n) }
func (d *Decoder) U32() (uint32, error)        { return d.r.ReadU32() }
func (d *Decoder) U64() (uint64, error)        { return d.r.ReadU64() }
func (d *Decoder) S32() (int32, error)         { return d.r.ReadS32() }
func (d *Decoder) S33() (int64, error)         { return d.r.ReadS33() }
func (d *Decoder) S64() (int64, error)         { return d.r.ReadS64() }
func (d *Decoder) U32LE() (uint32, error)      { return d.r.ReadU32LE() }
func (d *Decoder) F32Bits() (uint32, error)    { return d.r.ReadU32LE() }
func (d *Decoder) F64Bits() (uint64, error)    { return d.r.ReadU64LE() }
func (d *Decoder) Bool() (bool, error)         { return d.r.ReadBool() }
func (d *Decoder) Name() (string, error)       { return d.r.ReadName() }
func (d *Decoder) Blob() ([]byte, error)       { return d.r.ReadBlob() }

// Remaining consumes every unread byte.
func (d *Decoder) Remaining() []byte { return d.r.Remaining() }

// ExpectEnd fails if unread bytes remain.
func (d *Decoder) ExpectEnd() error { return d.r.ExpectEnd() }

// Sub consumes n bytes and returns a Decoder bounded to them.
func (d *Decoder) Sub(n int) (*Decoder, error) {
	r, err := d.r.Sub(n)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r, cfg: d.cfg}, nil
}

// Field runs one record field step, attributing failures to name.
func (d *Decoder) Field(name string, fn func() error) error {
	return errors.WithPath(fn(), name)
}

// Tag reads a single-byte discriminant and checks it against family.
func (d *Decoder) Tag(family Family) (byte, error) {
	off := d.Offset()
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if !d.cfg.Recognizes(family, uint32(b)) {
		return 0, errors.UnknownTag(off, family.String(), uint32(b))
	}
	return b, nil
}

// TagU32 reads a LEB128 discriminant and checks it against family.
func (d *Decoder) TagU32(family Family) (uint32, error) {
	off := d.Offset()
	v, err := d.r.ReadU32()
	if err != nil {
		return 0, err
	}
	if !d.cfg.Recognizes(family, v) {
		return 0, errors.UnknownTag(off, family.String(), v)
	}
	return v, nil
}

// Decode decodes c in place.
func (d *Decoder) Decode(c Codec) error {
	return c.Decode(d)
}

// Encoder appends values to an in-memory buffer under one Config.
type Encoder struct {
	w   *binary.Writer
	cfg *Config
}

// NewEncoder creates an empty Encoder. A nil cfg selects DefaultConfig.
func NewEncoder(cfg *Config) *Encoder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Encoder{w: binary.NewWriter(), cfg: cfg}
}

// Config returns the active configuration.
func (e *Encoder) Config() *Config { return e.cfg }

// Bytes returns the encoded output.
func (e *Encoder) Bytes() []byte { return e.w.Bytes() }

// Len returns the number of bytes written.
func (e *Encoder) Len() int { return e.w.Len() }

func (e *Encoder) Byte(b byte)          { e.w.Byte(b) }
func (e *Encoder) Raw(b []byte)         { e.w.WriteBytes(b) }
func (e *Encoder) U32(v uint32)         { e.w.WriteU32(v) }
func (e *Encoder) U64(v uint64)         { e.w.WriteU64(v) }
func (e *Encoder) S32(v int32)          { e.w.WriteS32(v) }
func (e *Encoder) S33(v int64)          { e.w.WriteS33(v) }
func (e *Encoder) S64(v int64)          { e.w.WriteS64(v) }
func (e *Encoder) F32Bits(v uint32)     { e.w.WriteU32LE(v) }
func (e *Encoder) F64Bits(v uint64)     { e.w.WriteU64LE(v) }
func (e *Encoder) Bool(v bool)          { e.w.WriteBool(v) }
func (e *Encoder) U32LE(v uint32)       { e.w.WriteU32LE(v) }
func (e *Encoder) Name(s string) error  { return e.lengthPrefixed(len(s), func() { e.w.WriteName(s) }) }
func (e *Encoder) Blob(b []byte) error  { return e.lengthPrefixed(len(b), func() { e.w.WriteBlob(b) }) }
func (e *Encoder) Encode(c Codec) error { return c.Encode(e) }

// Count writes a sequence length, failing if it does not fit in a u32.
func (e *Encoder) Count(n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return errors.Encode("count %d does not fit in u32", n)
	}
	e.w.WriteU32(uint32(n))
	return nil
}

func (e *Encoder) lengthPrefixed(n int, write func()) error {
	if uint64(n) > math.MaxUint32 {
		return errors.Encode("length %d does not fit in u32", n)
	}
	write()
	return nil
}

// Field runs one record field step, attributing failures to name.
func (e *Encoder) Field(name string, fn func() error) error {
	return errors.WithPath(fn(), name)
}

// Tag writes a single-byte discriminant after checking that family
// accepts it under the active config.
func (e *Encoder) Tag(family Family, tag byte) error {
	if !e.cfg.Recognizes(family, uint32(tag)) {
		return errors.Encode("%s tag 0x%x is not enabled (features: %s)", family, tag, e.cfg.features)
	}
	e.w.Byte(tag)
	return nil
}

// TagU32 writes a LEB128 discriminant after checking it against family.
func (e *Encoder) TagU32(family Family, tag uint32) error {
	if !e.cfg.Recognizes(family, tag) {
		return errors.Encode("%s tag 0x%x is not enabled (features: %s)", family, tag, e.cfg.features)
	}
	e.w.WriteU32(tag)
	return nil
}

// Sized encodes fn into a scratch buffer and writes it with a u32
// byte-length prefix.
func (e *Encoder) Sized(fn func(*Encoder) error) error {
	inner := &Encoder{w: binary.NewWriter(), cfg: e.cfg}
	if err := fn(inner); err != nil {
		return err
	}
	return e.Blob(inner.Bytes())
}
