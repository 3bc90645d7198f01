package wasm

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasmbin/errors"
)

// Lazy defers decoding of a size-prefixed region. Until forced it holds
// only the raw bytes and re-emits them verbatim; once forced the memoized
// value is authoritative and is what gets encoded.
//
// Concurrent Force calls are safe. Racing decoders may do redundant work,
// but exactly one result is published and every caller observes it.
// Mutating the forced value requires external synchronization.
type Lazy[T any, P interface {
	*T
	Codec
}] struct {
	raw    []byte
	cfg    *Config
	offset int
	value  atomic.Pointer[T]
}

// NewLazy returns an already-forced Lazy holding v.
func NewLazy[T any, P interface {
	*T
	Codec
}](v T) *Lazy[T, P] {
	l := &Lazy[T, P]{}
	l.value.Store(&v)
	return l
}

// LazyFromRaw wraps undecoded bytes. The Lazy takes ownership of raw;
// the caller must not modify it afterwards. Offsets in decode errors are reported
// relative to the start of raw. A nil cfg selects DefaultConfig.
func LazyFromRaw[T any, P interface {
	*T
	Codec
}](raw []byte, cfg *Config) *Lazy[T, P] {
	return &Lazy[T, P]{raw: raw, cfg: cfg}
}

// IsForced reports whether the value has been decoded or set.
func (l *Lazy[T, P]) IsForced() bool {
	return l.value.Load() != nil
}

// Raw returns the bytes the region was decoded from, or nil if it was
// built from a value.
func (l *Lazy[T, P]) Raw() []byte {
	return l.raw
}

// Force decodes the raw bytes on first use and returns the memoized value.
// Decode errors are returned to the caller and not cached.
func (l *Lazy[T, P]) Force() (*T, error) {
	if v := l.value.Load(); v != nil {
		return v, nil
	}
	start := time.Now()
	v := new(T)
	d := newDecoderAt(l.raw, l.offset, l.cfg)
	if err := P(v).Decode(d); err != nil {
		return nil, err
	}
	if err := d.ExpectEnd(); err != nil {
		return nil, err
	}
	if !l.value.CompareAndSwap(nil, v) {
		return l.value.Load(), nil
	}
	if ce := Logger().Check(zap.DebugLevel, "lazy region forced"); ce != nil {
		ce.Write(
			zap.String("type", typeName[T]()),
			zap.Int("offset", l.offset),
			zap.Int("size", len(l.raw)),
			zap.Duration("took", time.Since(start)),
		)
	}
	return v, nil
}

// MustForce is like Force but panics on error.
func (l *Lazy[T, P]) MustForce() *T {
	v, err := l.Force()
	if err != nil {
		panic(err)
	}
	return v
}

func (l *Lazy[T, P]) forceAny() error {
	_, err := l.Force()
	return err
}

// Set replaces the value, marking the region forced.
func (l *Lazy[T, P]) Set(v T) {
	l.value.Store(&v)
}

// Decode reads a u32 byte length and retains that many bytes undecoded.
func (l *Lazy[T, P]) Decode(d *Decoder) error {
	n, err := d.U32()
	if err != nil {
		return err
	}
	off := d.Offset()
	raw, err := d.Bytes(int(n))
	if err != nil {
		return err
	}
	l.raw = raw
	l.offset = off
	l.cfg = d.cfg
	l.value.Store(nil)
	return nil
}

// Encode writes the size-prefixed raw bytes if the region was never
// forced, and the size-prefixed encoding of the value otherwise.
func (l *Lazy[T, P]) Encode(e *Encoder) error {
	v := l.value.Load()
	if v == nil {
		return e.Blob(l.raw)
	}
	return e.Sized(func(e *Encoder) error {
		return P(v).Encode(e)
	})
}

// VisitChildren forces the region and visits its value, unless the
// visitor skips unforced regions.
func (l *Lazy[T, P]) VisitChildren(v *Visitor) error {
	if v.skipUnforced && !l.IsForced() {
		return nil
	}
	val, err := l.Force()
	if err != nil {
		return errors.Wrap(errors.PhaseVisit, errors.KindOf(err), err, "force "+typeName[T]())
	}
	return v.Visit(P(val))
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
