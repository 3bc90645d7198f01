package wasm

import (
	"github.com/wippyai/wasmbin/errors"
)

// DecodeSeq reads a u32 count followed by that many elements.
// Element failures carry their index in the error path.
func DecodeSeq[T any](d *Decoder, elem func(*Decoder, *T) error) ([]T, error) {
	off := d.Offset()
	n, err := d.U32()
	if err != nil {
		return nil, err
	}
	// every element occupies at least one byte
	if int(n) > d.Len() {
		return nil, errors.Truncated(off, int(n), d.Len())
	}
	items := make([]T, n)
	for i := range items {
		if err := elem(d, &items[i]); err != nil {
			return nil, errors.WithPath(err, errors.Index(i))
		}
	}
	return items, nil
}

// EncodeSeq writes len(items) followed by each element in order.
func EncodeSeq[T any](e *Encoder, items []T, elem func(*Encoder, *T) error) error {
	if err := e.Count(len(items)); err != nil {
		return err
	}
	for i := range items {
		if err := elem(e, &items[i]); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
	}
	return nil
}

// decodeVec decodes a sequence of Codec values.
func decodeVec[T any, P interface {
	*T
	Codec
}](d *Decoder) ([]T, error) {
	return DecodeSeq(d, func(d *Decoder, v *T) error {
		return P(v).Decode(d)
	})
}

// encodeVec encodes a sequence of Codec values.
func encodeVec[T any, P interface {
	*T
	Codec
}](e *Encoder, items []T) error {
	return EncodeSeq(e, items, func(e *Encoder, v *T) error {
		return P(v).Encode(e)
	})
}

// visitSeq offers the slice itself to the visitor, then each element.
// The slice is re-read after the callback so insertions and removals
// made through the pointer are honoured.
func visitSeq[T any](v *Visitor, s *[]T) error {
	descend, err := v.enter(s)
	if err != nil || !descend {
		return err
	}
	return visitElems(v, s)
}
