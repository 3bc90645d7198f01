package wasm_test

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/wippyai/wasmbin/errors"
	"github.com/wippyai/wasmbin/wasm"
)

func readByteElem(d *wasm.Decoder, v *byte) error {
	b, err := d.Byte()
	*v = b
	return err
}

func TestDecodeSeq(t *testing.T) {
	d := wasm.NewDecoder([]byte{0x03, 0x0A, 0x0B, 0x0C, 0xFF}, nil)
	got, err := wasm.DecodeSeq(d, readByteElem)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0x0A, 0x0B, 0x0C}) || d.Len() != 1 {
		t.Errorf("got %x with %d left", got, d.Len())
	}
}

func TestDecodeSeqCountGuard(t *testing.T) {
	// a count far larger than the input fails before allocating
	d := wasm.NewDecoder([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F, 0x00}, nil)
	_, err := wasm.DecodeSeq(d, readByteElem)
	if !stderrors.Is(err, errors.ErrTruncated) {
		t.Fatalf("got %v, want truncated", err)
	}
}

func TestDecodeSeqElementPath(t *testing.T) {
	d := wasm.NewDecoder([]byte{0x03, 0x7F, 0x7E, 0x42}, nil)
	_, err := wasm.DecodeSeq(d, func(d *wasm.Decoder, v *wasm.ValType) error {
		return v.Decode(d)
	})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnknownTag {
		t.Fatalf("got %v, want unknown tag", err)
	}
	if got := errors.JoinPath(e.Path); got != "[2]" {
		t.Errorf("path = %q", got)
	}
	if e.Offset != 3 {
		t.Errorf("offset = %d", e.Offset)
	}
}

func TestEncodeSeq(t *testing.T) {
	e := wasm.NewEncoder(nil)
	items := []wasm.ValType{wasm.ValI32, wasm.ValF64}
	err := wasm.EncodeSeq(e, items, func(e *wasm.Encoder, v *wasm.ValType) error {
		return v.Encode(e)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(e.Bytes(), []byte{0x02, 0x7F, 0x7C}) {
		t.Errorf("got %x", e.Bytes())
	}

	bad := []wasm.ValType{wasm.ValI32, wasm.ValV128}
	err = wasm.EncodeSeq(wasm.NewEncoder(cfgNone), bad, func(e *wasm.Encoder, v *wasm.ValType) error {
		return v.Encode(e)
	})
	var ee *errors.Error
	if !stderrors.As(err, &ee) || ee.Kind != errors.KindEncode {
		t.Fatalf("got %v, want encode error", err)
	}
	if got := errors.JoinPath(ee.Path); got != "[1]" {
		t.Errorf("path = %q", got)
	}
}

func TestEmptySeq(t *testing.T) {
	d := wasm.NewDecoder([]byte{0x00}, nil)
	got, err := wasm.DecodeSeq(d, readByteElem)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
	e := wasm.NewEncoder(nil)
	if err := wasm.EncodeSeq(e, got, func(*wasm.Encoder, *byte) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(e.Bytes(), []byte{0x00}) {
		t.Errorf("got %x", e.Bytes())
	}
}
