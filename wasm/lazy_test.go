package wasm_test

import (
	"bytes"
	stderrors "errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/wasmbin/errors"
	"github.com/wippyai/wasmbin/wasm"
)

// One signature () -> () whose result count uses a two-byte LEB128.
var overlongTypes = []byte{0x01, 0x60, 0x00, 0x80, 0x00}

func encodeLazy(t *testing.T, l wasm.Codec) []byte {
	t.Helper()
	e := wasm.NewEncoder(nil)
	if err := l.Encode(e); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return e.Bytes()
}

func TestLazyVerbatimUntilForced(t *testing.T) {
	l := wasm.LazyFromRaw[wasm.FuncTypes](overlongTypes, nil)
	if l.IsForced() {
		t.Fatal("raw lazy reported forced")
	}
	want := append([]byte{byte(len(overlongTypes))}, overlongTypes...)
	if got := encodeLazy(t, l); !bytes.Equal(got, want) {
		t.Fatalf("unforced: got %x, want %x", got, want)
	}

	v, err := l.Force()
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	if len(*v) != 1 || len((*v)[0].Results) != 0 {
		t.Fatalf("value = %+v", *v)
	}
	// forced regions re-encode canonically
	if got := encodeLazy(t, l); !bytes.Equal(got, []byte{0x04, 0x01, 0x60, 0x00, 0x00}) {
		t.Fatalf("forced: got %x", got)
	}
	if !bytes.Equal(l.Raw(), overlongTypes) {
		t.Error("raw bytes changed by force")
	}
}

func TestLazyForceMemoized(t *testing.T) {
	l := wasm.LazyFromRaw[wasm.FuncTypes](overlongTypes, nil)
	first := l.MustForce()
	second := l.MustForce()
	if first != second {
		t.Fatal("Force returned different values")
	}
}

func TestLazyConcurrentForce(t *testing.T) {
	l := wasm.LazyFromRaw[wasm.FuncTypes](overlongTypes, nil)

	const workers = 32
	results := make([]*wasm.FuncTypes, workers)
	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			v, err := l.Force()
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("force: %v", err)
	}
	for i, v := range results {
		if v != results[0] {
			t.Fatalf("worker %d observed a different value", i)
		}
	}
}

func TestLazyErrorNotMemoized(t *testing.T) {
	l := wasm.LazyFromRaw[wasm.FuncTypes]([]byte{0x01, 0x60}, nil)
	for i := 0; i < 2; i++ {
		if _, err := l.Force(); !stderrors.Is(err, errors.ErrTruncated) {
			t.Fatalf("attempt %d: got %v, want truncated", i, err)
		}
		if l.IsForced() {
			t.Fatalf("attempt %d: failed force marked the region forced", i)
		}
	}
}

func TestLazyTrailingBytes(t *testing.T) {
	l := wasm.LazyFromRaw[wasm.FuncTypes]([]byte{0x00, 0x00}, nil)
	_, err := l.Force()
	if !stderrors.Is(err, errors.ErrInvalidEncoding) {
		t.Fatalf("got %v, want invalid encoding", err)
	}
}

func TestLazySet(t *testing.T) {
	l := wasm.LazyFromRaw[wasm.FuncTypes](overlongTypes, nil)
	l.Set(wasm.FuncTypes{{Params: []wasm.ValType{wasm.ValI32}}})
	if !l.IsForced() {
		t.Fatal("Set did not force")
	}
	want := []byte{0x05, 0x01, 0x60, 0x01, 0x7F, 0x00}
	if got := encodeLazy(t, l); !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestLazyDecodeOffsets(t *testing.T) {
	// size prefix, then a function index list with an over-wide entry
	data := []byte{0x07, 0x01, 0x80, 0x80, 0x80, 0x80, 0x10, 0x00}
	var l wasm.Lazy[wasm.Functions, *wasm.Functions]
	d := wasm.NewDecoder(data, nil)
	if err := l.Decode(d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Len() != 0 {
		t.Fatalf("%d bytes left", d.Len())
	}
	_, err := l.Force()
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOverflow {
		t.Fatalf("got %v, want overflow", err)
	}
	// offsets are absolute within the enclosing input
	if e.Offset != 2 {
		t.Errorf("offset = %d, want 2", e.Offset)
	}
	if got := errors.JoinPath(e.Path); got != "[0]" {
		t.Errorf("path = %q", got)
	}
}

func TestLazyDecodeTruncated(t *testing.T) {
	var l wasm.Lazy[wasm.Functions, *wasm.Functions]
	if err := l.Decode(wasm.NewDecoder([]byte{0x05, 0x00}, nil)); !stderrors.Is(err, errors.ErrTruncated) {
		t.Fatalf("got %v, want truncated", err)
	}
}

func TestNewLazy(t *testing.T) {
	l := wasm.NewLazy[wasm.FuncBody](wasm.FuncBody{Body: wasm.Expr{wasm.Op(wasm.OpNop)}})
	if !l.IsForced() || l.Raw() != nil {
		t.Fatal("NewLazy should be forced without raw bytes")
	}
	if got := encodeLazy(t, l); !bytes.Equal(got, []byte{0x03, 0x00, 0x01, 0x0B}) {
		t.Fatalf("got %x", got)
	}
}
