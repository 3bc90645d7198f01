package wasm

import (
	stderrors "errors"

	"github.com/wippyai/wasmbin/errors"
)

// Visitable is implemented by containers. VisitChildren hands a pointer to
// every directly reachable field, element, or payload to v.Visit.
type Visitable interface {
	VisitChildren(v *Visitor) error
}

var (
	// ErrSkipChildren returned from a visit callback prunes the subtree
	// below the current value.
	ErrSkipChildren = stderrors.New("wasm: skip children")
	// ErrStop returned from a visit callback ends the walk without error.
	ErrStop = stderrors.New("wasm: stop visiting")
)

// VisitOption configures a Visitor.
type VisitOption func(*Visitor)

// SkipUnforced leaves lazy regions that were never forced untouched, so a
// read-only walk keeps them zero-copy.
func SkipUnforced() VisitOption {
	return func(v *Visitor) { v.skipUnforced = true }
}

// Visitor drives a depth-first traversal. The callback receives a pointer
// to each reachable value (*FuncID, *FuncType, *Expr followed by its
// *[]Instruction, ...) and may mutate it in place.
type Visitor struct {
	fn           func(any) error
	skipUnforced bool
}

// NewVisitor creates a Visitor that calls fn on every reachable value.
func NewVisitor(fn func(any) error, opts ...VisitOption) *Visitor {
	v := &Visitor{fn: fn}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SkipsUnforced reports whether unforced lazy regions are left alone.
func (v *Visitor) SkipsUnforced() bool { return v.skipUnforced }

// Visit calls the callback on x and then descends into x's children.
func (v *Visitor) Visit(x any) error {
	descend, err := v.enter(x)
	if err != nil || !descend {
		return err
	}
	if c, ok := x.(Visitable); ok {
		return c.VisitChildren(v)
	}
	return nil
}

func (v *Visitor) enter(x any) (bool, error) {
	if v.fn == nil {
		return true, nil
	}
	if err := v.fn(x); err != nil {
		if err == ErrSkipChildren {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// visitElems visits each element of s by pointer, re-reading the length
// on every step.
func visitElems[T any](v *Visitor, s *[]T) error {
	for i := 0; i < len(*s); i++ {
		if err := v.Visit(&(*s)[i]); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
	}
	return nil
}

// visitField visits one record field, attributing failures to name.
func visitField(v *Visitor, name string, x any) error {
	return errors.WithPath(v.Visit(x), name)
}

// Walk visits root and everything reachable from it. Returning ErrStop
// from fn ends the walk early without error.
func Walk(root any, fn func(any) error, opts ...VisitOption) error {
	err := NewVisitor(fn, opts...).Visit(root)
	if stderrors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// VisitAll calls fn for every reachable value of type T.
func VisitAll[T any](root any, fn func(*T) error, opts ...VisitOption) error {
	return Walk(root, func(x any) error {
		if t, ok := x.(*T); ok {
			return fn(t)
		}
		return nil
	}, opts...)
}

// Collect returns a copy of every reachable value of type T without
// forcing lazy regions.
func Collect[T any](root any) ([]T, error) {
	var out []T
	err := VisitAll(root, func(t *T) error {
		out = append(out, *t)
		return nil
	}, SkipUnforced())
	return out, err
}

// Unlazify forces every lazy region reachable from root.
func Unlazify(root any) error {
	return Walk(root, nil)
}
