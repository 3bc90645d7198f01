package wasm

import (
	"github.com/wippyai/wasmbin/errors"
)

// NameSectionName is the custom section carrying debug names.
const NameSectionName = "name"

// NameAssoc maps one index to a name. I is the index space the map
// names, so renumbering that space with a visitor also renames.
type NameAssoc[I ~uint32] struct {
	Name  string
	Index I
}

func (n *NameAssoc[I]) Decode(d *Decoder) error {
	err := d.Field("index", func() error { return decodeIndex(d, &n.Index) })
	if err != nil {
		return err
	}
	return d.Field("name", func() (err error) {
		n.Name, err = d.Name()
		return err
	})
}

func (n *NameAssoc[I]) Encode(e *Encoder) error {
	e.U32(uint32(n.Index))
	return e.Field("name", func() error { return e.Name(n.Name) })
}

func (n *NameAssoc[I]) VisitChildren(v *Visitor) error {
	return visitField(v, "index", &n.Index)
}

// IndirectNameAssoc maps one function to a name map of its locals.
type IndirectNameAssoc struct {
	Names []NameAssoc[LocalID]
	Index FuncID
}

func (n *IndirectNameAssoc) Decode(d *Decoder) error {
	err := d.Field("index", func() error { return n.Index.Decode(d) })
	if err != nil {
		return err
	}
	return d.Field("names", func() (err error) {
		n.Names, err = decodeVec[NameAssoc[LocalID]](d)
		return err
	})
}

func (n *IndirectNameAssoc) Encode(e *Encoder) error {
	if err := n.Index.Encode(e); err != nil {
		return err
	}
	return e.Field("names", func() error { return encodeVec(e, n.Names) })
}

func (n *IndirectNameAssoc) VisitChildren(v *Visitor) error {
	if err := visitField(v, "index", &n.Index); err != nil {
		return err
	}
	return errors.WithPath(visitSeq(v, &n.Names), "names")
}

// NameSubsection is one subsection of the name section. ID selects the
// populated field; subsections with unrecognized IDs keep their payload
// in Raw and are re-emitted unchanged.
type NameSubsection struct {
	Module    string
	Functions []NameAssoc[FuncID]
	Locals    []IndirectNameAssoc
	Raw       []byte
	ID        byte
}

func (s *NameSubsection) Decode(d *Decoder) error {
	id, err := d.Byte()
	if err != nil {
		return err
	}
	*s = NameSubsection{ID: id}
	size, err := d.U32()
	if err != nil {
		return err
	}
	sub, err := d.Sub(int(size))
	if err != nil {
		return err
	}
	if !d.cfg.Recognizes(FamilyNameSubsection, uint32(id)) {
		s.Raw = sub.Remaining()
		return nil
	}
	switch id {
	case NameSubsectionModule:
		s.Module, err = sub.Name()
	case NameSubsectionFunction:
		s.Functions, err = decodeVec[NameAssoc[FuncID]](sub)
	case NameSubsectionLocal:
		s.Locals, err = decodeVec[IndirectNameAssoc](sub)
	}
	if err != nil {
		return err
	}
	return sub.ExpectEnd()
}

// VisitChildren offers the function and local name maps. Raw payloads of
// unrecognized subsections are opaque.
func (s *NameSubsection) VisitChildren(v *Visitor) error {
	if err := errors.WithPath(visitSeq(v, &s.Functions), "functions"); err != nil {
		return err
	}
	return errors.WithPath(visitSeq(v, &s.Locals), "locals")
}

func (s *NameSubsection) Encode(e *Encoder) error {
	e.Byte(s.ID)
	if !e.cfg.Recognizes(FamilyNameSubsection, uint32(s.ID)) {
		return e.Blob(s.Raw)
	}
	return e.Sized(func(e *Encoder) error {
		switch s.ID {
		case NameSubsectionModule:
			return e.Name(s.Module)
		case NameSubsectionFunction:
			return encodeVec(e, s.Functions)
		default:
			return encodeVec(e, s.Locals)
		}
	})
}

// NameSection is the parsed payload of the "name" custom section. The
// section is stored raw in its CustomSection, so a walk over the Module
// does not reach it; parse it with Names, walk it, and store it back with
// SetNames.
type NameSection struct {
	Subsections []NameSubsection
}

func (n *NameSection) VisitChildren(v *Visitor) error {
	return visitElems(v, &n.Subsections)
}

func (n *NameSection) Decode(d *Decoder) error {
	n.Subsections = nil
	for i := 0; d.Len() > 0; i++ {
		var s NameSubsection
		if err := s.Decode(d); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
		n.Subsections = append(n.Subsections, s)
	}
	return nil
}

func (n *NameSection) Encode(e *Encoder) error {
	for i := range n.Subsections {
		if err := n.Subsections[i].Encode(e); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
	}
	return nil
}

func (n *NameSection) find(id byte) *NameSubsection {
	for i := range n.Subsections {
		if n.Subsections[i].ID == id {
			return &n.Subsections[i]
		}
	}
	return nil
}

// ModuleName returns the module name, if present.
func (n *NameSection) ModuleName() (string, bool) {
	if s := n.find(NameSubsectionModule); s != nil {
		return s.Module, true
	}
	return "", false
}

// FunctionName returns the debug name of function f.
func (n *NameSection) FunctionName(f FuncID) (string, bool) {
	s := n.find(NameSubsectionFunction)
	if s == nil {
		return "", false
	}
	for _, a := range s.Functions {
		if a.Index == f {
			return a.Name, true
		}
	}
	return "", false
}

// LocalName returns the debug name of local l in function f.
func (n *NameSection) LocalName(f FuncID, l LocalID) (string, bool) {
	s := n.find(NameSubsectionLocal)
	if s == nil {
		return "", false
	}
	for _, fn := range s.Locals {
		if fn.Index != f {
			continue
		}
		for _, a := range fn.Names {
			if a.Index == l {
				return a.Name, true
			}
		}
	}
	return "", false
}
