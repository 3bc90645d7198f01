package wasm

import (
	"github.com/wippyai/wasmbin/errors"
)

// Section is one top-level module section. The set of implementations is
// closed: CustomSection plus one lazily decoded type per standard section.
type Section interface {
	Codec
	ID() SectionID
	section()
}

func newSection(id SectionID) Section {
	switch id {
	case SectionCustom:
		return &CustomSection{}
	case SectionType:
		return &TypeSection{}
	case SectionImport:
		return &ImportSection{}
	case SectionFunction:
		return &FunctionSection{}
	case SectionTable:
		return &TableSection{}
	case SectionMemory:
		return &MemorySection{}
	case SectionGlobal:
		return &GlobalSection{}
	case SectionExport:
		return &ExportSection{}
	case SectionStart:
		return &StartSection{}
	case SectionElement:
		return &ElementSection{}
	case SectionCode:
		return &CodeSection{}
	case SectionData:
		return &DataSection{}
	case SectionDataCount:
		return &DataCountSection{}
	case SectionTag:
		return &TagSection{}
	}
	return nil
}

// lazySection is implemented by every standard section.
type lazySection interface {
	Section
	IsForced() bool
	Raw() []byte
	forceAny() error
}

func decodeInto[T any, P interface {
	*T
	Codec
}](d *Decoder, s *[]T) error {
	items, err := decodeVec[T, P](d)
	*s = items
	return err
}

// CustomSection is a named section with an opaque payload.
type CustomSection struct {
	Name string
	Data []byte
}

func (*CustomSection) ID() SectionID { return SectionCustom }
func (*CustomSection) section()      {}

func (c *CustomSection) Decode(d *Decoder) error {
	size, err := d.U32()
	if err != nil {
		return err
	}
	sub, err := d.Sub(int(size))
	if err != nil {
		return err
	}
	if err := sub.Field("name", func() (err error) {
		c.Name, err = sub.Name()
		return err
	}); err != nil {
		return err
	}
	c.Data = sub.Remaining()
	return nil
}

func (c *CustomSection) Encode(e *Encoder) error {
	return e.Sized(func(e *Encoder) error {
		if err := e.Name(c.Name); err != nil {
			return err
		}
		e.Raw(c.Data)
		return nil
	})
}

// Names parses the payload as a name section.
func (c *CustomSection) Names() (*NameSection, error) {
	if c.Name != NameSectionName {
		return nil, errors.InvalidEncoding(errors.NoOffset, "custom section %q is not a name section", c.Name)
	}
	ns := &NameSection{}
	if err := ns.Decode(NewDecoder(c.Data, nil)); err != nil {
		return nil, errors.WithPath(err, NameSectionName)
	}
	return ns, nil
}

// SetNames replaces the payload with the encoding of ns.
func (c *CustomSection) SetNames(ns *NameSection) error {
	e := NewEncoder(nil)
	if err := ns.Encode(e); err != nil {
		return err
	}
	c.Name = NameSectionName
	c.Data = e.Bytes()
	return nil
}

// FuncTypes is the content of the type section.
type FuncTypes []FuncType

func (s *FuncTypes) Decode(d *Decoder) error        { return decodeInto(d, (*[]FuncType)(s)) }
func (s *FuncTypes) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *FuncTypes) VisitChildren(v *Visitor) error { return visitElems(v, (*[]FuncType)(s)) }

// Imports is the content of the import section.
type Imports []Import

func (s *Imports) Decode(d *Decoder) error        { return decodeInto(d, (*[]Import)(s)) }
func (s *Imports) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Imports) VisitChildren(v *Visitor) error { return visitElems(v, (*[]Import)(s)) }

// Functions is the content of the function section: one type index per
// module-defined function.
type Functions []TypeID

func (s *Functions) Decode(d *Decoder) error        { return decodeInto(d, (*[]TypeID)(s)) }
func (s *Functions) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Functions) VisitChildren(v *Visitor) error { return visitElems(v, (*[]TypeID)(s)) }

// Tables is the content of the table section.
type Tables []TableType

func (s *Tables) Decode(d *Decoder) error        { return decodeInto(d, (*[]TableType)(s)) }
func (s *Tables) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Tables) VisitChildren(v *Visitor) error { return visitElems(v, (*[]TableType)(s)) }

// Memories is the content of the memory section.
type Memories []MemoryType

func (s *Memories) Decode(d *Decoder) error        { return decodeInto(d, (*[]MemoryType)(s)) }
func (s *Memories) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Memories) VisitChildren(v *Visitor) error { return visitElems(v, (*[]MemoryType)(s)) }

// Tags is the content of the tag section.
type Tags []TagType

func (s *Tags) Decode(d *Decoder) error        { return decodeInto(d, (*[]TagType)(s)) }
func (s *Tags) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Tags) VisitChildren(v *Visitor) error { return visitElems(v, (*[]TagType)(s)) }

// Globals is the content of the global section.
type Globals []Global

func (s *Globals) Decode(d *Decoder) error        { return decodeInto(d, (*[]Global)(s)) }
func (s *Globals) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Globals) VisitChildren(v *Visitor) error { return visitElems(v, (*[]Global)(s)) }

// Exports is the content of the export section.
type Exports []Export

func (s *Exports) Decode(d *Decoder) error        { return decodeInto(d, (*[]Export)(s)) }
func (s *Exports) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Exports) VisitChildren(v *Visitor) error { return visitElems(v, (*[]Export)(s)) }

// Elements is the content of the element section.
type Elements []Element

func (s *Elements) Decode(d *Decoder) error        { return decodeInto(d, (*[]Element)(s)) }
func (s *Elements) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *Elements) VisitChildren(v *Visitor) error { return visitElems(v, (*[]Element)(s)) }

// DataSegments is the content of the data section.
type DataSegments []DataSegment

func (s *DataSegments) Decode(d *Decoder) error        { return decodeInto(d, (*[]DataSegment)(s)) }
func (s *DataSegments) Encode(e *Encoder) error        { return encodeVec(e, *s) }
func (s *DataSegments) VisitChildren(v *Visitor) error { return visitElems(v, (*[]DataSegment)(s)) }

// LazyBody is one code section entry, decoded on demand.
type LazyBody = Lazy[FuncBody, *FuncBody]

// Code is the content of the code section. Each body is its own lazy
// region, so touching one function leaves the others verbatim.
type Code []*LazyBody

func (s *Code) Decode(d *Decoder) error {
	bodies, err := DecodeSeq(d, func(d *Decoder, b **LazyBody) error {
		*b = &LazyBody{}
		return (*b).Decode(d)
	})
	*s = bodies
	return err
}

func (s *Code) Encode(e *Encoder) error {
	return EncodeSeq(e, *s, func(e *Encoder, b **LazyBody) error {
		if *b == nil {
			return errors.Encode("nil function body")
		}
		return (*b).Encode(e)
	})
}

func (s *Code) VisitChildren(v *Visitor) error {
	for i := 0; i < len(*s); i++ {
		if (*s)[i] == nil {
			continue
		}
		if err := v.Visit((*s)[i]); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
	}
	return nil
}

// Standard sections. Each wraps its content in a Lazy so sections that are
// never forced re-encode byte for byte.
type (
	TypeSection      struct{ Lazy[FuncTypes, *FuncTypes] }
	ImportSection    struct{ Lazy[Imports, *Imports] }
	FunctionSection  struct{ Lazy[Functions, *Functions] }
	TableSection     struct{ Lazy[Tables, *Tables] }
	MemorySection    struct{ Lazy[Memories, *Memories] }
	TagSection       struct{ Lazy[Tags, *Tags] }
	GlobalSection    struct{ Lazy[Globals, *Globals] }
	ExportSection    struct{ Lazy[Exports, *Exports] }
	StartSection     struct{ Lazy[FuncID, *FuncID] }
	ElementSection   struct{ Lazy[Elements, *Elements] }
	DataCountSection struct{ Lazy[DataCount, *DataCount] }
	CodeSection      struct{ Lazy[Code, *Code] }
	DataSection      struct{ Lazy[DataSegments, *DataSegments] }
)

func (*TypeSection) ID() SectionID      { return SectionType }
func (*ImportSection) ID() SectionID    { return SectionImport }
func (*FunctionSection) ID() SectionID  { return SectionFunction }
func (*TableSection) ID() SectionID     { return SectionTable }
func (*MemorySection) ID() SectionID    { return SectionMemory }
func (*TagSection) ID() SectionID       { return SectionTag }
func (*GlobalSection) ID() SectionID    { return SectionGlobal }
func (*ExportSection) ID() SectionID    { return SectionExport }
func (*StartSection) ID() SectionID     { return SectionStart }
func (*ElementSection) ID() SectionID   { return SectionElement }
func (*DataCountSection) ID() SectionID { return SectionDataCount }
func (*CodeSection) ID() SectionID      { return SectionCode }
func (*DataSection) ID() SectionID      { return SectionData }

func (*TypeSection) section()      {}
func (*ImportSection) section()    {}
func (*FunctionSection) section()  {}
func (*TableSection) section()     {}
func (*MemorySection) section()    {}
func (*TagSection) section()       {}
func (*GlobalSection) section()    {}
func (*ExportSection) section()    {}
func (*StartSection) section()     {}
func (*ElementSection) section()   {}
func (*DataCountSection) section() {}
func (*CodeSection) section()      {}
func (*DataSection) section()      {}

// NewTypeSection returns a forced type section holding types.
func NewTypeSection(types FuncTypes) *TypeSection {
	s := &TypeSection{}
	s.Set(types)
	return s
}

// NewImportSection returns a forced import section.
func NewImportSection(imports Imports) *ImportSection {
	s := &ImportSection{}
	s.Set(imports)
	return s
}

// NewFunctionSection returns a forced function section.
func NewFunctionSection(funcs Functions) *FunctionSection {
	s := &FunctionSection{}
	s.Set(funcs)
	return s
}

// NewTableSection returns a forced table section.
func NewTableSection(tables Tables) *TableSection {
	s := &TableSection{}
	s.Set(tables)
	return s
}

// NewMemorySection returns a forced memory section.
func NewMemorySection(mems Memories) *MemorySection {
	s := &MemorySection{}
	s.Set(mems)
	return s
}

// NewTagSection returns a forced tag section.
func NewTagSection(tags Tags) *TagSection {
	s := &TagSection{}
	s.Set(tags)
	return s
}

// NewGlobalSection returns a forced global section.
func NewGlobalSection(globals Globals) *GlobalSection {
	s := &GlobalSection{}
	s.Set(globals)
	return s
}

// NewExportSection returns a forced export section.
func NewExportSection(exports Exports) *ExportSection {
	s := &ExportSection{}
	s.Set(exports)
	return s
}

// NewStartSection returns a forced start section.
func NewStartSection(f FuncID) *StartSection {
	s := &StartSection{}
	s.Set(f)
	return s
}

// NewElementSection returns a forced element section.
func NewElementSection(elems Elements) *ElementSection {
	s := &ElementSection{}
	s.Set(elems)
	return s
}

// NewDataCountSection returns a forced data count section.
func NewDataCountSection(n uint32) *DataCountSection {
	s := &DataCountSection{}
	s.Set(DataCount(n))
	return s
}

// NewCodeSection returns a forced code section with one forced body per entry.
func NewCodeSection(bodies ...FuncBody) *CodeSection {
	code := make(Code, len(bodies))
	for i, b := range bodies {
		code[i] = NewLazy[FuncBody](b)
	}
	s := &CodeSection{}
	s.Set(code)
	return s
}

// NewDataSection returns a forced data section.
func NewDataSection(segs DataSegments) *DataSection {
	s := &DataSection{}
	s.Set(segs)
	return s
}
