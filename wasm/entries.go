package wasm

import (
	"github.com/wippyai/wasmbin/errors"
)

// ImportDesc is the imported entity. Kind selects which field is meaningful.
type ImportDesc struct {
	Table  TableType
	Memory MemoryType
	Global GlobalType
	Tag    TagType
	Func   TypeID
	Kind   byte
}

func (i *ImportDesc) Decode(d *Decoder) error {
	kind, err := d.Tag(FamilyExternKind)
	if err != nil {
		return err
	}
	*i = ImportDesc{Kind: kind}
	switch kind {
	case KindFunc:
		return d.Field("func", func() error { return i.Func.Decode(d) })
	case KindTable:
		return d.Field("table", func() error { return i.Table.Decode(d) })
	case KindMemory:
		return d.Field("memory", func() error { return i.Memory.Decode(d) })
	case KindGlobal:
		return d.Field("global", func() error { return i.Global.Decode(d) })
	default:
		return d.Field("tag", func() error { return i.Tag.Decode(d) })
	}
}

func (i *ImportDesc) Encode(e *Encoder) error {
	if err := e.Tag(FamilyExternKind, i.Kind); err != nil {
		return err
	}
	switch i.Kind {
	case KindFunc:
		return i.Func.Encode(e)
	case KindTable:
		return e.Field("table", func() error { return i.Table.Encode(e) })
	case KindMemory:
		return e.Field("memory", func() error { return i.Memory.Encode(e) })
	case KindGlobal:
		return e.Field("global", func() error { return i.Global.Encode(e) })
	default:
		return e.Field("tag", func() error { return i.Tag.Encode(e) })
	}
}

func (i *ImportDesc) VisitChildren(v *Visitor) error {
	switch i.Kind {
	case KindFunc:
		return visitField(v, "func", &i.Func)
	case KindTable:
		return visitField(v, "table", &i.Table)
	case KindMemory:
		return visitField(v, "memory", &i.Memory)
	case KindGlobal:
		return visitField(v, "global", &i.Global)
	case KindTag:
		return visitField(v, "tag", &i.Tag)
	}
	return nil
}

// Import represents an imported function, table, memory, global or tag.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

func (im *Import) Decode(d *Decoder) error {
	err := d.Field("module", func() (err error) {
		im.Module, err = d.Name()
		return err
	})
	if err != nil {
		return err
	}
	err = d.Field("name", func() (err error) {
		im.Name, err = d.Name()
		return err
	})
	if err != nil {
		return err
	}
	return d.Field("desc", func() error { return im.Desc.Decode(d) })
}

func (im *Import) Encode(e *Encoder) error {
	if err := e.Field("module", func() error { return e.Name(im.Module) }); err != nil {
		return err
	}
	if err := e.Field("name", func() error { return e.Name(im.Name) }); err != nil {
		return err
	}
	return e.Field("desc", func() error { return im.Desc.Encode(e) })
}

func (im *Import) VisitChildren(v *Visitor) error {
	return visitField(v, "desc", &im.Desc)
}

// ExportDesc names the exported entity. Kind selects which index is meaningful.
type ExportDesc struct {
	Func   FuncID
	Table  TableID
	Memory MemID
	Global GlobalID
	Tag    TagID
	Kind   byte
}

func (x *ExportDesc) index() *uint32 {
	switch x.Kind {
	case KindFunc:
		return (*uint32)(&x.Func)
	case KindTable:
		return (*uint32)(&x.Table)
	case KindMemory:
		return (*uint32)(&x.Memory)
	case KindGlobal:
		return (*uint32)(&x.Global)
	default:
		return (*uint32)(&x.Tag)
	}
}

func (x *ExportDesc) Decode(d *Decoder) error {
	kind, err := d.Tag(FamilyExternKind)
	if err != nil {
		return err
	}
	*x = ExportDesc{Kind: kind}
	idx, err := d.U32()
	*x.index() = idx
	return err
}

func (x *ExportDesc) Encode(e *Encoder) error {
	if err := e.Tag(FamilyExternKind, x.Kind); err != nil {
		return err
	}
	e.U32(*x.index())
	return nil
}

func (x *ExportDesc) VisitChildren(v *Visitor) error {
	switch x.Kind {
	case KindFunc:
		return v.Visit(&x.Func)
	case KindTable:
		return v.Visit(&x.Table)
	case KindMemory:
		return v.Visit(&x.Memory)
	case KindGlobal:
		return v.Visit(&x.Global)
	case KindTag:
		return v.Visit(&x.Tag)
	}
	return nil
}

// Export represents an exported function, table, memory, global or tag.
type Export struct {
	Name string
	Desc ExportDesc
}

func (ex *Export) Decode(d *Decoder) error {
	err := d.Field("name", func() (err error) {
		ex.Name, err = d.Name()
		return err
	})
	if err != nil {
		return err
	}
	return d.Field("desc", func() error { return ex.Desc.Decode(d) })
}

func (ex *Export) Encode(e *Encoder) error {
	if err := e.Field("name", func() error { return e.Name(ex.Name) }); err != nil {
		return err
	}
	return e.Field("desc", func() error { return ex.Desc.Encode(e) })
}

func (ex *Export) VisitChildren(v *Visitor) error {
	return visitField(v, "desc", &ex.Desc)
}

// Global represents a module-defined global with its initializer.
type Global struct {
	Type GlobalType
	Init Expr
}

func (g *Global) Decode(d *Decoder) error {
	if err := d.Field("type", func() error { return g.Type.Decode(d) }); err != nil {
		return err
	}
	return d.Field("init", func() error { return g.Init.Decode(d) })
}

func (g *Global) Encode(e *Encoder) error {
	if err := e.Field("type", func() error { return g.Type.Encode(e) }); err != nil {
		return err
	}
	return e.Field("init", func() error { return g.Init.Encode(e) })
}

func (g *Global) VisitChildren(v *Visitor) error {
	if err := visitField(v, "type", &g.Type); err != nil {
		return err
	}
	return visitField(v, "init", &g.Init)
}

// Locals declares Count locals of one type.
type Locals struct {
	Count uint32
	Type  ValType
}

func (l *Locals) Decode(d *Decoder) error {
	err := d.Field("count", func() (err error) {
		l.Count, err = d.U32()
		return err
	})
	if err != nil {
		return err
	}
	return d.Field("type", func() error { return l.Type.Decode(d) })
}

func (l *Locals) Encode(e *Encoder) error {
	e.U32(l.Count)
	return e.Field("type", func() error { return l.Type.Encode(e) })
}

func (l *Locals) VisitChildren(v *Visitor) error {
	return visitField(v, "type", &l.Type)
}

// FuncBody is the payload of one code section entry.
type FuncBody struct {
	Locals []Locals
	Body   Expr
}

func (f *FuncBody) Decode(d *Decoder) error {
	err := d.Field("locals", func() (err error) {
		f.Locals, err = decodeVec[Locals](d)
		return err
	})
	if err != nil {
		return err
	}
	return d.Field("body", func() error { return f.Body.Decode(d) })
}

func (f *FuncBody) Encode(e *Encoder) error {
	if err := e.Field("locals", func() error { return encodeVec(e, f.Locals) }); err != nil {
		return err
	}
	return e.Field("body", func() error { return f.Body.Encode(e) })
}

func (f *FuncBody) VisitChildren(v *Visitor) error {
	if err := errors.WithPath(visitSeq(v, &f.Locals), "locals"); err != nil {
		return err
	}
	return visitField(v, "body", &f.Body)
}

// SegmentMode is how an element or data segment is applied.
type SegmentMode uint8

const (
	ModeActive SegmentMode = iota
	ModePassive
	ModeDeclarative
)

func (m SegmentMode) String() string {
	switch m {
	case ModeActive:
		return "active"
	case ModePassive:
		return "passive"
	default:
		return "declarative"
	}
}

// Element segment flag bits.
const (
	elemFlagNotActive     uint32 = 0x01
	elemFlagExplicitTable uint32 = 0x02 // declarative when not active
	elemFlagExprs         uint32 = 0x04
)

// Element is an element segment. Flags (0 to 7) selects the layout and is
// preserved so the segment re-encodes in the form it was read:
// active segments carry Offset (and Table when explicit), flags 1 to 3 and
// 5 to 7 carry an element kind or RefType, and flags 4 to 7 list Exprs
// instead of Funcs.
type Element struct {
	Offset   Expr
	Funcs    []FuncID
	Exprs    []Expr
	Flags    uint32
	Table    TableID
	ElemKind byte
	RefType  RefType
}

// Mode returns how the segment is applied.
func (el *Element) Mode() SegmentMode {
	switch {
	case el.Flags&elemFlagNotActive == 0:
		return ModeActive
	case el.Flags&elemFlagExplicitTable == 0:
		return ModePassive
	default:
		return ModeDeclarative
	}
}

func (el *Element) explicitTable() bool {
	return el.Flags&elemFlagNotActive == 0 && el.Flags&elemFlagExplicitTable != 0
}

func (el *Element) usesExprs() bool { return el.Flags&elemFlagExprs != 0 }

// hasKind reports whether the segment spells out its element kind or type.
func (el *Element) hasKind() bool { return el.Flags&(elemFlagNotActive|elemFlagExplicitTable) != 0 }

func (el *Element) Decode(d *Decoder) error {
	flags, err := d.TagU32(FamilyElemSegment)
	if err != nil {
		return err
	}
	*el = Element{Flags: flags}
	if el.explicitTable() {
		if err := d.Field("table", func() error { return el.Table.Decode(d) }); err != nil {
			return err
		}
	}
	if el.Mode() == ModeActive {
		if err := d.Field("offset", func() error { return el.Offset.Decode(d) }); err != nil {
			return err
		}
	}
	if el.usesExprs() {
		el.RefType = RefFunc
		if el.hasKind() {
			if err := d.Field("type", func() error { return el.RefType.Decode(d) }); err != nil {
				return err
			}
		}
		return d.Field("exprs", func() (err error) {
			el.Exprs, err = decodeVec[Expr](d)
			return err
		})
	}
	if el.hasKind() {
		off := d.Offset()
		kind, err := d.Byte()
		if err != nil {
			return errors.WithPath(err, "kind")
		}
		if kind != 0 {
			return errors.WithPath(errors.InvalidEncoding(off, "element kind 0x%02x", kind), "kind")
		}
		el.ElemKind = kind
	}
	return d.Field("funcs", func() (err error) {
		el.Funcs, err = decodeVec[FuncID](d)
		return err
	})
}

func (el *Element) Encode(e *Encoder) error {
	if err := e.TagU32(FamilyElemSegment, el.Flags); err != nil {
		return err
	}
	if el.explicitTable() {
		if err := el.Table.Encode(e); err != nil {
			return err
		}
	} else if el.Table != 0 {
		return errors.WithPath(errors.Encode("table %d needs an explicit-table flag", el.Table), "table")
	}
	if el.Mode() == ModeActive {
		if err := e.Field("offset", func() error { return el.Offset.Encode(e) }); err != nil {
			return err
		}
	}
	if el.usesExprs() {
		if el.hasKind() {
			if err := e.Field("type", func() error { return el.RefType.Encode(e) }); err != nil {
				return err
			}
		}
		return e.Field("exprs", func() error { return encodeVec(e, el.Exprs) })
	}
	if el.hasKind() {
		if el.ElemKind != 0 {
			return errors.WithPath(errors.Encode("element kind 0x%02x", el.ElemKind), "kind")
		}
		e.Byte(el.ElemKind)
	}
	return e.Field("funcs", func() error { return encodeVec(e, el.Funcs) })
}

func (el *Element) VisitChildren(v *Visitor) error {
	if el.explicitTable() {
		if err := visitField(v, "table", &el.Table); err != nil {
			return err
		}
	}
	if el.Mode() == ModeActive {
		if err := visitField(v, "offset", &el.Offset); err != nil {
			return err
		}
	}
	if el.usesExprs() {
		if err := visitField(v, "type", &el.RefType); err != nil {
			return err
		}
		return errors.WithPath(visitSeq(v, &el.Exprs), "exprs")
	}
	return errors.WithPath(visitSeq(v, &el.Funcs), "funcs")
}

// Data segment flags.
const (
	dataFlagActive         uint32 = 0
	dataFlagPassive        uint32 = 1
	dataFlagActiveExplicit uint32 = 2
)

// DataSegment is a data segment. Flags 0 is active in memory 0, 1 is
// passive and 2 is active with an explicit memory index.
type DataSegment struct {
	Offset Expr
	Init   []byte
	Flags  uint32
	Mem    MemID
}

// Mode returns how the segment is applied.
func (ds *DataSegment) Mode() SegmentMode {
	if ds.Flags == dataFlagPassive {
		return ModePassive
	}
	return ModeActive
}

func (ds *DataSegment) Decode(d *Decoder) error {
	flags, err := d.TagU32(FamilyDataSegment)
	if err != nil {
		return err
	}
	*ds = DataSegment{Flags: flags}
	if flags == dataFlagActiveExplicit {
		if err := d.Field("mem", func() error { return ds.Mem.Decode(d) }); err != nil {
			return err
		}
	}
	if flags != dataFlagPassive {
		if err := d.Field("offset", func() error { return ds.Offset.Decode(d) }); err != nil {
			return err
		}
	}
	return d.Field("init", func() (err error) {
		ds.Init, err = d.Blob()
		return err
	})
}

func (ds *DataSegment) Encode(e *Encoder) error {
	if err := e.TagU32(FamilyDataSegment, ds.Flags); err != nil {
		return err
	}
	switch {
	case ds.Flags == dataFlagActiveExplicit:
		if err := ds.Mem.Encode(e); err != nil {
			return err
		}
	case ds.Mem != 0:
		return errors.WithPath(errors.Encode("memory %d needs data flags 2", ds.Mem), "mem")
	}
	if ds.Flags != dataFlagPassive {
		if err := e.Field("offset", func() error { return ds.Offset.Encode(e) }); err != nil {
			return err
		}
	}
	return e.Field("init", func() error { return e.Blob(ds.Init) })
}

func (ds *DataSegment) VisitChildren(v *Visitor) error {
	if ds.Flags == dataFlagActiveExplicit {
		if err := visitField(v, "mem", &ds.Mem); err != nil {
			return err
		}
	}
	if ds.Flags != dataFlagPassive {
		return visitField(v, "offset", &ds.Offset)
	}
	return nil
}

// DataCount is the payload of the data count section.
type DataCount uint32

func (c *DataCount) Decode(d *Decoder) error {
	v, err := d.U32()
	*c = DataCount(v)
	return err
}

func (c *DataCount) Encode(e *Encoder) error { e.U32(uint32(*c)); return nil }
